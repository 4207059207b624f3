package jobs

import (
	"context"
	"fmt"

	"data-loader/core/database"
	"data-loader/core/extract"
	"data-loader/core/reconcile"

	"gorm.io/gorm"
)

// Problem is one preflight finding.
type Problem struct {
	Step    string `json:"step"`
	Message string `json:"message"`
}

func (p Problem) String() string {
	return fmt.Sprintf("%s: %s", p.Step, p.Message)
}

// Check verifies a job against the database and its sources without loading
// anything: every table must exist with the columns the step writes, lookup
// id columns must exist and every source must be readable.
func Check(ctx context.Context, db *gorm.DB, reader extract.Reader, job *Job) ([]Problem, error) {
	var problems []Problem
	report := func(step, format string, args ...any) {
		problems = append(problems, Problem{Step: step, Message: fmt.Sprintf(format, args...)})
	}

	referenced := job.referenced()
	columns := make(map[string]database.ColumnSet)

	for i := range job.Steps {
		s := &job.Steps[i]

		cols, ok := columns[s.Table]
		if !ok {
			var err error
			cols, err = database.GetColumnSet(db, s.Table)
			if err != nil {
				return nil, err
			}
			columns[s.Table] = cols
		}
		if len(cols) == 0 {
			report(s.Name, "table %s does not exist", s.Table)
		} else {
			for _, c := range cols.Missing(stepColumns(s)...) {
				report(s.Name, "table %s has no column %s", s.Table, c)
			}
			if s.Pair != nil && s.Pair.PrimaryColumn == PrimaryAuto && !cols.Has(reconcile.PrimaryField) {
				for _, f := range s.Fields {
					if f.Name == reconcile.PrimaryField {
						report(s.Name, "field %s is mapped but table %s has no %s column", f.Name, s.Table, reconcile.PrimaryField)
					}
				}
			}
			if referenced[s.Name] && !cols.Has(s.idColumn()) {
				report(s.Name, "table %s has no id column %s", s.Table, s.idColumn())
			}
		}

		rc, err := reader.Open(ctx, s.Source)
		if err != nil {
			report(s.Name, "source is not readable: %v", err)
			continue
		}
		rc.Close()
	}

	return problems, nil
}

// stepColumns lists the columns a step writes.
func stepColumns(s *Step) []string {
	if s.Pair == nil {
		names := make([]string, 0, len(s.Fields))
		for _, f := range s.Fields {
			names = append(names, f.Name)
		}
		return names
	}

	cols := []string{s.Pair.Left.Column, s.Pair.Right.Column}
	if pc := s.Pair.PrimaryColumn; pc != PrimaryAuto && pc != PrimaryNone {
		cols = append(cols, pc)
	}
	return cols
}
