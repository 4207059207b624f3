package transform

import (
	"strings"
	"time"

	"data-loader/core/reconcile"
	"data-loader/core/utils"

	"github.com/ncruces/go-strftime"
)

// TimeLayout is the string form of values produced by Time.
const TimeLayout = "15:04:05"

// Direct copies the source column. A missing column yields "".
type Direct struct{}

func (Direct) Eval(row Row, source string) any {
	return row[source]
}

// Constant ignores the row and yields Value.
type Constant struct {
	Value any
}

func (c Constant) Eval(Row, string) any {
	return c.Value
}

// ForeignKey resolves the source column through a lookup of stored ids.
// A missing key yields nil. With NullIfBlank an empty cell yields nil
// without consulting the lookup.
type ForeignKey struct {
	Lookup      reconcile.Lookup
	NullIfBlank bool
}

func (f ForeignKey) Eval(row Row, source string) any {
	key := row[source]
	if key == "" && f.NullIfBlank {
		return nil
	}
	id, ok := f.Lookup.Resolve(key)
	if !ok {
		return nil
	}
	return id
}

// Concat joins several columns with no separator. The bound source column is
// not used.
type Concat struct {
	Sources []string
}

func (c Concat) Eval(row Row, _ string) any {
	var b strings.Builder
	for _, s := range c.Sources {
		b.WriteString(row[s])
	}
	return b.String()
}

// Boolean coerces the source column with utils.ToBool.
type Boolean struct{}

func (Boolean) Eval(row Row, source string) any {
	v, ok := row[source]
	if !ok {
		return false
	}
	return utils.ToBool(v)
}

// Date parses a strftime-formatted datetime and keeps the calendar date, as
// midnight local time. Source, when set, overrides the bound column. Empty or
// unparseable cells yield nil.
type Date struct {
	Source string
	Format string
}

func (d Date) Eval(row Row, source string) any {
	t, ok := parseCell(row, pick(d.Source, source), d.Format)
	if !ok {
		return nil
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}

// Time parses a strftime-formatted datetime and keeps the time of day,
// rendered with TimeLayout. Empty or unparseable cells yield nil.
type Time struct {
	Source string
	Format string
}

func (tr Time) Eval(row Row, source string) any {
	t, ok := parseCell(row, pick(tr.Source, source), tr.Format)
	if !ok {
		return nil
	}
	return t.Format(TimeLayout)
}

// Normalize folds the source column with utils.Normalize.
type Normalize struct{}

func (Normalize) Eval(row Row, source string) any {
	return utils.Normalize(row[source])
}

func pick(override, source string) string {
	if override != "" {
		return override
	}
	return source
}

func parseCell(row Row, column, format string) (time.Time, bool) {
	cell := strings.TrimSpace(row[column])
	if cell == "" {
		return time.Time{}, false
	}
	t, err := strftime.Parse(format, cell)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
