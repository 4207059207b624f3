package transform

import (
	"data-loader/core/reconcile"
)

// Row is one raw input row: column header to cell text.
type Row map[string]string

// Rule computes an output value from a raw row. source is the column the
// field is bound to.
type Rule interface {
	Eval(row Row, source string) any
}

// Field binds an input column to an output field through a rule.
// A nil Rule copies the column as is.
type Field struct {
	// Source is the input column.
	Source string
	// Name is the output field.
	Name string
	// Rule computes the value. Nil means Direct.
	Rule Rule
}

// Mapping is an ordered list of fields. When two fields share a Name the
// later one wins.
type Mapping []Field

// Apply converts one row into a record.
func (m Mapping) Apply(row Row) reconcile.Record {
	rec := make(reconcile.Record, len(m))
	for _, f := range m {
		rule := f.Rule
		if rule == nil {
			rule = Direct{}
		}
		rec[f.Name] = rule.Eval(row, f.Source)
	}
	return rec
}

// Names returns the output field names in mapping order, without repeats.
func (m Mapping) Names() []string {
	seen := make(map[string]struct{}, len(m))
	out := make([]string, 0, len(m))
	for _, f := range m {
		if _, ok := seen[f.Name]; ok {
			continue
		}
		seen[f.Name] = struct{}{}
		out = append(out, f.Name)
	}
	return out
}

// Transform converts every row with the mapping, preserving order.
func Transform(rows []Row, m Mapping) []reconcile.Record {
	out := make([]reconcile.Record, len(rows))
	for i, row := range rows {
		out[i] = m.Apply(row)
	}
	return out
}
