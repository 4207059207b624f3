// Package transform turns raw input rows into reconcile records.
//
// A Mapping is an ordered list of fields, each binding an input column to an
// output name through a Rule. Rules never fail: a missing reference or an
// unparseable value degrades to nil, malformed text to "".
//
//	m := transform.Mapping{
//	    {Source: "isbn", Name: "isbn"},
//	    {Source: "title", Name: "title", Rule: transform.Normalize{}},
//	    {Source: "author", Name: "author_id", Rule: transform.ForeignKey{Lookup: authors}},
//	    {Source: "published", Name: "published_on", Rule: transform.Date{Format: "%Y-%m-%d"}},
//	}
//	records := transform.Transform(rows, m)
package transform
