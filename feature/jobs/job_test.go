package jobs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		job, err := Parse([]byte(`
steps:
  - name: authors
    table: authors
    key: code
    source: authors.csv
    fields:
      - source: code
      - source: full
        name: name
`))
		require.NoError(t, err)

		step := job.Steps[0]
		assert.Equal(t, "code", step.Fields[0].Name)
		assert.Equal(t, "name", step.Fields[1].Name)
		assert.Equal(t, "id", step.idColumn())
		assert.Equal(t, '|', step.separator())
	})

	t.Run("UnknownKey", func(t *testing.T) {
		_, err := Parse([]byte(`
steps:
  - name: authors
    table: authors
    key: code
    sourec: authors.csv
    fields: [{source: code}]
`))
		assert.Error(t, err)
	})

	t.Run("CustomSeparator", func(t *testing.T) {
		job, err := Parse([]byte(`
steps:
  - name: authors
    table: authors
    key: code
    source: authors.csv
    separator: ";"
    fields: [{source: code}]
`))
		require.NoError(t, err)
		assert.Equal(t, ';', job.Steps[0].separator())
	})
}

func TestValidate(t *testing.T) {
	base := func() *Job {
		return &Job{Steps: []Step{
			{Name: "authors", Table: "authors", Key: "code", Source: "a.csv", Fields: []FieldSpec{{Source: "code", Name: "code"}}},
			{Name: "books", Table: "books", Key: "isbn", Source: "b.csv", Fields: []FieldSpec{
				{Source: "isbn", Name: "isbn"},
				{Source: "author", Name: "author_id", Rule: RuleForeignKey, Lookup: "authors"},
			}},
		}}
	}

	require.NoError(t, base().Validate())

	tests := []struct {
		name   string
		mutate func(j *Job)
		errMsg string
	}{
		{"NoSteps", func(j *Job) { j.Steps = nil }, "no steps"},
		{"DuplicateName", func(j *Job) { j.Steps[1].Name = "authors" }, "defined twice"},
		{"NoTable", func(j *Job) { j.Steps[0].Table = "" }, "table is required"},
		{"NoSource", func(j *Job) { j.Steps[0].Source = "" }, "source is required"},
		{"NoKey", func(j *Job) { j.Steps[0].Key = "" }, "key is required"},
		{"KeyNotMapped", func(j *Job) { j.Steps[0].Key = "name" }, "not a mapped field"},
		{"LongSeparator", func(j *Job) { j.Steps[0].Separator = "||" }, "single character"},
		{"BadScope", func(j *Job) { j.Steps[0].Scope = "some" }, "unknown scope"},
		{"UnknownLookup", func(j *Job) { j.Steps[1].Fields[1].Lookup = "publishers" }, "unknown step"},
		{"SelfLookup", func(j *Job) { j.Steps[1].Fields[1].Lookup = "books" }, "itself"},
		{"LookupScopeNone", func(j *Job) { j.Steps[0].Scope = "none" }, "scope none"},
		{"UnknownRule", func(j *Job) { j.Steps[0].Fields[0].Rule = "upper" }, "unknown rule"},
		{"DateWithoutFormat", func(j *Job) {
			j.Steps[0].Fields = append(j.Steps[0].Fields, FieldSpec{Source: "born", Name: "born", Rule: RuleDate})
		}, "needs a format"},
		{"PairMissingColumn", func(j *Job) {
			j.Steps = append(j.Steps, Step{
				Name: "links", Table: "book_authors", Source: "l.csv",
				Fields: []FieldSpec{{Source: "isbn", Name: "isbn"}, {Source: "code", Name: "code"}},
				Pair: &PairSpec{
					Left:  PairEnd{Field: "isbn", Column: "book_id", Lookup: "books"},
					Right: PairEnd{Field: "code", Lookup: "authors"},
				},
			})
		}, "needs field, column and lookup"},
		{"PairAsLookup", func(j *Job) {
			j.Steps = append(j.Steps, Step{
				Name: "links", Table: "book_authors", Source: "l.csv",
				Fields: []FieldSpec{{Source: "isbn", Name: "isbn"}, {Source: "code", Name: "code"}},
				Pair: &PairSpec{
					Left:  PairEnd{Field: "isbn", Column: "book_id", Lookup: "books"},
					Right: PairEnd{Field: "code", Column: "author_id", Lookup: "authors"},
				},
			})
			j.Steps[1].Fields[1].Lookup = "links"
		}, "cannot serve as a lookup"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := base()
			tt.mutate(job)
			err := job.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nightly.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
steps:
  - name: authors
    table: authors
    key: code
    source: authors.csv
    fields: [{source: code}]
`), 0o644))

	job, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "nightly", job.Name)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestStepLookups(t *testing.T) {
	s := Step{
		Fields: []FieldSpec{
			{Name: "a", Lookup: "authors"},
			{Name: "b"},
			{Name: "c", Lookup: "authors"},
		},
		Pair: &PairSpec{Left: PairEnd{Lookup: "books"}, Right: PairEnd{Lookup: "authors"}},
	}
	assert.Equal(t, []string{"books", "authors"}, s.Lookups())
}

func TestJobTables(t *testing.T) {
	job := &Job{Steps: []Step{{Table: "a"}, {Table: "b"}, {Table: "a"}}}
	assert.Equal(t, []string{"a", "b"}, job.Tables())
}
