package jobs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"data-loader/core/database"
	"data-loader/core/extract"
	"data-loader/core/metrics"
	"data-loader/core/reconcile"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const libraryJob = `name: library
steps:
  - name: authors
    table: authors
    key: code
    source: DIR/authors.csv
    fields:
      - source: code
      - source: name
  - name: books
    table: books
    key: isbn
    source: DIR/books.csv
    fields:
      - source: isbn
      - source: title
      - source: author
        name: author_id
        rule: fk
        lookup: authors
  - name: book_authors
    table: book_authors
    source: DIR/book_authors.csv
    fields:
      - source: isbn
      - source: code
      - source: primary
        name: is_primary
        rule: boolean
    pair:
      left: {field: isbn, column: book_id, lookup: books}
      right: {field: code, column: author_id, lookup: authors}
`

// library is a temp directory holding the library job, its sources and a
// sqlite database with the target tables.
type library struct {
	dir string
	db  *gorm.DB
}

func newLibrary(t *testing.T) *library {
	t.Helper()
	dir := t.TempDir()

	db, err := database.Connect(database.Config{
		Driver: database.DriverSQLite,
		Name:   filepath.Join(dir, "library.db"),
	})
	require.NoError(t, err)

	for _, stmt := range []string{
		"CREATE TABLE authors (id INTEGER PRIMARY KEY, code TEXT, name TEXT)",
		"CREATE TABLE books (id INTEGER PRIMARY KEY, isbn TEXT, title TEXT, author_id INTEGER)",
		"CREATE TABLE book_authors (id INTEGER PRIMARY KEY AUTOINCREMENT, book_id INTEGER, author_id INTEGER, is_primary BOOLEAN)",
	} {
		require.NoError(t, db.Exec(stmt).Error)
	}

	lib := &library{dir: dir, db: db}
	lib.write(t, "authors.csv", "code|name\nA1|Ann\nA2|Bob\n")
	lib.write(t, "books.csv", "isbn|title|author\nB1|Go|A1\nB2|Databases|A2\n")
	lib.write(t, "book_authors.csv", "isbn|code|primary\nB1|A1|1\nB1|A2|0\nB2|A2|yes\n")
	lib.write(t, "library.yaml", strings.ReplaceAll(libraryJob, "DIR", dir))
	return lib
}

func (l *library) write(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(l.dir, name), []byte(content), 0o644))
}

func (l *library) job(t *testing.T) *Job {
	t.Helper()
	job, err := LoadFile(filepath.Join(l.dir, "library.yaml"))
	require.NoError(t, err)
	return job
}

func (l *library) runner(rec *metrics.Recorder) *Runner {
	return NewRunner(l.db, extract.Reader{}, reconcile.Config{ChunkSize: 2}, zap.NewNop(), rec)
}

func (l *library) count(t *testing.T, table string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, l.db.Table(table).Count(&n).Error)
	return n
}

func stepByName(t *testing.T, r *Report, name string) StepReport {
	t.Helper()
	for _, s := range r.Steps {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("report has no step %q", name)
	return StepReport{}
}
