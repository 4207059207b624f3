package extract

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"data-loader/core/storage/mocks"
	"data-loader/core/transform"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestReadDelimited(t *testing.T) {
	t.Run("PipeWithLeadingSpaces", func(t *testing.T) {
		in := "id| name|city\n1| Ann| Paris\n2|Bob|\n"
		rows, err := ReadDelimited(strings.NewReader(in), 0)
		require.NoError(t, err)

		assert.Equal(t, []transform.Row{
			{"id": "1", "name": "Ann", "city": "Paris"},
			{"id": "2", "name": "Bob", "city": ""},
		}, rows)
	})

	t.Run("CustomSeparator", func(t *testing.T) {
		rows, err := ReadDelimited(strings.NewReader("a;b\nx;y\n"), ';')
		require.NoError(t, err)
		assert.Equal(t, []transform.Row{{"a": "x", "b": "y"}}, rows)
	})

	t.Run("RaggedRows", func(t *testing.T) {
		rows, err := ReadDelimited(strings.NewReader("a|b\n1\n1|2|3\n"), '|')
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, transform.Row{"a": "1"}, rows[0])
		assert.Equal(t, transform.Row{"a": "1", "b": "2"}, rows[1])
	})

	t.Run("ByteOrderMark", func(t *testing.T) {
		rows, err := ReadDelimited(strings.NewReader("\ufeffid|v\n1|x\n"), '|')
		require.NoError(t, err)
		assert.Equal(t, "1", rows[0]["id"])
	})

	t.Run("Empty", func(t *testing.T) {
		rows, err := ReadDelimited(strings.NewReader(""), '|')
		assert.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("BadQuote", func(t *testing.T) {
		_, err := ReadDelimited(strings.NewReader("a|b\n\"x|y\n"), '|')
		assert.Error(t, err)
	})
}

func TestReaderLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("LocalFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "authors.csv")
		require.NoError(t, os.WriteFile(path, []byte("code|name\nA1|Austen\n"), 0o644))

		rows, err := Reader{}.Load(ctx, path, 0)
		require.NoError(t, err)
		assert.Equal(t, []transform.Row{{"code": "A1", "name": "Austen"}}, rows)
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := Reader{}.Load(ctx, filepath.Join(t.TempDir(), "nope.csv"), 0)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("Object", func(t *testing.T) {
		client := new(mocks.Client)
		body := io.NopCloser(strings.NewReader("code|name\nB2|Brontë\n"))
		client.On("GetObject", ctx, "imports", "authors.csv", mock.Anything).Return(body, nil)

		rows, err := Reader{Storage: client}.Load(ctx, "s3://imports/authors.csv", '|')
		require.NoError(t, err)
		assert.Equal(t, "Brontë", rows[0]["name"])
		client.AssertExpectations(t)
	})

	t.Run("ObjectError", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("GetObject", ctx, "imports", "x.csv", mock.Anything).Return(nil, errors.New("no such key"))

		_, err := Reader{Storage: client}.Load(ctx, "s3://imports/x.csv", '|')
		assert.ErrorContains(t, err, "no such key")
	})

	t.Run("ObjectWithoutStorage", func(t *testing.T) {
		_, err := Reader{}.Load(ctx, "s3://imports/x.csv", '|')
		assert.ErrorIs(t, err, ErrNoStorage)
	})
}
