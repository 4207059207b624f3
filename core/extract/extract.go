package extract

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"data-loader/core/storage"
	"data-loader/core/transform"

	"github.com/minio/minio-go/v7"
)

// DefaultSeparator is the field separator used when none is configured.
const DefaultSeparator = '|'

// ErrNoStorage is returned for an object source when no storage client is set.
var ErrNoStorage = errors.New("object source requires a storage client")

// Reader reads delimited sources from the local filesystem or object storage.
type Reader struct {
	// Storage serves "s3://bucket/key" sources. It may be nil when only local
	// paths are used.
	Storage storage.Client
}

// Load opens source and parses it with ReadDelimited.
// A zero sep falls back to DefaultSeparator.
func (r Reader) Load(ctx context.Context, source string, sep rune) ([]transform.Row, error) {
	rc, err := r.Open(ctx, source)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	rows, err := ReadDelimited(rc, sep)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", source, err)
	}
	return rows, nil
}

// Open returns a stream for a local path or an "s3://bucket/key" location.
func (r Reader) Open(ctx context.Context, source string) (io.ReadCloser, error) {
	bucket, key, ok := storage.ParseURI(source)
	if !ok {
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", source, err)
		}
		return f, nil
	}

	if r.Storage == nil {
		return nil, fmt.Errorf("%s: %w", source, ErrNoStorage)
	}
	obj, err := r.Storage.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", source, err)
	}
	return obj, nil
}

// ReadDelimited parses a delimited stream whose first line is the header.
// Leading spaces of every cell are skipped. Rows shorter than the header
// lack the trailing columns; cells beyond the header are dropped.
func ReadDelimited(in io.Reader, sep rune) ([]transform.Row, error) {
	if sep == 0 {
		sep = DefaultSeparator
	}

	reader := csv.NewReader(in)
	reader.Comma = sep
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	columns := make([]string, len(header))
	copy(columns, header)
	if len(columns) > 0 {
		columns[0] = strings.TrimPrefix(columns[0], "\ufeff")
	}

	var rows []transform.Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", len(rows)+1, err)
		}

		row := make(transform.Row, len(columns))
		for i, cell := range record {
			if i >= len(columns) {
				break
			}
			row[columns[i]] = cell
		}
		rows = append(rows, row)
	}
}
