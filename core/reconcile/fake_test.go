package reconcile

import (
	"context"
	"errors"
	"sort"

	"data-loader/core/utils"
)

var errInsert = errors.New("insert failed")

// memStore is an in-memory Store of dynamic rows keyed by one column.
type memStore struct {
	key  string
	rows map[string]Row

	inserts   [][]Row
	saves     int
	finds     [][]string
	failChunk int // index of the BulkInsert call to fail, -1 for none
}

func newMemStore(key string, rows ...Row) *memStore {
	s := &memStore{key: key, rows: make(map[string]Row), failChunk: -1}
	for _, r := range rows {
		s.rows[utils.Stringify(r[key])] = r
	}
	return s
}

func (s *memStore) ListKeys(context.Context) (map[string]struct{}, error) {
	keys := make(map[string]struct{}, len(s.rows))
	for k := range s.rows {
		keys[k] = struct{}{}
	}
	return keys, nil
}

func (s *memStore) FindByKeys(_ context.Context, keys []string) ([]Row, error) {
	s.finds = append(s.finds, keys)
	var out []Row
	for _, k := range keys {
		if r, ok := s.rows[k]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *memStore) All(context.Context) ([]Row, error) {
	keys := make([]string, 0, len(s.rows))
	for k := range s.rows {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Row, 0, len(keys))
	for _, k := range keys {
		out = append(out, s.rows[k])
	}
	return out, nil
}

func (s *memStore) BulkInsert(_ context.Context, rows []Row) error {
	if len(s.inserts) == s.failChunk {
		return errInsert
	}
	s.inserts = append(s.inserts, rows)
	for _, r := range rows {
		s.rows[utils.Stringify(r[s.key])] = r
	}
	return nil
}

func (s *memStore) Save(context.Context, Row) error {
	s.saves++
	return nil
}

func (s *memStore) Atomic(_ context.Context, fn func(tx Store[Row]) error) error {
	return fn(s)
}

// inserted flattens every BulkInsert call in order.
func (s *memStore) inserted() []Row {
	var out []Row
	for _, chunk := range s.inserts {
		out = append(out, chunk...)
	}
	return out
}
