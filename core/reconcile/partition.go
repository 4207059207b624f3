package reconcile

import (
	"fmt"

	"data-loader/core/utils"
)

// Partition splits records into those whose key is already stored and those
// to create. Creation candidates are deduplicated on key: the first record
// wins and later ones are dropped and counted in duplicates.
// Partition has no side effects.
func Partition(records []Record, existing map[string]struct{}, keyOf func(Record) string) (existingRecs, toCreate []Record, duplicates int) {
	pending := make(map[string]struct{})

	for _, rec := range records {
		key := keyOf(rec)

		if _, ok := existing[key]; ok {
			existingRecs = append(existingRecs, rec)
			continue
		}

		if _, seen := pending[key]; seen {
			duplicates++
			continue
		}
		pending[key] = struct{}{}
		toCreate = append(toCreate, rec)
	}

	return existingRecs, toCreate, duplicates
}

// Chunk splits items into contiguous slices of at most size elements.
// Concatenating the chunks yields items unchanged.
func Chunk[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = DefaultChunkSize
	}
	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[start:end])
	}
	return chunks
}

// KeyOf returns a key selector reading field from a record.
func KeyOf(field string) func(Record) string {
	return func(rec Record) string {
		return utils.Stringify(rec[field])
	}
}

// checkKeyField fails on the first record that lacks the key field.
func checkKeyField(records []Record, field string) error {
	for i, rec := range records {
		if _, ok := rec[field]; !ok {
			return fmt.Errorf("record %d: %w %q", i, ErrNoKeyField, field)
		}
	}
	return nil
}

// distinctKeys returns the keys of records in first-seen order.
func distinctKeys(records []Record, keyOf func(Record) string) []string {
	seen := make(map[string]struct{}, len(records))
	keys := make([]string, 0, len(records))
	for _, rec := range records {
		key := keyOf(rec)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	return keys
}
