package reconcile

import (
	"context"
	"fmt"
	"sort"

	"data-loader/core/utils"

	"go.uber.org/zap"
)

// DetectChanges compares existing records with their stored entities and
// returns an intent for every record that differs in at least one of its own
// fields. Stored entities are fetched in key lists of at most ChunkSize.
func DetectChanges[E any](ctx context.Context, records []Record, adapter Adapter[E], store Store[E], opts Options) ([]UpdateIntent[E], error) {
	if len(records) == 0 {
		return nil, nil
	}
	opts = opts.withDefaults()
	log := opts.Logger.With(zap.String("entity", adapter.Name()))
	keyOf := KeyOf(adapter.KeyField())

	index, err := fetchIndex(ctx, adapter, store, distinctKeys(records, keyOf), opts.ChunkSize)
	if err != nil {
		return nil, err
	}

	var intents []UpdateIntent[E]
	for _, rec := range records {
		key := keyOf(rec)
		entity, ok := index[key]
		if !ok {
			log.Warn("Stored entity disappeared before comparison", zap.String("key", key))
			continue
		}

		changed := ChangedFields(rec, adapter.Values(entity))
		if len(changed) == 0 {
			continue
		}
		intents = append(intents, UpdateIntent[E]{
			Entity:  entity,
			Values:  rec,
			Changed: changed,
		})
	}

	log.Info("Detected changes",
		zap.Int("existing", len(records)),
		zap.Int("changed", len(intents)),
	)
	return intents, nil
}

// ChangedFields returns, sorted, the fields of rec whose canonical string
// form differs from the stored value.
func ChangedFields(rec Record, stored Record) []string {
	var changed []string
	for field, v := range rec {
		if utils.Stringify(v) != utils.Stringify(stored[field]) {
			changed = append(changed, field)
		}
	}
	sort.Strings(changed)
	return changed
}

// fetchIndex loads the entities for keys chunk by chunk and indexes them.
func fetchIndex[E any](ctx context.Context, adapter Adapter[E], store Store[E], keys []string, chunkSize int) (map[string]E, error) {
	index := make(map[string]E, len(keys))
	for _, chunk := range Chunk(keys, chunkSize) {
		entities, err := store.FindByKeys(ctx, chunk)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s entities: %w", adapter.Name(), err)
		}
		for _, entity := range entities {
			index[adapter.EntityKey(entity)] = entity
		}
	}
	return index, nil
}
