package reconcile

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Reconcile loads records for one entity type: it partitions them against the
// stored keys, creates the new ones, detects which existing ones changed and
// updates those. Nothing is ever deleted.
//
// With opts.DryRun the counts are computed but nothing is written.
// The returned index follows opts.Scope.
func Reconcile[E any](ctx context.Context, adapter Adapter[E], store Store[E], records []Record, opts Options) (*Result[E], error) {
	opts = opts.withDefaults()
	log := opts.Logger.With(zap.String("entity", adapter.Name()))
	log.Info("Loading records", zap.Int("records", len(records)), zap.Bool("dry_run", opts.DryRun))

	if err := checkKeyField(records, adapter.KeyField()); err != nil {
		return nil, err
	}
	keyOf := KeyOf(adapter.KeyField())

	existingKeys, err := store.ListKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s keys: %w", adapter.Name(), err)
	}

	existing, toCreate, duplicates := Partition(records, existingKeys, keyOf)
	log.Info("Split records",
		zap.Int("existing", len(existing)),
		zap.Int("to_create", len(toCreate)),
	)
	if duplicates > 0 {
		log.Warn("Dropped duplicate keys among new records", zap.Int("duplicates", duplicates))
	}

	result := &Result[E]{
		Entity:     adapter.Name(),
		Considered: len(records),
		Duplicates: duplicates,
	}

	if opts.DryRun {
		result.Created = len(toCreate)
	} else {
		created, err := CreateAll(ctx, toCreate, adapter, store, opts)
		result.Created = created
		if err != nil {
			return result, err
		}
	}

	intents, err := DetectChanges(ctx, existing, adapter, store, opts)
	if err != nil {
		return result, err
	}
	result.Unchanged = len(existing) - len(intents)

	if opts.DryRun {
		result.Updated = len(intents)
	} else {
		updated, err := ApplyUpdates(ctx, intents, adapter, store, opts)
		if err != nil {
			return result, err
		}
		result.Updated = updated
	}

	result.Index, err = buildIndex(ctx, adapter, store, records, keyOf, opts)
	if err != nil {
		return result, err
	}

	log.Info("Loaded records",
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("unchanged", result.Unchanged),
	)
	return result, nil
}

// buildIndex returns the entities selected by the scope, keyed by entity key.
func buildIndex[E any](ctx context.Context, adapter Adapter[E], store Store[E], records []Record, keyOf func(Record) string, opts Options) (map[string]E, error) {
	switch opts.Scope {
	case ScopeNone:
		return nil, nil
	case ScopeReferenced:
		return fetchIndex(ctx, adapter, store, distinctKeys(records, keyOf), opts.ChunkSize)
	default:
		entities, err := store.All(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s entities: %w", adapter.Name(), err)
		}
		index := make(map[string]E, len(entities))
		for _, entity := range entities {
			index[adapter.EntityKey(entity)] = entity
		}
		return index, nil
	}
}
