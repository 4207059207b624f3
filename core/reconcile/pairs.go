package reconcile

import (
	"context"
	"fmt"

	"data-loader/core/utils"

	"go.uber.org/zap"
)

// pairColumns bounds the columns of an inserted join row: both references
// and the primary flag.
const pairColumns = 3

// pairUpdate is an existing join entity with the record that matched it.
type pairUpdate[E any] struct {
	key    PairKey
	entity E
	rec    Record
}

// ReconcilePairs loads join entities identified by two references.
//
// Records carry the natural keys of both ends in adapter.LeftField() and
// adapter.RightField(); left and right resolve them to stored ids. Existing
// pairs are found with a single FindPairs query, new pairs are created in
// chunks and, when the entity type supports it, a differing primary flag is
// saved inside one transaction. Records with an unresolvable reference are
// skipped and counted as unresolved.
//
// Only new pairs are deduplicated. Every record matching an existing pair is
// applied in input order, so the last one decides the stored flag.
func ReconcilePairs[E any](ctx context.Context, adapter PairAdapter[E], store PairStore[E], records []Record, left, right Lookup, opts Options) (*PairResult, error) {
	opts = opts.withDefaults()
	log := opts.Logger.With(zap.String("entity", adapter.Name()))
	log.Info("Loading pairs", zap.Int("records", len(records)), zap.Bool("dry_run", opts.DryRun))

	existing, err := loadPairs(ctx, adapter, store, records, left, right)
	if err != nil {
		return nil, err
	}

	result := &PairResult{Entity: adapter.Name(), Considered: len(records)}
	seen := make(map[PairKey]struct{}, len(records))
	prog := newProgress(log, "split", opts.ProgressInterval, len(records))

	var (
		toCreate []E
		toUpdate []pairUpdate[E]
	)
	for i, rec := range records {
		prog.tick(i)
		key := pairKeyOf(adapter, rec)

		if entity, ok := existing[key]; ok {
			toUpdate = append(toUpdate, pairUpdate[E]{key: key, entity: entity, rec: rec})
			continue
		}

		if _, dup := seen[key]; dup {
			result.Duplicates++
			continue
		}
		seen[key] = struct{}{}

		leftID, lok := left.Resolve(key.Left)
		rightID, rok := right.Resolve(key.Right)
		if !lok || !rok {
			result.Unresolved++
			log.Debug("Unresolved pair reference", zap.Stringer("pair", key))
			continue
		}

		entity, err := adapter.New(leftID, rightID, recordPrimary(rec))
		if err != nil {
			return result, fmt.Errorf("failed to build %s pair %s: %w", adapter.Name(), key, err)
		}
		toCreate = append(toCreate, entity)
	}
	if result.Unresolved > 0 {
		log.Warn("Skipped pairs with missing references", zap.Int("unresolved", result.Unresolved))
	}

	if opts.DryRun {
		result.Created = len(toCreate)
	} else {
		created, err := insertChunks(ctx, log, toCreate, store.BulkInsert, opts.ChunkSize, pairColumns)
		result.Created = created
		if err != nil {
			return result, err
		}
	}

	if !adapter.SupportsPrimary() {
		log.Info("Loaded pairs", zap.Int("created", result.Created))
		return result, nil
	}

	// replay the flags in order against the value each save would leave
	var flagged []pairUpdate[E]
	current := make(map[PairKey]bool, len(toUpdate))
	for _, u := range toUpdate {
		have, ok := current[u.key]
		if !ok {
			have = adapter.Primary(u.entity)
		}
		if want := recordPrimary(u.rec); have != want {
			flagged = append(flagged, u)
			current[u.key] = want
		}
	}

	if opts.DryRun || len(flagged) == 0 {
		result.Updated = len(flagged)
		log.Info("Loaded pairs", zap.Int("created", result.Created), zap.Int("updated", result.Updated))
		return result, nil
	}

	err = store.Atomic(ctx, func(tx PairStore[E]) error {
		for i, u := range flagged {
			adapter.SetPrimary(u.entity, recordPrimary(u.rec))
			if err := tx.Save(ctx, u.entity); err != nil {
				return fmt.Errorf("failed to save pair %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("%s updates rolled back: %w", adapter.Name(), err)
	}
	result.Updated = len(flagged)

	log.Info("Loaded pairs",
		zap.Int("considered", len(toUpdate)),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
	)
	return result, nil
}

// loadPairs fetches the stored pairs among the references used by records and
// indexes them by the natural keys of both ends.
func loadPairs[E any](ctx context.Context, adapter PairAdapter[E], store PairStore[E], records []Record, left, right Lookup) (map[PairKey]E, error) {
	leftIDs := referencedIDs(records, adapter.LeftField(), left)
	rightIDs := referencedIDs(records, adapter.RightField(), right)

	entities, err := store.FindPairs(ctx, leftIDs, rightIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s pairs: %w", adapter.Name(), err)
	}

	leftNames, rightNames := left.invert(), right.invert()
	index := make(map[PairKey]E, len(entities))
	for _, entity := range entities {
		l, r := adapter.Refs(entity)
		key := PairKey{
			Left:  leftNames[utils.Stringify(l)],
			Right: rightNames[utils.Stringify(r)],
		}
		index[key] = entity
	}
	return index, nil
}

// referencedIDs resolves the distinct natural keys found in field.
func referencedIDs(records []Record, field string, lookup Lookup) []any {
	seen := make(map[string]struct{})
	var ids []any
	for _, rec := range records {
		name := utils.Stringify(rec[field])
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		if id, ok := lookup.Resolve(name); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

func pairKeyOf[E any](adapter PairAdapter[E], rec Record) PairKey {
	return PairKey{
		Left:  utils.Stringify(rec[adapter.LeftField()]),
		Right: utils.Stringify(rec[adapter.RightField()]),
	}
}
