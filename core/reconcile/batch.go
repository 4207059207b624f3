package reconcile

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// MaxPlaceholders is the bind-parameter limit of one MySQL statement.
const MaxPlaceholders = 65535

// insertChunkSize caps size so one chunk of rows with the given number of
// columns stays within MaxPlaceholders.
func insertChunkSize(size, columns int) int {
	if columns <= 0 {
		return size
	}
	return max(1, min(size, MaxPlaceholders/columns))
}

// CreateAll builds an entity per record and inserts them in order, in chunks
// of at most ChunkSize rows, fewer when the rows are too wide for one statement. Chunks commit independently: on failure the chunks
// already inserted stay committed and their count is returned with the error.
func CreateAll[E any](ctx context.Context, records []Record, adapter Adapter[E], store Store[E], opts Options) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	opts = opts.withDefaults()

	columns := opts.Columns
	entities := make([]E, 0, len(records))
	for i, rec := range records {
		if opts.Columns == 0 {
			columns = max(columns, len(rec))
		}
		entity, err := adapter.New(rec)
		if err != nil {
			return 0, fmt.Errorf("failed to build %s entity from record %d: %w", adapter.Name(), i, err)
		}
		entities = append(entities, entity)
	}

	log := opts.Logger.With(zap.String("entity", adapter.Name()))
	return insertChunks(ctx, log, entities, store.BulkInsert, opts.ChunkSize, columns)
}

// insertChunks is the chunked insert shared by both engines.
func insertChunks[E any](ctx context.Context, log *zap.Logger, entities []E, insert func(context.Context, []E) error, chunkSize, columns int) (int, error) {
	log.Info("Creating new records", zap.Int("count", len(entities)))

	if capped := insertChunkSize(chunkSize, columns); capped < chunkSize {
		log.Info("Chunk size reduced for wide rows",
			zap.Int("chunk_size", capped),
			zap.Int("columns", columns),
		)
		chunkSize = capped
	}

	created := 0
	for i, chunk := range Chunk(entities, chunkSize) {
		if err := insert(ctx, chunk); err != nil {
			return created, fmt.Errorf("failed to insert chunk %d (%d committed): %w", i, created, err)
		}
		created += len(chunk)
	}

	log.Info("Done creating new records", zap.Int("created", created))
	return created, nil
}

// ApplyUpdates writes every intent onto its entity and saves it, row by row,
// inside one transaction. Any failure rolls back the whole batch.
func ApplyUpdates[E any](ctx context.Context, intents []UpdateIntent[E], adapter Adapter[E], store Store[E], opts Options) (int, error) {
	if len(intents) == 0 {
		return 0, nil
	}
	opts = opts.withDefaults()
	log := opts.Logger.With(zap.String("entity", adapter.Name()))
	log.Info("Updating records", zap.Int("count", len(intents)))
	prog := newProgress(log, "update", opts.ProgressInterval, len(intents))

	err := store.Atomic(ctx, func(tx Store[E]) error {
		for i, intent := range intents {
			prog.tick(i)
			if err := adapter.Apply(intent.Entity, intent.Values); err != nil {
				return fmt.Errorf("failed to apply update %d: %w", i, err)
			}
			if err := tx.Save(ctx, intent.Entity); err != nil {
				return fmt.Errorf("failed to save update %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%s updates rolled back: %w", adapter.Name(), err)
	}

	log.Info("Done updating records", zap.Int("updated", len(intents)))
	return len(intents), nil
}
