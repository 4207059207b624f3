package reconcile

import (
	"context"
	"database/sql"
	"fmt"

	"gorm.io/gorm"
)

// Store is the persistence contract consumed by the single-key engine.
type Store[E any] interface {
	// ListKeys returns the keys of every stored entity of the type.
	ListKeys(ctx context.Context) (map[string]struct{}, error)

	// FindByKeys returns the stored entities whose key is in keys.
	FindByKeys(ctx context.Context, keys []string) ([]E, error)

	// All returns every stored entity of the type.
	All(ctx context.Context) ([]E, error)

	// BulkInsert inserts the entities in a single statement.
	BulkInsert(ctx context.Context, entities []E) error

	// Save persists the current field values of one existing entity.
	Save(ctx context.Context, entity E) error

	// Atomic runs fn inside one transaction. Any error rolls back every write
	// made through tx.
	Atomic(ctx context.Context, fn func(tx Store[E]) error) error
}

// PairStore is the persistence contract consumed by the dual-key engine.
type PairStore[E any] interface {
	// FindPairs returns the join entities whose left reference is in leftIDs
	// and right reference is in rightIDs, in one query.
	FindPairs(ctx context.Context, leftIDs, rightIDs []any) ([]E, error)

	// BulkInsert inserts the entities in a single statement.
	BulkInsert(ctx context.Context, entities []E) error

	// Save persists the current field values of one existing entity.
	Save(ctx context.Context, entity E) error

	// Atomic runs fn inside one transaction.
	Atomic(ctx context.Context, fn func(tx PairStore[E]) error) error
}

// gormBase carries what both gorm stores share: the connection, how to
// target the model or table, and how to save one entity.
type gormBase[E any] struct {
	db    *gorm.DB
	scope func(*gorm.DB) *gorm.DB
	save  func(tx *gorm.DB, entity E) error
}

func (b gormBase[E]) query(ctx context.Context) *gorm.DB {
	return b.scope(b.db.WithContext(ctx))
}

func (b gormBase[E]) insert(ctx context.Context, entities []E) error {
	if len(entities) == 0 {
		return nil
	}
	if err := b.query(ctx).Create(&entities).Error; err != nil {
		return fmt.Errorf("bulk insert failed: %w", err)
	}
	return nil
}

func (b gormBase[E]) saveOne(ctx context.Context, entity E) error {
	if err := b.save(b.db.WithContext(ctx), entity); err != nil {
		return fmt.Errorf("save failed: %w", err)
	}
	return nil
}

func (b gormBase[E]) withDB(tx *gorm.DB) gormBase[E] {
	b.db = tx
	return b
}

// GormStore implements Store over gorm, for models or raw tables.
type GormStore[E any] struct {
	gormBase[E]
	key string
}

// NewModelStore creates a store for the gorm model M keyed by keyColumn.
func NewModelStore[M any](db *gorm.DB, keyColumn string) *GormStore[*M] {
	return &GormStore[*M]{
		gormBase: gormBase[*M]{
			db:    db,
			scope: func(tx *gorm.DB) *gorm.DB { return tx.Model(new(M)) },
			save:  func(tx *gorm.DB, m *M) error { return tx.Save(m).Error },
		},
		key: keyColumn,
	}
}

// NewTableStore creates a store for dynamic rows of table keyed by keyColumn.
func NewTableStore(db *gorm.DB, table, keyColumn string) *GormStore[Row] {
	return &GormStore[Row]{
		gormBase: gormBase[Row]{
			db:    db,
			scope: func(tx *gorm.DB) *gorm.DB { return tx.Table(table) },
			save:  saveRow(table, keyColumn),
		},
		key: keyColumn,
	}
}

// ListKeys plucks the key column of every row.
func (s *GormStore[E]) ListKeys(ctx context.Context) (map[string]struct{}, error) {
	var values []sql.NullString
	if err := s.query(ctx).Pluck(s.key, &values).Error; err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}

	keys := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v.Valid {
			keys[v.String] = struct{}{}
		}
	}
	return keys, nil
}

// FindByKeys loads the entities whose key column is in keys.
func (s *GormStore[E]) FindByKeys(ctx context.Context, keys []string) ([]E, error) {
	var out []E
	if len(keys) == 0 {
		return out, nil
	}
	if err := s.query(ctx).Where(map[string]any{s.key: keys}).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to find by keys: %w", err)
	}
	return out, nil
}

// All loads every entity.
func (s *GormStore[E]) All(ctx context.Context) ([]E, error) {
	var out []E
	if err := s.query(ctx).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to load all: %w", err)
	}
	return out, nil
}

// BulkInsert inserts entities in one statement.
func (s *GormStore[E]) BulkInsert(ctx context.Context, entities []E) error {
	return s.insert(ctx, entities)
}

// Save persists one entity.
func (s *GormStore[E]) Save(ctx context.Context, entity E) error {
	return s.saveOne(ctx, entity)
}

// Atomic runs fn in a gorm transaction.
func (s *GormStore[E]) Atomic(ctx context.Context, fn func(tx Store[E]) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore[E]{gormBase: s.withDB(tx), key: s.key})
	})
}

// GormPairStore implements PairStore over gorm.
type GormPairStore[E any] struct {
	gormBase[E]
	left  string
	right string
}

// NewModelPairStore creates a pair store for the gorm join model M.
func NewModelPairStore[M any](db *gorm.DB, leftColumn, rightColumn string) *GormPairStore[*M] {
	return &GormPairStore[*M]{
		gormBase: gormBase[*M]{
			db:    db,
			scope: func(tx *gorm.DB) *gorm.DB { return tx.Model(new(M)) },
			save:  func(tx *gorm.DB, m *M) error { return tx.Save(m).Error },
		},
		left:  leftColumn,
		right: rightColumn,
	}
}

// NewTablePairStore creates a pair store for dynamic rows of a join table.
func NewTablePairStore(db *gorm.DB, table, leftColumn, rightColumn string) *GormPairStore[Row] {
	return &GormPairStore[Row]{
		gormBase: gormBase[Row]{
			db:    db,
			scope: func(tx *gorm.DB) *gorm.DB { return tx.Table(table) },
			save:  saveRow(table, leftColumn, rightColumn),
		},
		left:  leftColumn,
		right: rightColumn,
	}
}

// FindPairs filters on both reference columns in one query.
func (s *GormPairStore[E]) FindPairs(ctx context.Context, leftIDs, rightIDs []any) ([]E, error) {
	var out []E
	if len(leftIDs) == 0 || len(rightIDs) == 0 {
		return out, nil
	}
	err := s.query(ctx).
		Where(map[string]any{s.left: leftIDs}).
		Where(map[string]any{s.right: rightIDs}).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find pairs: %w", err)
	}
	return out, nil
}

// BulkInsert inserts entities in one statement.
func (s *GormPairStore[E]) BulkInsert(ctx context.Context, entities []E) error {
	return s.insert(ctx, entities)
}

// Save persists one entity.
func (s *GormPairStore[E]) Save(ctx context.Context, entity E) error {
	return s.saveOne(ctx, entity)
}

// Atomic runs fn in a gorm transaction.
func (s *GormPairStore[E]) Atomic(ctx context.Context, fn func(tx PairStore[E]) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormPairStore[E]{gormBase: s.withDB(tx), left: s.left, right: s.right})
	})
}

// saveRow updates one dynamic row matched on the given columns.
// The match columns themselves are not rewritten.
func saveRow(table string, match ...string) func(tx *gorm.DB, row Row) error {
	return func(tx *gorm.DB, row Row) error {
		cond := make(map[string]any, len(match))
		for _, col := range match {
			v, ok := row[col]
			if !ok || v == nil {
				return fmt.Errorf("row of %s has no value for %s", table, col)
			}
			cond[col] = v
		}

		updates := make(map[string]any, len(row))
		for col, v := range row {
			if _, isMatch := cond[col]; !isMatch {
				updates[col] = v
			}
		}
		if len(updates) == 0 {
			return nil
		}

		return tx.Table(table).Where(cond).Updates(updates).Error
	}
}
