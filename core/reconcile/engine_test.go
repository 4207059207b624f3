package reconcile

import (
	"context"
	"path/filepath"
	"testing"

	"data-loader/core/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(database.Config{
		Driver: database.DriverSQLite,
		Name:   filepath.Join(t.TempDir(), "reconcile.db"),
	})
	require.NoError(t, err)
	return db
}

func itemsTable(t *testing.T, db *gorm.DB, seed ...string) {
	t.Helper()
	require.NoError(t, db.Exec("CREATE TABLE items (id INTEGER PRIMARY KEY, name TEXT, qty INTEGER)").Error)
	for _, stmt := range seed {
		require.NoError(t, db.Exec(stmt).Error)
	}
}

func itemNames(t *testing.T, db *gorm.DB) map[int64]string {
	t.Helper()
	var rows []struct {
		ID   int64
		Name string
	}
	require.NoError(t, db.Table("items").Order("id").Find(&rows).Error)
	out := make(map[int64]string, len(rows))
	for _, r := range rows {
		out[r.ID] = r.Name
	}
	return out
}

func TestReconcileRows(t *testing.T) {
	ctx := context.Background()
	adapter := RowAdapter{Table: "items", Key: "id"}

	t.Run("DuplicateKeyScenario", func(t *testing.T) {
		db := openDB(t)
		itemsTable(t, db)

		records := []Record{
			{"id": 1, "name": "A"},
			{"id": 1, "name": "B"},
			{"id": 2, "name": "C"},
		}
		res, err := Reconcile(ctx, adapter, NewTableStore(db, "items", "id"), records, Options{})
		require.NoError(t, err)

		assert.Equal(t, 3, res.Considered)
		assert.Equal(t, 2, res.Created)
		assert.Equal(t, 1, res.Duplicates)
		assert.Equal(t, map[int64]string{1: "A", 2: "C"}, itemNames(t, db))
	})

	t.Run("ZeroUpdateScenario", func(t *testing.T) {
		db := openDB(t)
		itemsTable(t, db, "INSERT INTO items (id, name) VALUES (1, 'A')")

		res, err := Reconcile(ctx, adapter, NewTableStore(db, "items", "id"), []Record{{"id": 1, "name": "A"}}, Options{})
		require.NoError(t, err)
		assert.Zero(t, res.Updated)
		assert.Equal(t, 1, res.Unchanged)
	})

	t.Run("SingleUpdateScenario", func(t *testing.T) {
		db := openDB(t)
		itemsTable(t, db, "INSERT INTO items (id, name) VALUES (1, 'A')")

		res, err := Reconcile(ctx, adapter, NewTableStore(db, "items", "id"), []Record{{"id": 1, "name": "Z"}}, Options{})
		require.NoError(t, err)
		assert.Equal(t, 1, res.Updated)
		assert.Zero(t, res.Created)
		assert.Equal(t, map[int64]string{1: "Z"}, itemNames(t, db))
	})

	t.Run("Idempotent", func(t *testing.T) {
		db := openDB(t)
		itemsTable(t, db, "INSERT INTO items (id, name, qty) VALUES (1, 'A', 1)")
		store := NewTableStore(db, "items", "id")

		// cells arrive as text; the stored integers must compare equal
		records := []Record{
			{"id": "1", "name": "A", "qty": "4"},
			{"id": "2", "name": "B", "qty": "5"},
			{"id": "3", "name": "C", "qty": nil},
		}

		first, err := Reconcile(ctx, adapter, store, records, Options{ChunkSize: 2})
		require.NoError(t, err)
		assert.Equal(t, 2, first.Created)
		assert.Equal(t, 1, first.Updated)

		second, err := Reconcile(ctx, adapter, store, records, Options{ChunkSize: 2})
		require.NoError(t, err)
		assert.Zero(t, second.Created)
		assert.Zero(t, second.Updated)
		assert.Equal(t, 3, second.Unchanged)
	})

	t.Run("DryRun", func(t *testing.T) {
		db := openDB(t)
		itemsTable(t, db, "INSERT INTO items (id, name) VALUES (1, 'A')")

		records := []Record{{"id": 1, "name": "Z"}, {"id": 2, "name": "B"}}
		res, err := Reconcile(ctx, adapter, NewTableStore(db, "items", "id"), records, Options{DryRun: true, Scope: ScopeNone})
		require.NoError(t, err)

		assert.Equal(t, 1, res.Created)
		assert.Equal(t, 1, res.Updated)
		assert.Equal(t, map[int64]string{1: "A"}, itemNames(t, db))
	})

	t.Run("MissingKeyField", func(t *testing.T) {
		db := openDB(t)
		itemsTable(t, db)

		_, err := Reconcile(ctx, adapter, NewTableStore(db, "items", "id"), []Record{{"name": "A"}}, Options{})
		assert.ErrorIs(t, err, ErrNoKeyField)
	})
}

func TestReconcileScope(t *testing.T) {
	ctx := context.Background()
	adapter := RowAdapter{Table: "items", Key: "id"}
	records := []Record{{"id": 1, "name": "A"}, {"id": 3, "name": "C"}}

	tests := []struct {
		scope Scope
		keys  []string
	}{
		{ScopeAll, []string{"1", "2", "3"}},
		{ScopeReferenced, []string{"1", "3"}},
		{ScopeNone, nil},
	}

	for _, tt := range tests {
		db := openDB(t)
		itemsTable(t, db, "INSERT INTO items (id, name) VALUES (1, 'A'), (2, 'B')")

		res, err := Reconcile(ctx, adapter, NewTableStore(db, "items", "id"), records, Options{Scope: tt.scope})
		require.NoError(t, err)

		var keys []string
		for k := range res.Index {
			keys = append(keys, k)
		}
		assert.ElementsMatch(t, tt.keys, keys, "scope %d", tt.scope)
	}
}

type author struct {
	ID    uint   `gorm:"primaryKey"`
	Code  string `gorm:"uniqueIndex"`
	Name  string
	Pages int
}

func TestReconcileModels(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	require.NoError(t, db.AutoMigrate(&author{}))

	adapter, err := NewStructAdapter[author]("code")
	require.NoError(t, err)
	assert.Equal(t, "authors", adapter.Name())
	store := NewModelStore[author](db, "code")

	records := []Record{
		{"code": "A1", "name": "Austen", "pages": "320"},
		{"code": "A2", "name": "Bronte", "Pages": 10},
	}
	res, err := Reconcile(ctx, adapter, store, records, Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)
	require.Contains(t, res.Index, "A1")
	assert.NotZero(t, res.Index["A1"].ID)
	assert.Equal(t, 320, res.Index["A1"].Pages)

	res, err = Reconcile(ctx, adapter, store, []Record{{"code": "A2", "name": "Brontë"}}, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Updated)

	var got author
	require.NoError(t, db.Where("code = ?", "A2").First(&got).Error)
	assert.Equal(t, "Brontë", got.Name)
	assert.Equal(t, 10, got.Pages)

	_, err = Reconcile(ctx, adapter, store, []Record{{"code": "A3", "shelf": "x"}}, Options{})
	assert.ErrorContains(t, err, `no field "shelf"`)
}

func TestNewStructAdapterUnknownKey(t *testing.T) {
	_, err := NewStructAdapter[author]("isbn")
	assert.ErrorContains(t, err, `no field "isbn"`)
}

func TestRowLookup(t *testing.T) {
	index := map[string]Row{"A1": {"id": int64(4)}, "A2": {"id": nil}}
	lookup := RowLookup(index, "id")

	id, ok := lookup.Resolve("A1")
	assert.True(t, ok)
	assert.Equal(t, int64(4), id)

	_, ok = lookup.Resolve("A2")
	assert.False(t, ok)
	_, ok = lookup.Resolve("A9")
	assert.False(t, ok)
}
