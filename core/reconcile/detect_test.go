package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestChangedFields(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		rec    Record
		stored Record
		want   []string
	}{
		{"Identical", Record{"id": 1, "name": "A"}, Record{"id": int64(1), "name": "A"}, nil},
		{"StringVsNumber", Record{"qty": "3"}, Record{"qty": int64(3)}, nil},
		{"BoolVsInt", Record{"on": true}, Record{"on": int64(1)}, nil},
		{"NilVsEmpty", Record{"note": nil}, Record{"note": ""}, nil},
		{"TimeZones", Record{"at": ts}, Record{"at": ts.In(time.FixedZone("X", 3600))}, nil},
		{"OneField", Record{"id": 1, "name": "Z"}, Record{"id": 1, "name": "A"}, []string{"name"}},
		{"Sorted", Record{"b": 1, "a": 1, "c": 1}, Record{}, []string{"a", "b", "c"}},
		{"StoredExtraIgnored", Record{"id": 1}, Record{"id": 1, "other": "x"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ChangedFields(tt.rec, tt.stored))
		})
	}
}

func TestDetectChanges(t *testing.T) {
	ctx := context.Background()
	adapter := RowAdapter{Table: "items", Key: "id"}

	t.Run("EmptyInputSkipsStore", func(t *testing.T) {
		store := newMemStore("id")
		intents, err := DetectChanges(ctx, nil, adapter, store, Options{})
		require.NoError(t, err)
		assert.Nil(t, intents)
		assert.Empty(t, store.finds)
	})

	t.Run("ZeroUpdates", func(t *testing.T) {
		store := newMemStore("id", Row{"id": 1, "name": "A"})
		intents, err := DetectChanges(ctx, []Record{{"id": 1, "name": "A"}}, adapter, store, Options{})
		require.NoError(t, err)
		assert.Empty(t, intents)
	})

	t.Run("SingleUpdate", func(t *testing.T) {
		stored := Row{"id": 1, "name": "A"}
		store := newMemStore("id", stored)
		intents, err := DetectChanges(ctx, []Record{{"id": 1, "name": "Z"}}, adapter, store, Options{})
		require.NoError(t, err)

		require.Len(t, intents, 1)
		assert.Equal(t, []string{"name"}, intents[0].Changed)
		assert.Equal(t, "Z", intents[0].Values["name"])
		assert.Equal(t, "A", intents[0].Entity["name"], "detection does not mutate the entity")
	})

	t.Run("HeterogeneousRecords", func(t *testing.T) {
		store := newMemStore("id",
			Row{"id": 1, "name": "A", "qty": 1},
			Row{"id": 2, "name": "B", "qty": 2},
		)
		records := []Record{
			{"id": 1, "name": "A"},
			{"id": 2, "qty": 5},
		}
		intents, err := DetectChanges(ctx, records, adapter, store, Options{})
		require.NoError(t, err)
		require.Len(t, intents, 1)
		assert.Equal(t, []string{"qty"}, intents[0].Changed)
	})

	t.Run("KeyListsAreChunked", func(t *testing.T) {
		store := newMemStore("id")
		var records []Record
		for i := 0; i < 5; i++ {
			store.rows[KeyOf("id")(Record{"id": i})] = Row{"id": i}
			records = append(records, Record{"id": i})
		}
		_, err := DetectChanges(ctx, records, adapter, store, Options{ChunkSize: 2})
		require.NoError(t, err)
		assert.Len(t, store.finds, 3)
	})

	t.Run("VanishedEntity", func(t *testing.T) {
		core, logs := observer.New(zapcore.WarnLevel)
		store := newMemStore("id")
		intents, err := DetectChanges(ctx, []Record{{"id": 9}}, adapter, store, Options{Logger: zap.New(core)})
		require.NoError(t, err)
		assert.Empty(t, intents)
		assert.Equal(t, 1, logs.FilterMessage("Stored entity disappeared before comparison").Len())
	})
}
