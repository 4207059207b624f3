package reconcile

import (
	"errors"
	"fmt"

	"data-loader/core/utils"

	"go.uber.org/zap"
)

// ErrNoKeyField is returned when an input record does not carry the key field.
var ErrNoKeyField = errors.New("record has no key field")

// Record is one transformed input row: field name to value.
// Values are strings, numbers, booleans, time.Time or nil.
type Record map[string]any

// Row is a dynamic table row as read from and written to the store.
// It is an alias so gorm recognises it as a plain map.
type Row = map[string]any

// Lookup maps the natural key of a referenced entity to its stored id.
// It is the input of foreign-key rules and of the dual-key reconciler.
type Lookup map[string]any

// Resolve returns the id behind a natural key.
func (l Lookup) Resolve(key string) (any, bool) {
	id, ok := l[key]
	if !ok || id == nil {
		return nil, false
	}
	return id, true
}

// invert maps the canonical string form of each id back to its natural key.
func (l Lookup) invert() map[string]string {
	out := make(map[string]string, len(l))
	for key, id := range l {
		out[utils.Stringify(id)] = key
	}
	return out
}

// NewLookup builds a lookup from a reconcile index using idOf to read the id.
func NewLookup[E any](index map[string]E, idOf func(E) any) Lookup {
	lookup := make(Lookup, len(index))
	for key, entity := range index {
		lookup[key] = idOf(entity)
	}
	return lookup
}

// RowLookup builds a lookup from an index of table rows.
func RowLookup(index map[string]Row, idColumn string) Lookup {
	return NewLookup(index, func(r Row) any { return r[idColumn] })
}

// PairKey identifies a join entity by the natural keys of both ends.
type PairKey struct {
	Left  string
	Right string
}

// String renders the key as "left_right".
func (k PairKey) String() string {
	return fmt.Sprintf("%s_%s", k.Left, k.Right)
}

// UpdateIntent binds an existing entity to the record values to write onto it.
type UpdateIntent[E any] struct {
	// Entity is the stored entity to update.
	Entity E
	// Values are the record fields to overwrite.
	Values Record
	// Changed lists the fields whose value differs from the stored one.
	Changed []string
}

// Scope selects which entities Reconcile returns once the run is done.
type Scope int

const (
	// ScopeAll returns every entity of the type, indexed by key.
	ScopeAll Scope = iota
	// ScopeReferenced returns only the entities referenced by the input.
	ScopeReferenced
	// ScopeNone returns no index.
	ScopeNone
)

// ParseScope converts a configuration value to a Scope.
func ParseScope(s string) (Scope, error) {
	switch s {
	case "", "all":
		return ScopeAll, nil
	case "referenced":
		return ScopeReferenced, nil
	case "none":
		return ScopeNone, nil
	default:
		return ScopeAll, fmt.Errorf("unknown scope %q", s)
	}
}

// Options controls a reconciliation run.
type Options struct {
	// ChunkSize bounds bulk inserts and key lookups. Defaults to DefaultChunkSize.
	ChunkSize int

	// Columns is the number of columns of an inserted row. Inserts are chunked
	// so rows times columns stays within MaxPlaceholders. Zero derives it from
	// the widest record.
	Columns int

	// ProgressInterval is the number of records between progress lines.
	// Defaults to DefaultProgressInterval.
	ProgressInterval int

	// Scope selects the index returned by Reconcile.
	Scope Scope

	// DryRun computes what would be created and updated without writing.
	DryRun bool

	// Logger receives progress and summary lines. Defaults to a no-op logger.
	Logger *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.ProgressInterval <= 0 {
		o.ProgressInterval = DefaultProgressInterval
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Result summarises a single-key reconciliation run.
type Result[E any] struct {
	// Entity is the adapter name.
	Entity string `json:"entity"`

	// Considered is the number of input records.
	Considered int `json:"considered"`

	// Created is the number of inserted entities.
	Created int `json:"created"`

	// Updated is the number of saved update intents.
	Updated int `json:"updated"`

	// Unchanged counts existing records identical to their stored entity.
	Unchanged int `json:"unchanged"`

	// Duplicates counts new records dropped because an earlier record had the same key.
	Duplicates int `json:"duplicates"`

	// Index holds the entities selected by Options.Scope, keyed by entity key.
	Index map[string]E `json:"-"`
}

// PairResult summarises a dual-key reconciliation run.
type PairResult struct {
	// Entity is the adapter name.
	Entity string `json:"entity"`

	// Considered is the number of input records.
	Considered int `json:"considered"`

	// Created is the number of inserted join entities.
	Created int `json:"created"`

	// Updated counts the saves of a changed primary flag. A pair repeated with
	// alternating flags is saved once per change.
	Updated int `json:"updated"`

	// Duplicates counts records dropped because their new pair was already queued.
	Duplicates int `json:"duplicates"`

	// Unresolved counts records whose references were missing from a lookup.
	Unresolved int `json:"unresolved"`
}
