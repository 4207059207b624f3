package reconcile

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"data-loader/core/utils"

	"gorm.io/gorm/schema"
)

// Adapter defines the entity-specific logic used by the engine.
// Each adapter describes how to key, build, compare and update one entity type.
type Adapter[E any] interface {
	// Name returns the entity type name used in logs and results.
	Name() string

	// KeyField returns the record field (and entity column) holding the key.
	KeyField() string

	// EntityKey returns the canonical key of a stored entity.
	// It must agree with utils.Stringify of the record key field.
	EntityKey(entity E) string

	// New materialises a new entity from an input record.
	New(rec Record) (E, error)

	// Values returns the stored field values of an entity for comparison.
	// Fields absent from the result compare as empty.
	Values(entity E) Record

	// Apply overwrites the record fields onto the entity.
	Apply(entity E, rec Record) error
}

// PairAdapter defines the logic for join entities identified by two foreign keys.
type PairAdapter[E any] interface {
	// Name returns the entity type name used in logs and results.
	Name() string

	// LeftField returns the record field holding the natural key of the left reference.
	LeftField() string

	// RightField returns the record field holding the natural key of the right reference.
	RightField() string

	// Refs returns the stored ids of both references.
	Refs(entity E) (left, right any)

	// New builds a join entity from resolved reference ids.
	New(left, right any, primary bool) (E, error)

	// SupportsPrimary reports whether the entity type carries a primary flag.
	SupportsPrimary() bool

	// Primary returns the stored primary flag.
	Primary(entity E) bool

	// SetPrimary overwrites the primary flag.
	SetPrimary(entity E, primary bool)
}

// PrimaryField is the record field read by the dual-key reconciler.
const PrimaryField = "is_primary"

// recordPrimary returns the primary flag of a record, true when absent.
func recordPrimary(rec Record) bool {
	v, ok := rec[PrimaryField]
	if !ok || v == nil {
		return true
	}
	return utils.ToBool(v)
}

// RowAdapter adapts dynamic table rows. Records are written as-is, so field
// names must be column names.
type RowAdapter struct {
	// Table is the table name.
	Table string
	// Key is the key column.
	Key string
}

// Name returns the table name.
func (a RowAdapter) Name() string { return a.Table }

// KeyField returns the key column.
func (a RowAdapter) KeyField() string { return a.Key }

// EntityKey returns the canonical key of a row.
func (a RowAdapter) EntityKey(r Row) string { return utils.Stringify(r[a.Key]) }

// New copies the record into a new row.
func (a RowAdapter) New(rec Record) (Row, error) {
	row := make(Row, len(rec))
	for k, v := range rec {
		row[k] = v
	}
	return row, nil
}

// Values returns the row itself.
func (a RowAdapter) Values(r Row) Record { return Record(r) }

// Apply writes the record fields into the row.
func (a RowAdapter) Apply(r Row, rec Record) error {
	for k, v := range rec {
		r[k] = v
	}
	return nil
}

// RowPairAdapter adapts dynamic join-table rows.
type RowPairAdapter struct {
	// Table is the join table name.
	Table string
	// LeftSource and RightSource are the record fields holding natural keys.
	LeftSource  string
	RightSource string
	// LeftColumn and RightColumn are the foreign-key columns.
	LeftColumn  string
	RightColumn string
	// PrimaryColumn is the primary flag column, empty when the table has none.
	PrimaryColumn string
}

// Name returns the table name.
func (a RowPairAdapter) Name() string { return a.Table }

// LeftField returns the record field of the left natural key.
func (a RowPairAdapter) LeftField() string { return a.LeftSource }

// RightField returns the record field of the right natural key.
func (a RowPairAdapter) RightField() string { return a.RightSource }

// Refs returns both foreign-key values of a row.
func (a RowPairAdapter) Refs(r Row) (any, any) { return r[a.LeftColumn], r[a.RightColumn] }

// New builds a join row.
func (a RowPairAdapter) New(left, right any, primary bool) (Row, error) {
	row := Row{a.LeftColumn: left, a.RightColumn: right}
	if a.SupportsPrimary() {
		row[a.PrimaryColumn] = primary
	}
	return row, nil
}

// SupportsPrimary reports whether a primary column is configured.
func (a RowPairAdapter) SupportsPrimary() bool { return a.PrimaryColumn != "" }

// Primary returns the stored primary flag.
func (a RowPairAdapter) Primary(r Row) bool { return utils.ToBool(r[a.PrimaryColumn]) }

// SetPrimary overwrites the primary flag.
func (a RowPairAdapter) SetPrimary(r Row, primary bool) { r[a.PrimaryColumn] = primary }

// StructAdapter adapts a gorm model using its parsed schema. Record fields
// are matched against column names (or Go field names) of the model.
type StructAdapter[M any] struct {
	schema *schema.Schema
	key    *schema.Field
}

// NewStructAdapter parses the model schema and resolves the key field.
func NewStructAdapter[M any](keyField string) (*StructAdapter[M], error) {
	s, err := schema.Parse(new(M), &sync.Map{}, schema.NamingStrategy{})
	if err != nil {
		return nil, fmt.Errorf("failed to parse model schema: %w", err)
	}

	key := s.LookUpField(keyField)
	if key == nil {
		return nil, fmt.Errorf("model %s has no field %q", s.Name, keyField)
	}

	return &StructAdapter[M]{schema: s, key: key}, nil
}

// Name returns the model table name.
func (a *StructAdapter[M]) Name() string { return a.schema.Table }

// KeyField returns the key column name.
func (a *StructAdapter[M]) KeyField() string { return a.key.DBName }

// EntityKey returns the canonical key of a model.
func (a *StructAdapter[M]) EntityKey(m *M) string {
	v, _ := a.key.ValueOf(context.Background(), reflect.ValueOf(m).Elem())
	return utils.Stringify(v)
}

// New builds a model from a record.
func (a *StructAdapter[M]) New(rec Record) (*M, error) {
	m := new(M)
	if err := a.Apply(m, rec); err != nil {
		return nil, err
	}
	return m, nil
}

// Values returns the field values of a model under both the column name and
// the Go field name, matching what Apply accepts.
func (a *StructAdapter[M]) Values(m *M) Record {
	ctx := context.Background()
	rv := reflect.ValueOf(m).Elem()
	out := make(Record, 2*len(a.schema.Fields))
	for _, f := range a.schema.Fields {
		if f.DBName == "" {
			continue
		}
		v, _ := f.ValueOf(ctx, rv)
		out[f.DBName] = v
		out[f.Name] = v
	}
	return out
}

// Apply sets every record field on the model.
func (a *StructAdapter[M]) Apply(m *M, rec Record) error {
	ctx := context.Background()
	rv := reflect.ValueOf(m).Elem()
	for name, v := range rec {
		f := a.schema.LookUpField(name)
		if f == nil {
			return fmt.Errorf("model %s has no field %q", a.schema.Name, name)
		}
		if err := f.Set(ctx, rv, v); err != nil {
			return fmt.Errorf("failed to set %s.%s: %w", a.schema.Name, name, err)
		}
	}
	return nil
}
