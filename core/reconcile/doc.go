// Package reconcile provides a generic engine for loading an external dataset
// into a persistent record store without ever deleting anything.
//
// A reconciliation run takes a batch of input records for one entity type and:
//   - Partitions them into records whose key already exists in the store and
//     records to create, dropping later duplicates of the same new key
//   - Inserts the new records in bounded chunks (each chunk commits on its own)
//   - Compares every existing record with its stored entity and keeps only
//     those where at least one field differs in its canonical string form
//   - Applies the remaining updates row by row inside a single transaction
//
// # Architecture
//
// The engine is split into three layers:
//
// 1. Engine: Partition, DetectChanges, CreateAll, ApplyUpdates and the
// Reconcile orchestrator. ReconcilePairs is the variant for join entities
// identified by two foreign keys with an optional "is primary" flag.
//
// 2. Adapter: entity-specific logic that extracts keys, builds new entities,
// exposes stored values for comparison and applies updates. RowAdapter works
// on dynamic table rows, StructAdapter on gorm models.
//
// 3. Store: the persistence contract (ListKeys, FindByKeys, BulkInsert, Save,
// Atomic). GormStore implements it over gorm for both models and raw tables.
//
// # Usage Example
//
//	adapter := reconcile.RowAdapter{Table: "authors", Key: "code"}
//	store := reconcile.NewTableStore(db, "authors", "code")
//
//	result, err := reconcile.Reconcile(ctx, adapter, store, records, reconcile.Options{
//	    ChunkSize: 2000,
//	    Scope:     reconcile.ScopeReferenced,
//	    Logger:    log,
//	})
//
//	// Feed the authors index into a later step as a foreign-key lookup
//	authors := reconcile.RowLookup(result.Index, "id")
//
// # Concurrency
//
// A run is sequential. Runs for different entity types may proceed in
// parallel, but callers must serialise runs against the same table: the key
// snapshot taken by Partition is not protected against a concurrent insert.
package reconcile
