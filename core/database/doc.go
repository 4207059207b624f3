// Package database handles database connections and schema inspection.
//
// It wraps GORM to open MySQL or SQLite connections from the application's
// configuration.
//
// # Connect
//
// Connect selects the dialector from Config.Driver, applies the pool settings
// suited to it and pings the database before returning. SQLite is limited to
// one open connection.
//
// # Schema Inspection
//
// GetTableColumns and GetColumnSet report the columns of a table. The job
// preflight uses them to verify that every mapped column exists, and pair
// steps use them to detect an is_primary column.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	columns, err := database.GetColumnSet(db, "books")
package database
