// Package database opens gorm connections and inspects table schemas.
//
// Connect supports two drivers: mysql for the shared remote store and sqlite
// for the local offline store (and for tests, with ":memory:").
//
// GetTableColumns lets stores verify that an existing table carries the
// columns they need before using it.
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    return err
//	}
//
//	columns, err := database.GetTableColumns(db, "remote_records")
package database
