package localstore

import "lesson-sync/core/database"

// Config holds configuration for the local store.
type Config struct {
	// Driver is the gorm driver of the local database (sqlite, mysql).
	Driver string `mapstructure:"driver" default:"sqlite"`
	// Path is the sqlite file (or the database name for mysql).
	Path string `mapstructure:"path" default:"data/local.db"`
}

// Database returns the connection settings of the local database. Connection
// settings other than the driver and the name come from shared.
func (c Config) Database(shared database.Config) database.Config {
	shared.Driver = c.Driver
	shared.Name = c.Path
	return shared
}
