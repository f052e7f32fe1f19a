package remotestore

const (
	DriverSQL    = "sql"
	DriverObject = "object"
)

// Config holds configuration for the remote store.
type Config struct {
	// Driver selects the remote backend (sql, object). The sql remote uses the
	// database section, the object remote the storage section.
	Driver string `mapstructure:"driver" default:"sql"`
}

// IsValidDriver checks if the configured driver is supported.
func (c Config) IsValidDriver() bool {
	switch c.Driver {
	case DriverSQL, DriverObject:
		return true
	default:
		return false
	}
}
