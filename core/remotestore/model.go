package remotestore

import "time"

// RemoteRecord is one record row of the SQL remote.
type RemoteRecord struct {
	ID         uint      `gorm:"primaryKey"`
	Owner      string    `gorm:"column:owner;size:191;not null;uniqueIndex:idx_remote_records_identity"`
	Collection string    `gorm:"column:collection;size:64;not null;uniqueIndex:idx_remote_records_identity"`
	Identity   string    `gorm:"column:identity;size:191;not null;uniqueIndex:idx_remote_records_identity"`
	Payload    string    `gorm:"column:payload;type:text;not null"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

// TableName returns the table name.
func (RemoteRecord) TableName() string {
	return "remote_records"
}

// Principal is an account allowed to sync against the SQL remote.
type Principal struct {
	Name      string    `gorm:"column:name;primaryKey;size:191"`
	Active    bool      `gorm:"column:active;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

// TableName returns the table name.
func (Principal) TableName() string {
	return "remote_principals"
}

// Tables lists the remote tables.
var Tables = []string{"remote_records", "remote_principals"}

var requiredColumns = map[string][]string{
	"remote_records":    {"owner", "collection", "identity", "payload", "updated_at"},
	"remote_principals": {"name", "active"},
}
