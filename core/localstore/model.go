package localstore

import "time"

// Entry is one key of the local key-value table.
type Entry struct {
	Name      string    `gorm:"column:name;primaryKey;size:191"`
	Value     string    `gorm:"column:value;type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName returns the table name.
func (Entry) TableName() string {
	return "local_entries"
}

// TombstoneKey returns the key holding the tombstones of a collection.
func TombstoneKey(collection string) string {
	return "deleted:" + collection
}
