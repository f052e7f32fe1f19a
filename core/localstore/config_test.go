package localstore

import (
	"testing"

	"lesson-sync/core/database"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Database(t *testing.T) {
	shared := database.Config{Host: "db", Driver: "mysql", Name: "remote", TimeoutSeconds: 5}

	got := Config{Driver: "sqlite", Path: "data/local.db"}.Database(shared)

	assert.Equal(t, "sqlite", got.Driver)
	assert.Equal(t, "data/local.db", got.Name)
	assert.Equal(t, 5, got.TimeoutSeconds)
	assert.Equal(t, "mysql", shared.Driver, "shared settings are not modified")
}
