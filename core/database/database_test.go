package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect(t *testing.T) {
	t.Run("Invalid MySQL connection", func(t *testing.T) {
		cfg := Config{
			Driver:         "mysql",
			Host:           "localhost",
			Port:           9999, // Unused port
			User:           "root",
			Password:       "wrongpassword",
			Name:           "lesson_sync",
			TimeoutSeconds: 2,
		}

		db, err := Connect(cfg)
		assert.Error(t, err)
		assert.Nil(t, db)
	})

	t.Run("SQLite file in new directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "local.db")

		db, err := Connect(Config{Driver: "sqlite", Name: path})
		require.NoError(t, err)
		require.NotNil(t, db)
		assert.FileExists(t, path)
	})

	t.Run("Unsupported driver", func(t *testing.T) {
		_, err := Connect(Config{Driver: "oracle"})
		assert.ErrorContains(t, err, "unsupported database driver")
	})

	t.Run("Empty SQLite path", func(t *testing.T) {
		_, err := Connect(Config{Driver: "sqlite"})
		assert.Error(t, err)
	})
}

func TestMySQLDSN_EncodesPassword(t *testing.T) {
	dsn := mysqlDSN(Config{User: "sync", Password: "p@ss:word", Host: "db", Port: 3306, Name: "lessons"}, 5)
	assert.Contains(t, dsn, "sync:p%40ss%3Aword@tcp(db:3306)/lessons")
	assert.Contains(t, dsn, "timeout=5s")
}
