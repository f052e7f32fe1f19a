package config

import (
	"reflect"
	"strings"
	"time"

	"lesson-sync/core/database"
	"lesson-sync/core/localstore"
	"lesson-sync/core/logger"
	"lesson-sync/core/reconcile"
	"lesson-sync/core/remotestore"
	"lesson-sync/core/server"
	"lesson-sync/core/storage"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Server holds configuration for the HTTP server.
	Server server.Config `mapstructure:"server"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Local holds configuration for the offline-first local store.
	Local localstore.Config `mapstructure:"local"`
	// Remote selects the authoritative remote backend.
	Remote remotestore.Config `mapstructure:"remote"`
	// Database holds configuration for the SQL remote.
	Database database.Config `mapstructure:"database"`
	// Storage holds configuration for the object remote.
	Storage storage.Config `mapstructure:"storage"`
	// Sync holds configuration for reconciliation passes.
	Sync SyncConfig `mapstructure:"sync"`
}

// SyncConfig holds configuration for reconciliation passes.
type SyncConfig struct {
	// MinInterval is the minimum time between non-forced passes of a scope:
	// "session" for once per process, or a Go duration ("15m", "0" to disable).
	MinInterval string `mapstructure:"min_interval" default:"session"`
	// Principal is the remote account used by the CLI and the watcher.
	Principal string `mapstructure:"principal" default:""`
	// Watch triggers a pass when the local store file changes (server only).
	Watch bool `mapstructure:"watch" default:"false"`
	// WatchDebounceMS coalesces bursts of local writes.
	WatchDebounceMS int `mapstructure:"watch_debounce_ms" default:"500"`
	// Collections lists the collections synced by the watcher and by "sync --all".
	Collections []string `mapstructure:"collections" default:"lessons,compositions,progressions"`
}

// Interval parses MinInterval.
func (s SyncConfig) Interval() (time.Duration, error) {
	return reconcile.ParseInterval(s.MinInterval)
}

// WatchDebounce returns the watcher debounce delay.
func (s SyncConfig) WatchDebounce() time.Duration {
	if s.WatchDebounceMS <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(s.WatchDebounceMS) * time.Millisecond
}

// LoadConfig loads configuration from environment variables and the .env file in path.
func LoadConfig(path string) (*Config, error) {
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// A missing .env is fine; production sets the environment directly.
	_ = godotenv.Overload(envPath)

	v := viper.New()

	bindValues(v, Config{}, "")

	// SECTION_KEY -> section.key (e.g. SYNC_MIN_INTERVAL -> sync.min_interval)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// bindValues registers every mapstructure key with its `default` tag so that
// AutomaticEnv can resolve it.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		// Registered even when empty; slices are decoded from comma separated strings.
		v.SetDefault(key, field.Tag.Get("default"))
	}
}
