// Package config loads application configuration with viper.
//
// Every setting has a default declared in a `default` struct tag next to its
// mapstructure key. Values are overridden from the environment (SECTION_KEY)
// and from a .env file loaded with godotenv. Credentials have no defaults and
// only ever come from the environment.
//
// # Sections
//
//   - server: HTTP port, API key, principal header
//   - log: level, format, rotating file
//   - local: local store driver and path
//   - remote: remote backend (sql or object)
//   - database: SQL remote connection
//   - storage: object remote (minio) connection
//   - sync: throttle interval, principal, watcher, collections
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    return err
//	}
//	interval, err := cfg.Sync.Interval()
package config
