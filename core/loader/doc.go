// Package loader registers and loads server features.
//
// Each feature implements the Feature interface:
//
//	type Feature interface {
//	    Name() string
//	    IsEnabled() bool
//	    Load(app fiber.Router) error
//	}
//
// The Manager loads enabled features in registration order. A feature that
// fails to load aborts server startup.
package loader
