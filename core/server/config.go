package server

import (
	"fmt"
	"time"
)

// Config holds configuration for the HTTP server.
type Config struct {
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080"`
	// ApiKey is the secret key required to access the API. Set it through SERVER_API_KEY.
	ApiKey string `mapstructure:"api_key" default:""`
	// PrincipalHeader carries the remote principal of a request.
	PrincipalHeader string `mapstructure:"principal_header" default:"X-Principal"`
	// ShutdownTimeoutSeconds bounds graceful shutdown.
	ShutdownTimeoutSeconds int `mapstructure:"shutdown_timeout_seconds" default:"10"`
}

// Address returns the listen address.
func (c Config) Address() string {
	return ":" + c.Port
}

// ShutdownTimeout returns the graceful shutdown timeout.
func (c Config) ShutdownTimeout() time.Duration {
	if c.ShutdownTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// Validate checks the settings required to serve requests.
func (c Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("server port is empty")
	}
	if c.ApiKey == "" {
		return fmt.Errorf("server api key is empty; set SERVER_API_KEY")
	}
	return nil
}
