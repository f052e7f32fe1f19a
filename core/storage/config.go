package storage

import "time"

// Config holds configuration for the object storage remote.
// Keys have no defaults; set them through STORAGE_ACCESS_KEY and STORAGE_SECRET_KEY.
type Config struct {
	// Endpoint is the host[:port] of the S3-compatible service. A scheme prefix is ignored.
	Endpoint string `mapstructure:"endpoint" default:"localhost:9000"`
	// AccessKey is the access key ID.
	AccessKey string `mapstructure:"access_key" default:""`
	// SecretKey is the secret access key.
	SecretKey string `mapstructure:"secret_key" default:""`
	// UseSSL enables TLS.
	UseSSL bool `mapstructure:"use_ssl" default:"false"`
	// Bucket holds one JSON object per remote record.
	Bucket string `mapstructure:"bucket" default:"lesson-sync"`
	// Region is the bucket location (e.g., us-east-1).
	Region string `mapstructure:"region" default:""`
	// TimeoutSeconds bounds connection setup, TLS handshakes and the first response byte.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}

// Timeout returns the transport timeout, 30s when unset.
func (c Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}
