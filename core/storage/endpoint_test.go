package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEndpointHost(t *testing.T) {
	tests := []struct {
		in     string
		host   string
		secure bool
	}{
		{"localhost:9000", "localhost:9000", false},
		{"http://localhost:9000/", "localhost:9000", false},
		{"https://s3.amazonaws.com", "s3.amazonaws.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			host, secure := endpointHost(tt.in)
			assert.Equal(t, tt.host, host)
			assert.Equal(t, tt.secure, secure)
		})
	}
}

func TestConfigTimeout(t *testing.T) {
	assert.Equal(t, 30*time.Second, Config{}.Timeout())
	assert.Equal(t, 5*time.Second, Config{TimeoutSeconds: 5}.Timeout())
}
