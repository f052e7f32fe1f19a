package server_test

import (
	"testing"
	"time"

	"lesson-sync/core/server"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     server.Config
		wantErr bool
	}{
		{"Valid", server.Config{Port: "8080", ApiKey: "secret"}, false},
		{"MissingKey", server.Config{Port: "8080"}, true},
		{"MissingPort", server.Config{ApiKey: "secret"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_Address(t *testing.T) {
	assert.Equal(t, ":9090", server.Config{Port: "9090"}.Address())
}

func TestConfig_ShutdownTimeout(t *testing.T) {
	assert.Equal(t, 10*time.Second, server.Config{}.ShutdownTimeout())
	assert.Equal(t, 3*time.Second, server.Config{ShutdownTimeoutSeconds: 3}.ShutdownTimeout())
}
