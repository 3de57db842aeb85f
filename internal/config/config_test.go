package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func baseValidConfig() *Config {
	return &Config{
		Env:                  "development",
		DBSSLMode:            "disable",
		JWTSecret:            "secure-secret-at-least-32-chars-long",
		DBPassword:           "secure-password",
		Port:                 "8080",
		DBConnMaxLifetimeMinutes: 1,
		RedisURL:             "redis://localhost:6379",
		MaxStrikes:           3,
		RoomRetentionHours:   24,
		ExpirySweepSeconds:   30,
		QueueScanSeconds:     5,
		BindingReconcileMins: 15,
	}
}

func TestConfig_ValidateProductionRequirements(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{"development defaults pass", func(c *Config) {}, false},
		{"production requires gateway token", func(c *Config) {
			c.Env = "production"
			c.GatewayToken = ""
		}, true},
		{"production with gateway token and strong secrets passes", func(c *Config) {
			c.Env = "production"
			c.GatewayToken = "tok"
		}, false},
		{"max strikes must be positive", func(c *Config) { c.MaxStrikes = 0 }, true},
		{"room retention must be positive", func(c *Config) { c.RoomRetentionHours = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := baseValidConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadConfig_SSLModeNormalization(t *testing.T) {
	defer os.Unsetenv("APP_ENV")
	defer os.Unsetenv("DB_SSLMODE")
	defer viper.Reset()

	os.Setenv("APP_ENV", "development")
	os.Setenv("DB_SSLMODE", "  DISABLE  ")

	c, err := LoadConfig()
	assert.NoError(t, err)
	assert.Equal(t, "disable", c.DBSSLMode)
}

func TestConfig_IsAdmin(t *testing.T) {
	c := &Config{AdminUserIDs: []int{1, 42}}
	assert.True(t, c.IsAdmin(42))
	assert.False(t, c.IsAdmin(7))
}
