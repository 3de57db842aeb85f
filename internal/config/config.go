// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Port                     string  `mapstructure:"PORT"`
	Env                      string  `mapstructure:"APP_ENV"`
	DBHost                   string  `mapstructure:"DB_HOST"`
	DBPort                   string  `mapstructure:"DB_PORT"`
	DBUser                   string  `mapstructure:"DB_USER"`
	DBPassword               string  `mapstructure:"DB_PASSWORD"`
	DBName                   string  `mapstructure:"DB_NAME"`
	DBSSLMode                string  `mapstructure:"DB_SSLMODE"`
	DBMaxOpenConns           int     `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns           int     `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBConnMaxLifetimeMinutes int     `mapstructure:"DB_CONN_MAX_LIFETIME_MINUTES"`
	RedisURL                 string  `mapstructure:"REDIS_URL"`
	AllowedOrigins           string  `mapstructure:"ALLOWED_ORIGINS"`
	FeatureFlags             string  `mapstructure:"FEATURE_FLAGS"`
	JWTSecret                string  `mapstructure:"JWT_SECRET"`
	EnableProxyHeader        bool    `mapstructure:"ENABLE_PROXY_HEADER"`
	TracingEnabled           bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter          string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint             string  `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTELServiceName          string  `mapstructure:"OTEL_SERVICE_NAME"`
	OTELTracesSamplerRatio   float64 `mapstructure:"OTEL_TRACES_SAMPLER_RATIO"`

	// Gateway adapter.
	GatewayToken string `mapstructure:"GATEWAY_TOKEN"`
	GatewayBase  string `mapstructure:"GATEWAY_BASE_URL"`

	// Moderation/admin surface.
	AdminUserIDs       []int `mapstructure:"ADMIN_USER_IDS"`
	ModeratorChannelID int   `mapstructure:"MODERATOR_CHANNEL_ID"`
	MaxStrikes         int   `mapstructure:"MAX_STRIKES"`

	// Matchmaking/lifecycle tuning.
	RoomRetentionHours     int     `mapstructure:"ROOM_RETENTION_HOURS"`
	ExpirySweepSeconds     int     `mapstructure:"EXPIRY_SWEEP_SECONDS"`
	QueueScanSeconds       int     `mapstructure:"QUEUE_SCAN_SECONDS"`
	BindingReconcileMins   int     `mapstructure:"BINDING_RECONCILE_MINUTES"`
	ReferralPremiumDays    int     `mapstructure:"REFERRAL_PREMIUM_DAYS"`
	BroadcastPaceMillis    int     `mapstructure:"BROADCAST_PACE_MILLIS"`
	AdvancedMatchingWeight float64 `mapstructure:"ADVANCED_MATCHING_ROLLOUT"`
}

// RoomRetention returns the configured room retention as a time.Duration.
func (c *Config) RoomRetention() time.Duration {
	return time.Duration(c.RoomRetentionHours) * time.Hour
}

// ExpirySweepInterval returns the configured expiry-sweep cadence.
func (c *Config) ExpirySweepInterval() time.Duration {
	return time.Duration(c.ExpirySweepSeconds) * time.Second
}

// QueueScanInterval returns the configured queue-scan cadence.
func (c *Config) QueueScanInterval() time.Duration {
	return time.Duration(c.QueueScanSeconds) * time.Second
}

// BindingReconcileInterval returns the configured binding-reconciliation cadence.
func (c *Config) BindingReconcileInterval() time.Duration {
	return time.Duration(c.BindingReconcileMins) * time.Minute
}

// BroadcastPace returns the configured inter-message pacing for admin broadcasts.
func (c *Config) BroadcastPace() time.Duration {
	return time.Duration(c.BroadcastPaceMillis) * time.Millisecond
}

// ReferralLink builds the `<gateway-base>?start=ref_<user_id>` link
// format a user's /referral or /invite command displays (spec §6).
func (c *Config) ReferralLink(userID uint) string {
	return fmt.Sprintf("%s?start=ref_%d", c.GatewayBase, userID)
}

// IsAdmin reports whether userID is one of the configured admin IDs.
func (c *Config) IsAdmin(userID uint) bool {
	for _, id := range c.AdminUserIDs {
		if id >= 0 && uint(id) == userID {
			return true
		}
	}
	return false
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// Initial read to get APP_ENV if set in base config. We intentionally
	// ignore this error as the config file may not exist yet.
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	viper.SetDefault("PORT", "8375")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "anonrelay")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 5)
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")
	viper.SetDefault("FEATURE_FLAGS", "advanced_matching=on")
	viper.SetDefault("JWT_SECRET", "your-secret-key-change-in-production")
	viper.SetDefault("ENABLE_PROXY_HEADER", false)
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318")
	viper.SetDefault("OTEL_SERVICE_NAME", "anonrelay")
	viper.SetDefault("OTEL_TRACES_SAMPLER_RATIO", 1.0)

	viper.SetDefault("GATEWAY_TOKEN", "")
	viper.SetDefault("GATEWAY_BASE_URL", "https://t.me/anonrelay_bot")
	viper.SetDefault("ADMIN_USER_IDS", []int{})
	viper.SetDefault("MODERATOR_CHANNEL_ID", 0)
	viper.SetDefault("MAX_STRIKES", 3)
	viper.SetDefault("ROOM_RETENTION_HOURS", 24)
	viper.SetDefault("EXPIRY_SWEEP_SECONDS", 30)
	viper.SetDefault("QUEUE_SCAN_SECONDS", 5)
	viper.SetDefault("BINDING_RECONCILE_MINUTES", 15)
	viper.SetDefault("REFERRAL_PREMIUM_DAYS", 3)
	viper.SetDefault("BROADCAST_PACE_MILLIS", 50)
	viper.SetDefault("ADVANCED_MATCHING_ROLLOUT", 1.0)

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}

	if c.DBMaxOpenConns < 0 {
		return errors.New("DB_MAX_OPEN_CONNS must be >= 0")
	}
	if c.DBMaxIdleConns < 0 {
		return errors.New("DB_MAX_IDLE_CONNS must be >= 0")
	}
	if c.DBConnMaxLifetimeMinutes < 0 {
		return errors.New("DB_CONN_MAX_LIFETIME_MINUTES must be >= 0")
	}
	if c.DBMaxOpenConns > 0 && c.DBMaxIdleConns > c.DBMaxOpenConns {
		return errors.New("DB_MAX_IDLE_CONNS cannot be greater than DB_MAX_OPEN_CONNS")
	}
	if c.MaxStrikes <= 0 {
		return errors.New("MAX_STRIKES must be greater than 0")
	}
	if c.RoomRetentionHours <= 0 {
		return errors.New("ROOM_RETENTION_HOURS must be greater than 0")
	}
	if c.ExpirySweepSeconds <= 0 || c.QueueScanSeconds <= 0 || c.BindingReconcileMins <= 0 {
		return errors.New("lifecycle sweep cadences must be greater than 0")
	}
	if c.AdvancedMatchingWeight < 0 || c.AdvancedMatchingWeight > 1 {
		return errors.New("ADVANCED_MATCHING_ROLLOUT must be between 0 and 1")
	}

	isProduction := c.Env == "production" || c.Env == "prod"

	c.DBSSLMode = strings.ToLower(strings.TrimSpace(c.DBSSLMode))

	if isProduction {
		if c.DBConnMaxLifetimeMinutes < 1 {
			return errors.New("DB_CONN_MAX_LIFETIME_MINUTES must be >= 1 in production")
		}
		if c.JWTSecret == "your-secret-key-change-in-production" {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
		if c.DBPassword == "password" || c.DBPassword == "" {
			return errors.New("a strong DB_PASSWORD is required in production")
		}
		if c.GatewayToken == "" {
			return errors.New("GATEWAY_TOKEN is required in production")
		}
		if c.AllowedOrigins == "*" {
			log.Println("WARNING: ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
		}
		if c.RedisURL == "" {
			return errors.New("REDIS_URL is required in production (presence, rate limiting, and the ops dashboard depend on it)")
		}
	} else if len(c.JWTSecret) < 32 {
		log.Println("WARNING: JWT_SECRET is shorter than 32 characters. Consider using a stronger secret for production.")
	}

	return nil
}
