// Package config loads process configuration from config.yaml and
// WEALTHGATE_* environment overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// GatewayMode selects the live gateway or the canned mock path. Injected into
// the orchestrator at construction; never read from ambient global state.
type GatewayMode string

const (
	GatewayModeLive GatewayMode = "live"
	GatewayModeMock GatewayMode = "mock"
)

// Config is the full process configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Gateway   GatewayConfig   `mapstructure:"gateway"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Reconcile ReconcileConfig `mapstructure:"reconcile"`
	LogLevel  string          `mapstructure:"log_level"`
}

// ServerConfig holds the inbound HTTP server settings.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds the gorm/postgres settings.
type DatabaseConfig struct {
	DSN             string `mapstructure:"dsn"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

// RedisConfig holds the redis settings used for the reference-number
// sequence and the token cache.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// KafkaConfig holds the lifecycle event publisher settings. Empty broker
// list disables publishing.
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// GatewayConfig holds the order-processing gateway endpoints and transport
// behaviour. Mode selects mock vs live once per deployment.
type GatewayConfig struct {
	Mode GatewayMode `mapstructure:"mode"`
	// LegacyBaseURL is the envelope/pipe transport endpoint root.
	LegacyBaseURL string `mapstructure:"legacy_base_url"`
	// RESTBaseURL is the JSON transport endpoint root.
	RESTBaseURL string        `mapstructure:"rest_base_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	// TokenTTL bounds the order-entry token cache lifetime.
	TokenTTL time.Duration `mapstructure:"token_ttl"`
	// ServiceTokenTTL bounds the additional-services token cache lifetime.
	ServiceTokenTTL time.Duration `mapstructure:"service_token_ttl"`
	// CredentialSecret is the master secret pass-keys are encrypted under.
	CredentialSecret string `mapstructure:"credential_secret"`
}

// AuthConfig holds the inbound API session settings.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

// ReconcileConfig holds the stuck-order sweep settings.
type ReconcileConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	// Threshold is how long an order may sit in CREATED before it is
	// reported as stuck.
	Threshold time.Duration `mapstructure:"threshold"`
}

// Load reads config.yaml from the working directory (or the path named by
// WEALTHGATE_CONFIG) and applies environment overrides.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/wealthgate")
	v.SetEnvPrefix("WEALTHGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Env-only operation is allowed; a missing file is not fatal.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", 15*time.Second)
	v.SetDefault("log_level", "info")
	v.SetDefault("gateway.mode", string(GatewayModeLive))
	v.SetDefault("gateway.timeout", 30*time.Second)
	v.SetDefault("gateway.token_ttl", 4*time.Minute)
	v.SetDefault("gateway.service_token_ttl", 55*time.Minute)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("kafka.topic", "wealthgate.order.events")
	v.SetDefault("reconcile.interval", 15*time.Minute)
	v.SetDefault("reconcile.threshold", time.Hour)
}

func (c *Config) validate() error {
	switch c.Gateway.Mode {
	case GatewayModeLive, GatewayModeMock:
	default:
		return fmt.Errorf("invalid gateway mode %q", c.Gateway.Mode)
	}
	if c.Gateway.Mode == GatewayModeLive {
		if c.Gateway.LegacyBaseURL == "" || c.Gateway.RESTBaseURL == "" {
			return fmt.Errorf("live gateway mode requires legacy and rest base URLs")
		}
	}
	return nil
}
