// Package config provides configuration management for the application.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the metrics scheduler worker.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type Config struct {
	RabbitMQ RabbitMQConfig
	Logging  LoggingConfig
	Database DatabaseConfig
	Platform PlatformConfig
	Worker   WorkerConfig
	Server   ServerConfig
}

// ServerConfig contains the ops HTTP server configuration.
type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration
}

// DatabaseConfig contains database connection configuration.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type DatabaseConfig struct {
	Host           string
	Name           string
	User           string
	Password       string
	SSLMode        string
	Port           int
	MaxConnections int
	MinConnections int
	MaxIdleTime    time.Duration
	MaxLifetime    time.Duration
}

// RabbitMQConfig contains the snapshot event publisher configuration.
// Publishing is optional; the worker runs without a broker when disabled.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type RabbitMQConfig struct {
	Enabled    bool
	Host       string
	User       string
	Password   string
	Exchange   string
	Queue      string
	RoutingKey string
	Port       int
}

// PlatformConfig contains the social platform API client configuration.
type PlatformConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// WorkerConfig contains the scheduling engine and driver cadences.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type WorkerConfig struct {
	// DiscoveryInterval is the cadence of the new-video discovery sweep.
	DiscoveryInterval time.Duration
	// EnsureInterval is the cadence of the schedule-ensure sweep.
	EnsureInterval time.Duration
	// ProcessInterval is the cadence of the due-measurement sweep.
	ProcessInterval time.Duration
	// FetchDelay throttles consecutive metric fetches within one sweep.
	FetchDelay time.Duration
	// FetchTimeout bounds a single metric fetch call.
	FetchTimeout time.Duration
	// AccountDelay throttles consecutive accounts during discovery.
	AccountDelay time.Duration
	// SweepLimit caps how many videos one ensure sweep considers.
	SweepLimit int
	// RecentVideosLimit caps how many videos discovery requests per account.
	RecentVideosLimit int
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level string
	File  string
}

// Load loads configuration from file and environment variables.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvPrefix("APP")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	// Server
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.shutdowntimeout", 30*time.Second)

	// Database
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "reeltrack")
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.maxconnections", 10)
	viper.SetDefault("database.minconnections", 5)
	viper.SetDefault("database.maxidletime", 10*time.Minute)
	viper.SetDefault("database.maxlifetime", 1*time.Hour)

	// RabbitMQ
	viper.SetDefault("rabbitmq.enabled", false)
	viper.SetDefault("rabbitmq.host", "localhost")
	viper.SetDefault("rabbitmq.port", 5672)
	viper.SetDefault("rabbitmq.user", "guest")
	viper.SetDefault("rabbitmq.password", "guest")
	viper.SetDefault("rabbitmq.exchange", "reeltrack.metrics")
	viper.SetDefault("rabbitmq.queue", "reeltrack.metrics.snapshots")
	viper.SetDefault("rabbitmq.routingkey", "snapshot.recorded")

	// Platform
	viper.SetDefault("platform.baseurl", "http://localhost:9000")
	viper.SetDefault("platform.token", "")
	viper.SetDefault("platform.timeout", 30*time.Second)

	// Worker
	viper.SetDefault("worker.discoveryinterval", 6*time.Hour)
	viper.SetDefault("worker.ensureinterval", 1*time.Hour)
	viper.SetDefault("worker.processinterval", 1*time.Minute)
	viper.SetDefault("worker.fetchdelay", 500*time.Millisecond)
	viper.SetDefault("worker.fetchtimeout", 30*time.Second)
	viper.SetDefault("worker.accountdelay", 10*time.Second)
	viper.SetDefault("worker.sweeplimit", 100)
	viper.SetDefault("worker.recentvideoslimit", 12)

	// Logging
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.file", "")
}
