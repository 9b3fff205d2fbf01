package config

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		setup   func()
		cleanup func()
		wantErr bool
		check   func(*testing.T, *Config)
	}{
		{
			name: "load with defaults (no config file)",
			setup: func() {
				viper.Reset()
			},
			cleanup: func() {},
			wantErr: false,
			check: func(t *testing.T, cfg *Config) {
				if cfg.Server.Port != 8080 {
					t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
				}
				if cfg.Database.Host != "localhost" {
					t.Errorf("Database.Host = %s, want localhost", cfg.Database.Host)
				}
				if cfg.Database.Port != 5432 {
					t.Errorf("Database.Port = %d, want 5432", cfg.Database.Port)
				}
				if cfg.RabbitMQ.Enabled {
					t.Error("RabbitMQ.Enabled = true, want false")
				}
				if cfg.Worker.DiscoveryInterval != 6*time.Hour {
					t.Errorf("Worker.DiscoveryInterval = %v, want 6h", cfg.Worker.DiscoveryInterval)
				}
				if cfg.Worker.EnsureInterval != time.Hour {
					t.Errorf("Worker.EnsureInterval = %v, want 1h", cfg.Worker.EnsureInterval)
				}
				if cfg.Worker.ProcessInterval != time.Minute {
					t.Errorf("Worker.ProcessInterval = %v, want 1m", cfg.Worker.ProcessInterval)
				}
				if cfg.Worker.FetchDelay != 500*time.Millisecond {
					t.Errorf("Worker.FetchDelay = %v, want 500ms", cfg.Worker.FetchDelay)
				}
				if cfg.Worker.SweepLimit != 100 {
					t.Errorf("Worker.SweepLimit = %d, want 100", cfg.Worker.SweepLimit)
				}
				if cfg.Platform.Timeout != 30*time.Second {
					t.Errorf("Platform.Timeout = %v, want 30s", cfg.Platform.Timeout)
				}
			},
		},
		{
			name: "load with environment variables",
			setup: func() {
				viper.Reset()
				viper.SetEnvPrefix("APP")
				viper.AutomaticEnv()
				os.Setenv("APP_SERVER_PORT", "9090")
				os.Setenv("APP_DATABASE_HOST", "testdb")
				os.Setenv("APP_WORKER_PROCESSINTERVAL", "10s")
				os.Setenv("APP_PLATFORM_BASEURL", "https://platform.example.com")
				// Manually bind env vars since AutomaticEnv doesn't work with nested keys
				viper.BindEnv("server.port", "APP_SERVER_PORT")
				viper.BindEnv("database.host", "APP_DATABASE_HOST")
				viper.BindEnv("worker.processinterval", "APP_WORKER_PROCESSINTERVAL")
				viper.BindEnv("platform.baseurl", "APP_PLATFORM_BASEURL")
			},
			cleanup: func() {
				os.Unsetenv("APP_SERVER_PORT")
				os.Unsetenv("APP_DATABASE_HOST")
				os.Unsetenv("APP_WORKER_PROCESSINTERVAL")
				os.Unsetenv("APP_PLATFORM_BASEURL")
			},
			wantErr: false,
			check: func(t *testing.T, cfg *Config) {
				if cfg.Server.Port != 9090 {
					t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
				}
				if cfg.Database.Host != "testdb" {
					t.Errorf("Database.Host = %s, want testdb", cfg.Database.Host)
				}
				if cfg.Worker.ProcessInterval != 10*time.Second {
					t.Errorf("Worker.ProcessInterval = %v, want 10s", cfg.Worker.ProcessInterval)
				}
				if cfg.Platform.BaseURL != "https://platform.example.com" {
					t.Errorf("Platform.BaseURL = %s, want https://platform.example.com", cfg.Platform.BaseURL)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.cleanup()

			cfg, err := Load()

			if (err != nil) != tt.wantErr {
				t.Fatalf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}

			if err == nil && tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}
