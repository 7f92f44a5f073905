package config

import (
	"maps"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// minimalRequiredConfig provides the database and Redis settings every load needs.
func minimalRequiredConfig() map[string]string {
	return map[string]string{
		"PACKLINE_DB_HOST":        "localhost",
		"PACKLINE_DB_PORT":        "5432",
		"PACKLINE_DB_NAME":        "packline_test",
		"PACKLINE_DB_USER":        "test_user",
		"PACKLINE_DB_PASSWORD":    "test_pass",
		"PACKLINE_REDIS_HOST":     "localhost",
		"PACKLINE_REDIS_PORT":     "6379",
		"PACKLINE_REDIS_PASSWORD": "redis_password_123",
	}
}

// mergeEnvVars merges additional env vars with the minimal required config.
func mergeEnvVars(additional map[string]string) map[string]string {
	result := minimalRequiredConfig()
	maps.Copy(result, additional)
	return result
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		want    func(t *testing.T, cfg *Config)
		wantErr bool
	}{
		{
			name:    "Should use defaults when no env vars are set",
			envVars: minimalRequiredConfig(),
			want: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "packline", cfg.App.Name)
				assert.Equal(t, "dev", cfg.App.Version)
				assert.Equal(t, "development", cfg.App.Environment)
				assert.Equal(t, "info", cfg.App.LogLevel)
				assert.Equal(t, "text", cfg.App.LogFormat)
				assert.Equal(t, 30*time.Second, cfg.App.ShutdownTimeout)
				assert.Equal(t, "8080", cfg.Server.Control.Port)
				assert.Equal(t, "8081", cfg.Server.Classify.Port)
				assert.Equal(t, 10*time.Second, cfg.Syncer.Interval)
				assert.True(t, cfg.Syncer.Enabled)
				assert.Equal(t, 16, cfg.Cache.L1Capacity)
				assert.Equal(t, 30*time.Second, cfg.Cache.L1TTL)
				assert.Equal(t, "9090", cfg.Observability.Port)
			},
		},
		{
			name: "Should load custom environment variables",
			envVars: mergeEnvVars(map[string]string{
				"PACKLINE_APP_NAME":             "packline-test",
				"PACKLINE_APP_ENV":              "staging",
				"PACKLINE_APP_LOG_LEVEL":        "debug",
				"PACKLINE_APP_LOG_FORMAT":       "json",
				"PACKLINE_SERVER_CONTROL_PORT":  "9000",
				"PACKLINE_SERVER_CLASSIFY_PORT": "9001",
				"PACKLINE_SYNCER_INTERVAL":      "30s",
				"PACKLINE_CACHE_L1_TTL":         "2m",
			}),
			want: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "packline-test", cfg.App.Name)
				assert.Equal(t, "staging", cfg.App.Environment)
				assert.Equal(t, "debug", cfg.App.LogLevel)
				assert.Equal(t, "json", cfg.App.LogFormat)
				assert.Equal(t, "9000", cfg.Server.Control.Port)
				assert.Equal(t, "9001", cfg.Server.Classify.Port)
				assert.Equal(t, 30*time.Second, cfg.Syncer.Interval)
				assert.Equal(t, 2*time.Minute, cfg.Cache.L1TTL)
			},
		},
		{
			name: "Should reject an invalid environment",
			envVars: mergeEnvVars(map[string]string{
				"PACKLINE_APP_ENV": "sandbox",
			}),
			wantErr: true,
		},
		{
			name: "Should reject an invalid log level",
			envVars: mergeEnvVars(map[string]string{
				"PACKLINE_APP_LOG_LEVEL": "verbose",
			}),
			wantErr: true,
		},
		{
			name: "Should reject an out-of-range classify port",
			envVars: mergeEnvVars(map[string]string{
				"PACKLINE_SERVER_CLASSIFY_PORT": "99999",
			}),
			wantErr: true,
		},
		{
			name: "Should reject a sub-second syncer interval",
			envVars: mergeEnvVars(map[string]string{
				"PACKLINE_SYNCER_INTERVAL": "100ms",
			}),
			wantErr: true,
		},
		{
			name: "Should require production hardening in production",
			envVars: mergeEnvVars(map[string]string{
				// No API key hash, no TLS: must fail closed.
				"PACKLINE_APP_ENV": "production",
			}),
			wantErr: true,
		},
		{
			name: "Should accept a fully hardened production config",
			envVars: mergeEnvVars(map[string]string{
				"PACKLINE_APP_ENV":                        "production",
				"PACKLINE_DB_PASSWORD":                    "SuperSecure123!",
				"PACKLINE_DB_SSL_MODE":                    "require",
				"PACKLINE_REDIS_PASSWORD":                 "RedisSecure123!",
				"PACKLINE_REDIS_TLS_ENABLED":              "true",
				"PACKLINE_SERVER_CONTROL_API_KEY_HASH":    "5dec7e1c36e8ec7f526cfa8ff6dc788daad76f6dd34467662eb47990dca6b55d",
				"PACKLINE_SERVER_CONTROL_TLS_ENABLED":     "true",
				"PACKLINE_SERVER_CONTROL_TLS_CERT_FILE":   "/certs/control-cert.pem",
				"PACKLINE_SERVER_CONTROL_TLS_KEY_FILE":    "/certs/control-key.pem",
			}),
			want: func(t *testing.T, cfg *Config) {
				assert.Equal(t, EnvironmentProduction, cfg.App.Environment)
				assert.True(t, cfg.Server.Control.TLSEnabled)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg, err := Load()

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)
			if tt.want != nil {
				tt.want(t, cfg)
			}
		})
	}
}

func TestDatabaseConfig_ConnectionString(t *testing.T) {
	t.Parallel()

	t.Run("Should prefer an explicit URL", func(t *testing.T) {
		t.Parallel()
		cfg := DatabaseConfig{URL: "postgres://u:p@db:5432/packline?sslmode=disable"}
		assert.Equal(t, "postgres://u:p@db:5432/packline?sslmode=disable", cfg.ConnectionString())
	})

	t.Run("Should assemble from components", func(t *testing.T) {
		t.Parallel()
		cfg := DatabaseConfig{
			Host: "db", Port: "5432", Name: "packline", User: "app", Password: "secret",
			SSLMode: "prefer",
		}
		assert.Equal(t, "postgres://app:secret@db:5432/packline?sslmode=prefer", cfg.ConnectionString())
	})
}
