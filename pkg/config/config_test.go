package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTOML = `
service_name = "webshop-test"
environment = "staging"

[http]
port = 9000

[database]
driver = "postgres"
dsn = "host=localhost user=webshop dbname=webshop"

[auth]
secret_key = "file-secret"
access_token_lifetime = "15m"

[cors]
allowed_origins = ["https://shop.example.com"]

[orders]
verify_total = true
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleTOML))
	require.NoError(t, err)

	assert.Equal(t, "webshop-test", cfg.ServiceName)
	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, 9000, cfg.HTTP.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenLifetime)
	assert.Equal(t, []string{"https://shop.example.com"}, cfg.CORS.AllowedOrigins)
	assert.True(t, cfg.Orders.VerifyTotal)

	// defaults fill in what the file omits
	assert.Equal(t, "/media/", cfg.Media.URL)
	assert.Equal(t, 2*time.Second, cfg.Outbox.PollInterval)
	assert.Equal(t, 5*time.Minute, cfg.Catalog.CacheTTL)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("APP_AUTH_SECRET_KEY", "env-secret")
	t.Setenv("APP_HTTP_PORT", "8181")

	cfg, err := Load(writeConfig(t, sampleTOML))
	require.NoError(t, err)
	assert.Equal(t, "env-secret", cfg.Auth.SecretKey)
	assert.Equal(t, 8181, cfg.HTTP.Port)
}

func TestLoadDefaultsOnly(t *testing.T) {
	t.Setenv("APP_AUTH_SECRET_KEY", "s")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "webshop", cfg.ServiceName)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 30*time.Hour, cfg.Auth.AccessTokenLifetime)
	assert.Equal(t, "0.0.0.0:8000", cfg.HTTP.Addr())
	assert.Equal(t, 10, cfg.Outbox.MaxAttempts)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			ServiceName: "webshop",
			HTTP:        HTTPConfig{Port: 8000},
			Database:    DatabaseConfig{Driver: "sqlite"},
			Auth:        AuthConfig{SecretKey: "k", AccessTokenLifetime: time.Hour},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"valid", func(*Config) {}, true},
		{"no service name", func(c *Config) { c.ServiceName = "" }, false},
		{"bad http port", func(c *Config) { c.HTTP.Port = 70000 }, false},
		{"grpc port checked when enabled", func(c *Config) { c.GRPC = GRPCConfig{Enabled: true, Port: 0} }, false},
		{"mysql needs dsn", func(c *Config) { c.Database.Driver = "mysql" }, false},
		{"unknown driver", func(c *Config) { c.Database.Driver = "oracle" }, false},
		{"no secret", func(c *Config) { c.Auth.SecretKey = "" }, false},
		{"kafka without brokers", func(c *Config) { c.Kafka.Enabled = true }, false},
		{"ratelimit without redis", func(c *Config) { c.RateLimit.Enabled = true }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
