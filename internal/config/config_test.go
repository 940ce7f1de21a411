package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("SHOPSUBS_DATABASE__URL", "postgres://u:p@localhost:5432/shop")
	t.Setenv("SHOPSUBS_JWT__SECRET_KEY", "secret")
	t.Setenv("SHOPSUBS_SHOP__NAME", "Acme")
	t.Setenv("SHOPSUBS_SCHEDULER__POLL_INTERVAL", "10s")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "postgres://u:p@localhost:5432/shop", cfg.Database.URL)
	assert.Equal(t, "secret", cfg.JWT.SecretKey)
	assert.Equal(t, "Acme", cfg.Shop.Name)
	assert.Equal(t, 10*time.Second, cfg.Scheduler.PollInterval)

	// Untouched values keep their defaults
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 3, cfg.Scheduler.MaxAttempts)
	assert.Equal(t, "UTC", cfg.Shop.Timezone)
}

func TestLoad_RejectsZeroPollInterval(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("SHOPSUBS_DATABASE__URL", "postgres://u:p@localhost:5432/shop")
	t.Setenv("SHOPSUBS_JWT__SECRET_KEY", "secret")
	t.Setenv("SHOPSUBS_SCHEDULER__POLL_INTERVAL", "0s")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scheduler.poll_interval must be positive")
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
database:
  url: postgres://file@localhost/shop
jwt:
  secret_key: from-file
shop:
  name: File Shop
  checkout_url: https://shop.example.com/checkout/
email:
  enabled: true
  smtp_host: smtp.example.com
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("SHOPSUBS_JWT__SECRET_KEY", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://file@localhost/shop", cfg.Database.URL)
	assert.Equal(t, "from-env", cfg.JWT.SecretKey)
	assert.Equal(t, "File Shop", cfg.Shop.Name)
	assert.Equal(t, "https://shop.example.com/checkout/", cfg.Shop.CheckoutURL)
	assert.True(t, cfg.Email.Enabled)
	assert.Equal(t, 587, cfg.Email.SMTPPort)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:    "valid",
			mutate:  func(_ *Config) {},
			wantErr: "",
		},
		{
			name:    "missing database url",
			mutate:  func(c *Config) { c.Database.URL = "" },
			wantErr: "database.url is required",
		},
		{
			name:    "missing jwt secret",
			mutate:  func(c *Config) { c.JWT.SecretKey = "" },
			wantErr: "jwt.secret_key is required",
		},
		{
			name:    "unknown timezone",
			mutate:  func(c *Config) { c.Shop.Timezone = "Mars/Olympus" },
			wantErr: "shop.timezone",
		},
		{
			name:    "no workers",
			mutate:  func(c *Config) { c.Scheduler.NumWorkers = 0 },
			wantErr: "scheduler.num_workers must be positive",
		},
		{
			name:    "zero poll interval",
			mutate:  func(c *Config) { c.Scheduler.PollInterval = 0 },
			wantErr: "scheduler.poll_interval must be positive",
		},
		{
			name:    "negative poll interval",
			mutate:  func(c *Config) { c.Scheduler.PollInterval = -time.Second },
			wantErr: "scheduler.poll_interval must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Database.URL = "postgres://localhost/shop"
			cfg.JWT.SecretKey = "secret"
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
