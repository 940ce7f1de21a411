// Package config loads application configuration from file and environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment variables read by Load.
// Nested keys are separated by a double underscore: SHOPSUBS_DATABASE__URL.
const EnvPrefix = "SHOPSUBS_"

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Log       LogConfig       `koanf:"log"`
	CORS      CORSConfig      `koanf:"cors"`
	JWT       JWTConfig       `koanf:"jwt"`
	Shop      ShopConfig      `koanf:"shop"`
	Email     EmailConfig     `koanf:"email"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
	Admin     AdminConfig     `koanf:"admin"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host              string        `koanf:"host"`
	Port              string        `koanf:"port"`
	MetricsPort       string        `koanf:"metrics_port"`
	ReadTimeout       time.Duration `koanf:"read_timeout"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	WriteTimeout      time.Duration `koanf:"write_timeout"`
	IdleTimeout       time.Duration `koanf:"idle_timeout"`
}

// DatabaseConfig contains PostgreSQL settings.
type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnectAttempts int           `koanf:"connect_attempts"`
	ConnectTimeout  time.Duration `koanf:"connect_timeout"`
	AutoMigrate     bool          `koanf:"auto_migrate"`
	// Statements slower than this are logged; 0 disables.
	SlowQueryThreshold time.Duration `koanf:"slow_query_threshold"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// CORSConfig contains CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// JWTConfig contains access token settings.
type JWTConfig struct {
	SecretKey           string        `koanf:"secret_key"`
	AccessTokenDuration time.Duration `koanf:"access_token_duration"`
}

// ShopConfig describes the storefront the subscriptions belong to.
type ShopConfig struct {
	Name        string `koanf:"name"`
	HomeURL     string `koanf:"home_url"`
	CheckoutURL string `koanf:"checkout_url"`
	Timezone    string `koanf:"timezone"`
}

// Location returns the shop time zone.
func (c ShopConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// EmailConfig contains SMTP settings.
type EmailConfig struct {
	Enabled      bool    `koanf:"enabled"`
	SMTPHost     string  `koanf:"smtp_host"`
	SMTPPort     int     `koanf:"smtp_port"`
	SMTPUser     string  `koanf:"smtp_user"`
	SMTPPassword string  `koanf:"smtp_password"`
	FromAddress  string  `koanf:"from_address"`
	RateLimit    float64 `koanf:"rate_limit"`
}

// SchedulerConfig contains deferred task worker settings.
type SchedulerConfig struct {
	BatchSize         int           `koanf:"batch_size"`
	PollInterval      time.Duration `koanf:"poll_interval"`
	NumWorkers        int           `koanf:"num_workers"`
	MaxAttempts       int           `koanf:"max_attempts"`
	InitialBackoff    time.Duration `koanf:"initial_backoff"`
	MaxBackoff        time.Duration `koanf:"max_backoff"`
	BackoffMultiplier float64       `koanf:"backoff_multiplier"`
	StuckTimeout      time.Duration `koanf:"stuck_timeout"`
}

// AdminConfig seeds the shop owner account on startup when both fields are set.
type AdminConfig struct {
	Email    string `koanf:"email"`
	Password string `koanf:"password"`
}

// Default returns configuration with default values.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              "8080",
			MetricsPort:       "9090",
			ReadTimeout:       15 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		Database: DatabaseConfig{
			MaxOpenConns:       25,
			MaxIdleConns:       5,
			ConnMaxLifetime:    5 * time.Minute,
			ConnectAttempts:    5,
			ConnectTimeout:     30 * time.Second,
			AutoMigrate:        true,
			SlowQueryThreshold: 500 * time.Millisecond,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		JWT: JWTConfig{
			AccessTokenDuration: 24 * time.Hour,
		},
		Shop: ShopConfig{
			Name:        "Shop",
			HomeURL:     "http://localhost:8080/",
			CheckoutURL: "http://localhost:8080/checkout/",
			Timezone:    "UTC",
		},
		Email: EmailConfig{
			SMTPPort:  587,
			RateLimit: 10,
		},
		Scheduler: SchedulerConfig{
			BatchSize:         50,
			PollInterval:      30 * time.Second,
			NumWorkers:        2,
			MaxAttempts:       3,
			InitialBackoff:    time.Minute,
			MaxBackoff:        time.Hour,
			BackoffMultiplier: 2.0,
			StuckTimeout:      15 * time.Minute,
		},
	}
}

// DefaultPath is read when neither the caller nor CONFIG_PATH names a file.
const DefaultPath = "config.yaml"

// Load reads configuration from the optional YAML file at path and from
// SHOPSUBS_* environment variables, on top of Default. An empty path falls
// back to CONFIG_PATH, then to DefaultPath if it exists. Variables from a
// local .env file are added to the environment first without overriding it.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	k := koanf.New(".")

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		if _, err := os.Stat(DefaultPath); err == nil {
			path = DefaultPath
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// envKey maps SHOPSUBS_SCHEDULER__POLL_INTERVAL to scheduler.poll_interval.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Validate checks required settings.
func (c *Config) Validate() error {
	var errs []error

	if c.Database.URL == "" {
		errs = append(errs, errors.New("database.url is required"))
	}
	if c.JWT.SecretKey == "" {
		errs = append(errs, errors.New("jwt.secret_key is required"))
	}
	if _, err := c.Shop.Location(); err != nil {
		errs = append(errs, fmt.Errorf("shop.timezone: %w", err))
	}
	if c.Shop.CheckoutURL == "" {
		errs = append(errs, errors.New("shop.checkout_url is required"))
	}
	if c.Scheduler.NumWorkers <= 0 {
		errs = append(errs, errors.New("scheduler.num_workers must be positive"))
	}
	if c.Scheduler.PollInterval <= 0 {
		errs = append(errs, errors.New("scheduler.poll_interval must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
