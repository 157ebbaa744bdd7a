package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds the HTTP adapter configuration.
type ServerConfig struct {
	Host                  string  `yaml:"host"`
	Port                  int     `yaml:"port"`
	RateLimitPerSec       float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst        int     `yaml:"rate_limit_burst"`
	PolicyCacheTTLSeconds int     `yaml:"policy_cache_ttl_seconds"`
}

// DatabaseConfig holds the durable store connection configuration.
// An empty DSN runs the tracker on the in-memory data set only.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"` // sqlite or postgres
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	Seed                   bool   `yaml:"seed"`
	LogSQL                 bool   `yaml:"log_sql"`
}

// AuthConfig controls login throttling.
type AuthConfig struct {
	MaxLoginAttempts int           `yaml:"max_login_attempts"`
	LockoutSeconds   int           `yaml:"lockout_seconds"`
	Lockout          time.Duration `yaml:"-"`
}

// LogConfig selects the zap logger level and encoding.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads the configuration from the given path and applies environment
// overrides on top of it.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	cfg.ApplyEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{Database: DatabaseConfig{Seed: true}}
	cfg.ApplyEnv()
	cfg.applyDefaults()
	return cfg
}

// ApplyEnv overrides file values with EQUIPD_* environment variables.
func (c *Config) ApplyEnv() {
	if v, ok := os.LookupEnv("EQUIPD_DATABASE_DRIVER"); ok {
		c.Database.Driver = v
	}
	if v, ok := os.LookupEnv("EQUIPD_DATABASE_DSN"); ok {
		c.Database.DSN = v
	}
	if v, ok := os.LookupEnv("EQUIPD_SERVER_PORT"); ok {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		} else {
			log.Printf("ignoring EQUIPD_SERVER_PORT=%q: %v", v, err)
		}
	}
	if v, ok := os.LookupEnv("EQUIPD_LOG_LEVEL"); ok {
		c.Log.Level = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}
	if c.Server.Port <= 0 {
		c.Server.Port = 8080
	}
	if c.Server.RateLimitPerSec <= 0 {
		c.Server.RateLimitPerSec = 10
	}
	if c.Server.RateLimitBurst <= 0 {
		c.Server.RateLimitBurst = 5
	}
	if c.Server.PolicyCacheTTLSeconds <= 0 {
		c.Server.PolicyCacheTTLSeconds = 300
	}

	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.MaxOpenConns <= 0 {
		c.Database.MaxOpenConns = 4
	}
	if c.Database.MaxIdleConns <= 0 {
		c.Database.MaxIdleConns = 2
	}
	if c.Database.ConnMaxLifetimeMinutes <= 0 {
		c.Database.ConnMaxLifetimeMinutes = 30
	}

	if c.Auth.MaxLoginAttempts <= 0 {
		log.Printf("auth.max_login_attempts is not set or invalid; defaulting to 5")
		c.Auth.MaxLoginAttempts = 5
	}
	if c.Auth.LockoutSeconds <= 0 {
		c.Auth.LockoutSeconds = 900
	}
	c.Auth.Lockout = time.Duration(c.Auth.LockoutSeconds) * time.Second

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
}
