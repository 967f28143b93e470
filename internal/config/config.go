// Package config loads server configuration from a YAML file, a .env file
// and environment variables, in increasing order of precedence.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/mmynk/splitledger/internal/guard"
	"github.com/mmynk/splitledger/internal/models"
)

const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Config holds all server configuration.
type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		Backend string `yaml:"backend"`
		Path    string `yaml:"path"`
	} `yaml:"database"`
	Ledger struct {
		MaxMembers   int           `yaml:"max_members"`
		LockTimeout  time.Duration `yaml:"lock_timeout"`
		AllowRefunds bool          `yaml:"allow_refunds"`
	} `yaml:"ledger"`
	AMQP struct {
		URL      string `yaml:"url"`
		Exchange string `yaml:"exchange"`
	} `yaml:"amqp"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"auth"`
	Audit struct {
		Schedule string `yaml:"schedule"`
	} `yaml:"audit"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Load reads the YAML file at path (a missing file is not an error), loads
// .env into the environment when present, then applies environment overrides
// and defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	// Variables already set in the environment win over .env.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	var err error
	if c.Server.Port, err = envInt("PORT", c.Server.Port); err != nil {
		return err
	}
	c.Database.Backend = envString("DB_BACKEND", c.Database.Backend)
	c.Database.Path = envString("DB_PATH", c.Database.Path)
	if c.Ledger.MaxMembers, err = envInt("LEDGER_MAX_MEMBERS", c.Ledger.MaxMembers); err != nil {
		return err
	}
	if c.Ledger.LockTimeout, err = envDuration("LEDGER_LOCK_TIMEOUT", c.Ledger.LockTimeout); err != nil {
		return err
	}
	if c.Ledger.AllowRefunds, err = envBool("LEDGER_ALLOW_REFUNDS", c.Ledger.AllowRefunds); err != nil {
		return err
	}
	c.AMQP.URL = envString("AMQP_URL", c.AMQP.URL)
	c.AMQP.Exchange = envString("AMQP_EXCHANGE", c.AMQP.Exchange)
	c.Auth.JWTSecret = envString("JWT_SECRET", c.Auth.JWTSecret)
	c.Audit.Schedule = envString("AUDIT_SCHEDULE", c.Audit.Schedule)
	c.Log.Level = envString("LOG_LEVEL", c.Log.Level)
	c.Log.Format = envString("LOG_FORMAT", c.Log.Format)
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Database.Backend == "" {
		c.Database.Backend = BackendSQLite
	}
	if c.Database.Path == "" {
		c.Database.Path = "./data/ledger.db"
	}
	if c.Ledger.MaxMembers == 0 {
		c.Ledger.MaxMembers = models.DefaultMaxMembers
	}
	if c.Ledger.LockTimeout == 0 {
		c.Ledger.LockTimeout = guard.DefaultTimeout
	}
	if c.AMQP.Exchange == "" {
		c.AMQP.Exchange = "splitledger"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks the whole configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid server.port %d: must be between 1 and 65535", c.Server.Port))
	}

	switch c.Database.Backend {
	case BackendSQLite:
		if c.Database.Path == "" {
			errs = append(errs, "database.path cannot be empty when using the sqlite backend")
		}
	case BackendMemory:
	default:
		errs = append(errs, fmt.Sprintf("invalid database.backend '%s': must be one of [%s %s]",
			c.Database.Backend, BackendSQLite, BackendMemory))
	}

	if c.Ledger.MaxMembers < 1 {
		errs = append(errs, fmt.Sprintf("invalid ledger.max_members %d: must be at least 1", c.Ledger.MaxMembers))
	}
	if c.Ledger.LockTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("invalid ledger.lock_timeout %v: must be positive", c.Ledger.LockTimeout))
	}

	if c.AMQP.URL != "" {
		if u, err := url.Parse(c.AMQP.URL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid amqp.url: %v", err))
		} else if u.Scheme != "amqp" && u.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid amqp.url scheme '%s': must be 'amqp' or 'amqps'", u.Scheme))
		}
		if c.AMQP.Exchange == "" {
			errs = append(errs, "amqp.exchange cannot be empty when amqp.url is set")
		}
	}

	if c.Audit.Schedule != "" {
		parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
		if _, err := parser.Parse(c.Audit.Schedule); err != nil {
			errs = append(errs, fmt.Sprintf("invalid audit.schedule '%s': %v", c.Audit.Schedule, err))
		}
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("invalid log.level '%s': must be one of [debug info warn error]", c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("invalid log.format '%s': must be 'text' or 'json'", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s '%s': must be a number", key, v)
	}
	return i, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s '%s': %w", key, v, err)
	}
	return d, nil
}

func envBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s '%s': must be true or false", key, v)
	}
	return b, nil
}
