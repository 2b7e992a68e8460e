// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
	File     string `yaml:"file"`     // when set, logs go here instead of stdout (TUI mode)
}

type StorageConfig struct {
	Driver        string `yaml:"driver"` // file|memory|redis|postgres|sqlite
	Key           string `yaml:"key"`    // slot name
	Path          string `yaml:"path"`   // directory for file driver, db file for sqlite
	EncryptionKey string `yaml:"encryption_key"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	LockTTL  time.Duration `yaml:"lock_ttl"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type ResponderConfig struct {
	ReplyDelay  time.Duration `yaml:"reply_delay"`
	RepliesFile string        `yaml:"replies_file"`
}

type AdminConfig struct {
	Port int `yaml:"port"` // 0 disables the admin endpoint
}

type UIConfig struct {
	Language string `yaml:"language"`
}

type Config struct {
	Log       LogConfig       `yaml:"log"`
	Storage   StorageConfig   `yaml:"storage"`
	Redis     RedisConfig     `yaml:"redis"`
	Database  DatabaseConfig  `yaml:"database"`
	Responder ResponderConfig `yaml:"responder"`
	Admin     AdminConfig     `yaml:"admin"`
	UI        UIConfig        `yaml:"ui"`

	Runtime RuntimeConfig `yaml:"-"`
}

const (
	DriverFile     = "file"
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// LoadConfig reads the YAML file at path. A missing file yields the defaults.
func LoadConfig(path string, dev bool) (*Config, error) {
	var cfg Config
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	cfg.Runtime.Dev = dev
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = DriverFile
	}
	if cfg.Storage.Key == "" {
		cfg.Storage.Key = "conversations"
	}
	if cfg.Redis.LockTTL <= 0 {
		cfg.Redis.LockTTL = time.Minute
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 4
	}
	if cfg.Responder.ReplyDelay <= 0 {
		cfg.Responder.ReplyDelay = 500 * time.Millisecond
	}
	if cfg.UI.Language == "" {
		cfg.UI.Language = "en"
	}
}

// Validate performs minimal, driver-aware validation.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverFile, DriverMemory, DriverSQLite:
	case DriverRedis:
		if c.Redis.URL == "" {
			return errors.New("redis.url is required for the redis storage driver")
		}
	case DriverPostgres:
		if c.Database.URL == "" {
			return errors.New("database.url is required for the postgres storage driver")
		}
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}
	if k := len(c.Storage.EncryptionKey); k != 0 && k != 16 && k != 24 && k != 32 {
		return fmt.Errorf("storage.encryption_key must be 16, 24, or 32 bytes; got %d", k)
	}
	if c.Admin.Port < 0 || c.Admin.Port > 65535 {
		return fmt.Errorf("admin.port out of range: %d", c.Admin.Port)
	}
	return nil
}
