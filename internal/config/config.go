package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sirupsen/logrus"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Store struct {
	Driver string `json:"driver" env:"PATROL_STORE_DRIVER"`
	DSN    string `json:"dsn" env:"DATABASE_URL"`
}

// Enabled reports whether runs should be persisted at all.
func (s Store) Enabled() bool {
	return s.Driver != ""
}

type Log struct {
	Level      string `json:"level" env:"PATROL_LOG_LEVEL"`
	File       string `json:"file" env:"PATROL_LOG_FILE"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

type Config struct {
	Mode            string   `json:"mode" env:"PATROL_MODE"`
	Addr            string   `json:"addr" env:"PATROL_ADDR"`
	Workers         int      `json:"workers" env:"PATROL_WORKERS"`
	ShutdownTimeout Duration `json:"shutdown_timeout" env:"PATROL_SHUTDOWN_TIMEOUT"`
	Store           Store    `json:"store"`
	Log             Log      `json:"log"`
}

func Default() Config {
	return Config{
		Mode:            "production",
		Addr:            "localhost:8000",
		Workers:         runtime.NumCPU(),
		ShutdownTimeout: Duration{15 * time.Second},
		Log: Log{
			Level:      "info",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load starts from [Default], applies the JSON file at path if there is
// one and then the environment on top.
func Load(path string) (*Config, error) {
	config := Default()
	if path != "" {
		if err := ReadConfig(path, &config); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("unable to read config %s: %w", path, err)
		}
	}
	if err := env.Parse(&config); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func ReadConfig(path string, config *Config) error {
	if b, err := os.ReadFile(path); err != nil {
		return err
	} else {
		return json.Unmarshal(b, config)
	}
}

func (c Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	switch c.Store.Driver {
	case "":
	case DriverPostgres, DriverSQLite:
		if c.Store.DSN == "" {
			return fmt.Errorf("store driver %s needs a dsn", c.Store.Driver)
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

func (c Config) Development() bool {
	return c.Mode != "production"
}

func (c Config) Fields() logrus.Fields {
	return map[string]any{
		"mode":             c.Mode,
		"addr":             c.Addr,
		"workers":          c.Workers,
		"shutdown_timeout": c.ShutdownTimeout.String(),
		"store_driver":     c.Store.Driver,
		"log_level":        c.Log.Level,
		"log_file":         c.Log.File,
	}
}
