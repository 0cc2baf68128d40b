// Package config loads client settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

// Prefix is prepended to every variable name, e.g. SWEETSHOP_API_URL.
const Prefix = "SWEETSHOP"

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	APIURL         string        `envconfig:"API_URL" default:"http://localhost:5000/api"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"10s"`
	RateLimit      float64       `envconfig:"RATE_LIMIT" default:"20"`
	RateBurst      int           `envconfig:"RATE_BURST" default:"5"`
	StoreDriver    string        `envconfig:"STORE_DRIVER" default:"sqlite"`
	StoreDSN       string        `envconfig:"STORE_DSN" default:"sweetshop.db"`
	StoreNamespace string        `envconfig:"STORE_NAMESPACE" default:"default"`
	LogLevel       string        `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads files (default ".env") if they exist and then the environment.
// Variables already set in the environment win over the files.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("read environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that envconfig cannot.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.APIURL) == "" {
		errs = append(errs, errors.New("API_URL is required"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("REQUEST_TIMEOUT must be positive"))
	}
	if c.RateLimit < 0 || c.RateBurst < 0 {
		errs = append(errs, errors.New("RATE_LIMIT and RATE_BURST cannot be negative"))
	}
	switch c.StoreDriver {
	case DriverSQLite, DriverPostgres, DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}
	if c.StoreDriver != DriverMemory && strings.TrimSpace(c.StoreDSN) == "" {
		errs = append(errs, errors.New("STORE_DSN is required"))
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Level returns the parsed log level, falling back to info.
func (c Config) Level() logrus.Level {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}
