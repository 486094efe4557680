// Package config loads .pyeo.yaml, the optional .env file and PYEO_* environment overrides.
package config

import (
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// DefaultPath is looked up in the working directory.
const DefaultPath = ".pyeo.yaml"

// ErrInvalidConfig marks configuration that cannot be used.
var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	// AvailableErNames are extra class name suffixes allowed to end in "er".
	AvailableErNames []string `yaml:"available_er_names" validate:"dive,required"`
	Select           []string `yaml:"select" validate:"dive,startswith=PEO"`
	Ignore           []string `yaml:"ignore" validate:"dive,startswith=PEO"`
	Exclude          []string `yaml:"exclude"` // doublestar globs relative to the scanned root
	Namespace        string   `yaml:"namespace" validate:"required"`
	Format           string   `yaml:"format" validate:"oneof=text json"`
	Cache            string   `yaml:"cache"` // SQLite path; empty disables caching
	Jobs             int      `yaml:"jobs" validate:"gte=0"`
	LogLevel         string   `yaml:"log_level" validate:"oneof=debug info warn error"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Namespace: "pyeo",
		Format:    "text",
		LogLevel:  "warn",
	}
}

// LoadConfig reads path on top of the defaults. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	cfg := Default()

	// 2. Load YAML config
	file, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, errors.Wrapf(err, "read config %s", path)
	default:
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "parse config %s", path), ErrInvalidConfig)
		}
	}

	// 3. Override with Environment Variables if present
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if names := os.Getenv("PYEO_AVAILABLE_ER_NAMES"); names != "" {
		c.AvailableErNames = splitList(names)
	}
	if cache := os.Getenv("PYEO_CACHE"); cache != "" {
		c.Cache = cache
	}
	if format := os.Getenv("PYEO_FORMAT"); format != "" {
		c.Format = format
	}
	if level := os.Getenv("PYEO_LOG_LEVEL"); level != "" {
		c.LogLevel = level
	}
	if jobs := os.Getenv("PYEO_JOBS"); jobs != "" {
		n, err := strconv.Atoi(jobs)
		if err != nil {
			return errors.Mark(errors.Wrapf(err, "PYEO_JOBS=%q", jobs), ErrInvalidConfig)
		}
		c.Jobs = n
	}
	return nil
}

// Validate checks field constraints and exclude glob syntax.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Mark(errors.Wrap(err, "validate config"), ErrInvalidConfig)
	}
	for _, pattern := range c.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return errors.Wrapf(ErrInvalidConfig, "bad exclude pattern %q", pattern)
		}
	}
	return nil
}

func splitList(s string) []string {
	return lo.Compact(lo.Map(strings.Split(s, ","), func(item string, _ int) string {
		return strings.TrimSpace(item)
	}))
}
