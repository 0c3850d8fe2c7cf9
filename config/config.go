// Package config loads chainmap settings from a YAML file, a .env file and
// CHAINMAP_* environment variables, in that order of precedence (later wins).
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/alextanhongpin/chainmap"
	"github.com/alextanhongpin/chainmap/internal"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Prefix is the environment variable prefix.
const Prefix = "chainmap"

var ErrInvalid = errors.New("config: invalid")

var validate = validator.New()

// Config holds the map settings and the stress workload shape.
type Config struct {
	Name       string  `yaml:"name" envconfig:"NAME" validate:"required"`
	Capacity   int     `yaml:"capacity" envconfig:"CAPACITY" validate:"gt=0"`
	LoadFactor float64 `yaml:"loadFactor" envconfig:"LOAD_FACTOR" validate:"gt=0"`
	Resize     string  `yaml:"resize" envconfig:"RESIZE" validate:"oneof=redistribute extend"`

	Workers int `yaml:"workers" envconfig:"WORKERS" validate:"gte=1"`
	Ops     int `yaml:"ops" envconfig:"OPS" validate:"gte=1"`
	Keys    int `yaml:"keys" envconfig:"KEYS" validate:"gte=1"`
}

// Default returns the settings matching chainmap.Default.
func Default() Config {
	return Config{
		Name:       "default",
		Capacity:   chainmap.DefaultCapacity,
		LoadFactor: chainmap.DefaultLoadFactor,
		Resize:     chainmap.ResizeRedistribute.String(),
		Workers:    4,
		Ops:        10_000,
		Keys:       1_000,
	}
}

// Load reads the optional YAML file at path on top of the defaults, then
// applies .env and environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := internal.UnmarshalYAMLInto(b, &cfg); err != nil {
			return nil, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}

	// A missing .env file is not an error.
	_ = godotenv.Load()

	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("config: env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the struct tags.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	return nil
}

// Options converts the map settings into chainmap options.
func (c *Config) Options() ([]chainmap.Option, error) {
	policy, err := chainmap.ParseResizePolicy(c.Resize)
	if err != nil {
		return nil, err
	}

	return []chainmap.Option{
		chainmap.WithName(c.Name),
		chainmap.WithResizePolicy(policy),
	}, nil
}

// YAML returns the effective configuration as YAML.
func (c *Config) YAML() ([]byte, error) {
	return internal.MarshalYAML(c)
}
