// Package config loads the engine configuration from a YAML file and
// SIEVE_* environment overrides.
package config

import (
	"fmt"
	"os"
	"runtime"

	"github.com/asaidimu/go-sieve/core/filter"
	"github.com/asaidimu/go-sieve/core/search"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/cast"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config is the full engine configuration.
type Config struct {
	Log    LogConfig    `yaml:"log"`
	Filter FilterConfig `yaml:"filter"`
	Search SearchConfig `yaml:"search"`
	Host   HostConfig   `yaml:"host"`
}

// LogConfig selects the logger built by NewLogger.
type LogConfig struct {
	Level       string `yaml:"level" validate:"oneof=debug info warn error"`
	Development bool   `yaml:"development"`
}

// FilterConfig configures the filter evaluator.
type FilterConfig struct {
	RankField string `yaml:"rank_field" validate:"required"`
}

// SearchConfig configures the search matcher.
type SearchConfig struct {
	Threshold float64 `yaml:"threshold" validate:"gte=0,lte=1"`
}

// HostConfig configures the message host.
type HostConfig struct {
	MaxInFlight int64 `yaml:"max_in_flight" validate:"gt=0"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Log:    LogConfig{Level: "info"},
		Filter: FilterConfig{RankField: filter.DefaultRankField},
		Search: SearchConfig{Threshold: search.DefaultThreshold},
		Host:   HostConfig{MaxInFlight: int64(runtime.GOMAXPROCS(0))},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path or a missing file keeps the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}
	if err := loadEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// loadEnv applies SIEVE_* overrides. A set but unparsable variable is an
// error rather than silently ignored.
func loadEnv(cfg *Config) error {
	if v := os.Getenv("SIEVE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("SIEVE_LOG_DEVELOPMENT"); v != "" {
		b, err := cast.ToBoolE(v)
		if err != nil {
			return fmt.Errorf("SIEVE_LOG_DEVELOPMENT: %w", err)
		}
		cfg.Log.Development = b
	}
	if v := os.Getenv("SIEVE_FILTER_RANK_FIELD"); v != "" {
		cfg.Filter.RankField = v
	}
	if v := os.Getenv("SIEVE_SEARCH_THRESHOLD"); v != "" {
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return fmt.Errorf("SIEVE_SEARCH_THRESHOLD: %w", err)
		}
		cfg.Search.Threshold = f
	}
	if v := os.Getenv("SIEVE_HOST_MAX_IN_FLIGHT"); v != "" {
		i, err := cast.ToInt64E(v)
		if err != nil {
			return fmt.Errorf("SIEVE_HOST_MAX_IN_FLIGHT: %w", err)
		}
		cfg.Host.MaxInFlight = i
	}
	return nil
}

// Validate checks the configuration against its field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// NewLogger builds a zap logger for the configured level and mode.
func (c *Config) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	zc := zap.NewProductionConfig()
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
