// Package config provides configuration management for the attachment
// library: storage definitions loaded from YAML files and environment
// variables, and the logger setup derived from them.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/prn-tf/alexander-attach/storage"
)

// Config represents the complete attachment configuration.
type Config struct {
	// DefaultStorage names the storage new uploads go to when no column
	// override applies. Empty keeps the first configured storage as default.
	DefaultStorage string `mapstructure:"default_storage"`

	// Storages lists the containers to register at startup.
	Storages []StorageConfig `mapstructure:"storages"`

	Logging LoggingConfig `mapstructure:"logging"`
}

// StorageConfig describes one storage container.
type StorageConfig struct {
	// Name is the registry key the container registers under.
	Name string `mapstructure:"name"`

	// Driver selects the backend: "local" or "memory".
	Driver string `mapstructure:"driver"`

	// Path is the root directory of a local container.
	Path string `mapstructure:"path"`

	// BaseURL, when set, lets the container produce public URLs.
	BaseURL string `mapstructure:"base_url"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	TimeFormat string `mapstructure:"time_format"`
}

// Load reads configuration from the specified file and environment variables.
// Environment variables take precedence over file values. They are prefixed
// with ATTACH_ and use _ as separator.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("ATTACH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	// Config file not found is acceptable - use defaults and env vars
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("default_storage", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.time_format", time.RFC3339)
}

// Validate checks the configuration for required values and valid ranges.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Storages))
	for i, s := range c.Storages {
		if s.Name == "" {
			return fmt.Errorf("storages[%d].name is required", i)
		}
		if seen[s.Name] {
			return fmt.Errorf("storages[%d].name %q is already defined", i, s.Name)
		}
		seen[s.Name] = true

		switch s.Driver {
		case "local":
			if s.Path == "" {
				return fmt.Errorf("storages[%d].path is required for local driver", i)
			}
		case "memory":
		default:
			return fmt.Errorf("storages[%d].driver must be 'local' or 'memory'", i)
		}
	}

	if c.DefaultStorage != "" && !seen[c.DefaultStorage] {
		return fmt.Errorf("default_storage %q is not defined in storages", c.DefaultStorage)
	}

	validLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be one of: trace, debug, info, warn, error, fatal, panic")
	}

	return nil
}

// MustLoad loads configuration or panics on error.
// Useful for main function initialization.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// BuildRegistry creates the configured containers and registers them. The
// first configured storage becomes the default unless DefaultStorage names
// another one.
func BuildRegistry(cfg *Config, logger zerolog.Logger) (*storage.Registry, error) {
	reg := storage.NewRegistry(logger)
	for _, s := range cfg.Storages {
		container, err := buildContainer(s)
		if err != nil {
			return nil, err
		}
		if err := reg.Add(s.Name, container); err != nil {
			return nil, err
		}
	}
	if cfg.DefaultStorage != "" {
		if err := reg.SetDefault(cfg.DefaultStorage); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func buildContainer(cfg StorageConfig) (storage.Container, error) {
	switch cfg.Driver {
	case "local":
		return storage.NewLocalContainer(cfg.Path)
	case "memory":
		var opts []storage.MemoryOption
		if cfg.BaseURL != "" {
			opts = append(opts, storage.WithBaseURL(cfg.BaseURL))
		}
		return storage.NewMemoryContainer(opts...), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// NewLogger builds a zerolog logger from the logging settings: JSON to
// stderr by default, human-readable console output when Format is "console".
func NewLogger(cfg LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}

	timeFormat := cfg.TimeFormat
	if timeFormat == "" {
		timeFormat = time.RFC3339
	}

	var logger zerolog.Logger
	if cfg.Format == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: timeFormat})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Logger()
}
