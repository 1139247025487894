// Package config loads runtime settings and scene seed files.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/zeusync/magfield/internal/core/field"
	"github.com/zeusync/magfield/internal/core/sampler"
)

const EnvPrefix = "MAGFIELD"

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Sampling  SamplingConfig  `mapstructure:"sampling"`
	Generator GeneratorConfig `mapstructure:"generator"`
	Display   DisplayConfig   `mapstructure:"display"`
	Log       LogConfig       `mapstructure:"log"`
	// ScenePath points at an optional scene seed file.
	ScenePath string `mapstructure:"scene"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr" validate:"required"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"gte=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gte=0"`
	MaxSessions     int           `mapstructure:"max_sessions" validate:"gte=0"`
	// MaxMessageSize limits inbound websocket frames in bytes.
	MaxMessageSize int64 `mapstructure:"max_message_size" validate:"gt=0"`
	// RequestRate limits requests per second per session; zero disables the limit.
	RequestRate  float64 `mapstructure:"request_rate" validate:"gte=0"`
	RequestBurst int     `mapstructure:"request_burst" validate:"gte=0"`
	// Metrics exposes Prometheus metrics on /metrics.
	Metrics bool `mapstructure:"metrics"`
}

type SamplingConfig struct {
	Density       float64 `mapstructure:"density" validate:"gt=0"`
	Workers       int     `mapstructure:"workers" validate:"gte=0"`
	MaxResolution int     `mapstructure:"max_resolution" validate:"gte=1"`
	Permeability  float64 `mapstructure:"permeability" validate:"gt=0"`
	CacheSize     int     `mapstructure:"cache_size" validate:"gte=0"`
}

type GeneratorConfig struct {
	AmperageLower float64 `mapstructure:"amperage_lower"`
	AmperageUpper float64 `mapstructure:"amperage_upper" validate:"gtefield=AmperageLower"`
	Saturation    float64 `mapstructure:"saturation" validate:"gte=0,lte=100"`
	Lightness     float64 `mapstructure:"lightness" validate:"gte=0,lte=100"`
}

// Field converts the settings into the generator's own configuration.
func (g GeneratorConfig) Field() field.GeneratorConfig {
	return field.GeneratorConfig{
		AmperageLower: g.AmperageLower,
		AmperageUpper: g.AmperageUpper,
		Saturation:    g.Saturation,
		Lightness:     g.Lightness,
	}
}

type DisplayConfig struct {
	Width      int     `mapstructure:"width" validate:"gt=0"`
	Height     int     `mapstructure:"height" validate:"gt=0"`
	ArrowScale float64 `mapstructure:"arrow_scale" validate:"gt=0"`
	Labels     bool    `mapstructure:"labels"`
	Debug      bool    `mapstructure:"debug"`
}

type LogConfig struct {
	Level       string   `mapstructure:"level" validate:"oneof=debug info warn error"`
	Encoding    string   `mapstructure:"encoding" validate:"oneof=json console"`
	OutputPaths []string `mapstructure:"output_paths"`
	// File enables a rotated log file; empty disables it.
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `mapstructure:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `mapstructure:"max_age_days" validate:"gte=0"`
	Compress   bool   `mapstructure:"compress"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 5 * time.Second,
			MaxSessions:     0,
			MaxMessageSize:  64 << 10,
			RequestRate:     50,
			RequestBurst:    20,
			Metrics:         true,
		},
		Sampling: SamplingConfig{
			Density:       sampler.DefaultDensity,
			Workers:       0,
			MaxResolution: 200,
			Permeability:  field.Vacuum,
			CacheSize:     sampler.DefaultCacheSize,
		},
		Generator: GeneratorConfig{
			AmperageLower: field.DefaultAmperageLower,
			AmperageUpper: field.DefaultAmperageUpper,
		},
		Display: DisplayConfig{
			Width:      800,
			Height:     600,
			ArrowScale: 1000,
			Labels:     true,
		},
		Log: LogConfig{
			Level:       "info",
			Encoding:    "json",
			OutputPaths: []string{"stderr"},
			MaxSizeMB:   10,
			MaxBackups:  3,
			MaxAgeDays:  7,
		},
	}
}

// NewViper prepares a viper instance with defaults, the MAGFIELD_ environment prefix and,
// when path is set, an explicit config file. Otherwise ./magfield.yaml is used if present.
func NewViper(path string) *viper.Viper {
	v := viper.New()
	setDefaults(v, Default())

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("magfield")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the configuration at path (or the default search location), overlays the
// environment and validates the result.
func Load(path string) (*Config, error) {
	return FromViper(NewViper(path))
}

// FromViper reads and validates configuration from a prepared viper instance, which may
// carry bound command line flags.
func FromViper(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := ValidateStruct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("server.max_sessions", d.Server.MaxSessions)
	v.SetDefault("server.max_message_size", d.Server.MaxMessageSize)
	v.SetDefault("server.request_rate", d.Server.RequestRate)
	v.SetDefault("server.request_burst", d.Server.RequestBurst)
	v.SetDefault("server.metrics", d.Server.Metrics)

	v.SetDefault("sampling.density", d.Sampling.Density)
	v.SetDefault("sampling.workers", d.Sampling.Workers)
	v.SetDefault("sampling.max_resolution", d.Sampling.MaxResolution)
	v.SetDefault("sampling.permeability", d.Sampling.Permeability)
	v.SetDefault("sampling.cache_size", d.Sampling.CacheSize)

	v.SetDefault("generator.amperage_lower", d.Generator.AmperageLower)
	v.SetDefault("generator.amperage_upper", d.Generator.AmperageUpper)
	v.SetDefault("generator.saturation", d.Generator.Saturation)
	v.SetDefault("generator.lightness", d.Generator.Lightness)

	v.SetDefault("display.width", d.Display.Width)
	v.SetDefault("display.height", d.Display.Height)
	v.SetDefault("display.arrow_scale", d.Display.ArrowScale)
	v.SetDefault("display.labels", d.Display.Labels)
	v.SetDefault("display.debug", d.Display.Debug)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.encoding", d.Log.Encoding)
	v.SetDefault("log.output_paths", d.Log.OutputPaths)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.max_size_mb", d.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", d.Log.MaxBackups)
	v.SetDefault("log.max_age_days", d.Log.MaxAgeDays)
	v.SetDefault("log.compress", d.Log.Compress)

	v.SetDefault("scene", d.ScenePath)
}
