package config

import (
	"fmt"
	"time"

	"github.com/kbukum/compgraph/logger"
)

// Config is the compgraph runtime configuration.
type Config struct {
	Name        string          `yaml:"name" mapstructure:"name" validate:"required"`
	Environment string          `yaml:"environment" mapstructure:"environment" validate:"oneof=development staging production"`
	Logging     logger.Config   `yaml:"logging" mapstructure:"logging"`
	Engine      EngineConfig    `yaml:"engine" mapstructure:"engine"`
	Telemetry   TelemetryConfig `yaml:"telemetry" mapstructure:"telemetry"`
}

// EngineConfig controls graph execution defaults.
type EngineConfig struct {
	// CheckGrouping enables the debug grouping checks on Reduce and Join.
	CheckGrouping   bool   `yaml:"check_grouping" mapstructure:"check_grouping"`
	JoinLeftSuffix  string `yaml:"join_left_suffix" mapstructure:"join_left_suffix" validate:"required"`
	JoinRightSuffix string `yaml:"join_right_suffix" mapstructure:"join_right_suffix" validate:"required,nefield=JoinLeftSuffix"`
}

// TelemetryConfig configures OpenTelemetry export of run traces and metrics.
type TelemetryConfig struct {
	Enabled    bool          `yaml:"enabled" mapstructure:"enabled"`
	Endpoint   string        `yaml:"endpoint" mapstructure:"endpoint" validate:"required_if=Enabled true"`
	Insecure   bool          `yaml:"insecure" mapstructure:"insecure"`
	SampleRate float64       `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gte=0,lte=1"`
	Interval   time.Duration `yaml:"interval" mapstructure:"interval" validate:"gte=0"`
}

// Default returns a configuration with defaults applied.
func Default() Config {
	cfg := Config{Name: "compgraph"}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "compgraph"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	c.Logging.ApplyDefaults()
	c.Engine.ApplyDefaults()
	c.Telemetry.ApplyDefaults()
}

// ApplyDefaults fills unset engine fields.
func (c *EngineConfig) ApplyDefaults() {
	if c.JoinLeftSuffix == "" {
		c.JoinLeftSuffix = "_1"
	}
	if c.JoinRightSuffix == "" {
		c.JoinRightSuffix = "_2"
	}
}

// ApplyDefaults fills unset telemetry fields.
func (c *TelemetryConfig) ApplyDefaults() {
	if c.Endpoint == "" && c.Enabled {
		c.Endpoint = "localhost:4318"
	}
	if c.SampleRate == 0 {
		c.SampleRate = 1
	}
	if c.Interval == 0 {
		c.Interval = 10 * time.Second
	}
}

// Validate checks struct tags and the nested logging configuration.
func (c *Config) Validate() error {
	if err := validateStruct(c); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	return nil
}
