// Package config loads the pipeline configuration from an optional YAML
// file overridden by PRESENSI_-prefixed environment variables, then
// validates it before anything runs.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix is the environment variable prefix for overrides.
const EnvPrefix = "PRESENSI"

// Config represents the complete application configuration.
type Config struct {
	Pipeline PipelineConfig `yaml:"pipeline" envconfig:"PIPELINE"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
}

// PipelineConfig controls the preprocessing run itself.
type PipelineConfig struct {
	// LabelVariant selects how rows with both a check-in and an explicit
	// note are labeled: "strict" (note wins) or "overwrite" (check-in wins).
	LabelVariant string `yaml:"label_variant" envconfig:"LABEL_VARIANT" validate:"oneof=strict overwrite"`
	// FlagVariant drives the 7-day count and streak: "telat" or "alpa".
	FlagVariant string `yaml:"flag_variant" envconfig:"FLAG_VARIANT" validate:"oneof=telat alpa"`
	// GateMode places the anomaly gate: "pre", "post" or "off".
	GateMode string `yaml:"gate_mode" envconfig:"GATE_MODE" validate:"oneof=off pre post"`
	// Contamination is the expected anomalous fraction of scored rows.
	Contamination float64 `yaml:"contamination" envconfig:"CONTAMINATION" validate:"gt=0,lt=1"`
	// Seed pins the outlier model's randomness for reproducible runs.
	Seed int64 `yaml:"seed" envconfig:"SEED"`
	// ActivityThresholdPct is the minimum presence rate an entity needs.
	ActivityThresholdPct float64 `yaml:"activity_threshold_pct" envconfig:"ACTIVITY_THRESHOLD_PCT" validate:"gte=0,lte=100"`
	// Concurrency bounds how many entity groups are engineered in parallel.
	Concurrency int `yaml:"concurrency" envconfig:"CONCURRENCY" validate:"gte=1"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
	// Tracing enables per-step OpenTelemetry spans on stdout.
	Tracing bool `yaml:"tracing" envconfig:"TRACING"`
}

// Default returns the production defaults.
func Default() Config {
	return Config{
		Pipeline: PipelineConfig{
			LabelVariant:         "strict",
			FlagVariant:          "telat",
			GateMode:             "post",
			Contamination:        0.01,
			Seed:                 42,
			ActivityThresholdPct: 10,
			Concurrency:          4,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/preprocess.log",
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// any), then environment overrides, then validation. An empty path skips
// the file layer entirely.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration against its struct tags.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}
