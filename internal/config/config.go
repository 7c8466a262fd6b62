package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable, e.g. QPCR_ANALYSIS_HEADER_ROW.
const EnvPrefix = "QPCR"

// Config represents the complete application configuration
type Config struct {
	Analysis AnalysisConfig `yaml:"analysis" envconfig:"ANALYSIS"`
	Charts   ChartsConfig   `yaml:"charts" envconfig:"CHARTS"`
	Output   OutputConfig   `yaml:"output" envconfig:"OUTPUT"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
}

// AnalysisConfig controls ingestion and the Cq pipeline.
type AnalysisConfig struct {
	HeaderRow      int      `yaml:"header_row" envconfig:"HEADER_ROW" validate:"gte=0"`
	ReferenceGene  string   `yaml:"reference_gene" envconfig:"REFERENCE_GENE" validate:"required"`
	ExcludeSamples []string `yaml:"exclude_samples" envconfig:"EXCLUDE_SAMPLES"`
	DecimalPlaces  int      `yaml:"decimal_places" envconfig:"DECIMAL_PLACES" validate:"gte=0,lte=15"`
	AllowedFormats []string `yaml:"allowed_formats" envconfig:"ALLOWED_FORMATS" validate:"required,min=1,dive,startswith=."`
	Sheet          string   `yaml:"sheet" envconfig:"SHEET"`
}

// ChartsConfig controls bar chart rendering.
type ChartsConfig struct {
	ColorScheme string `yaml:"color_scheme" envconfig:"COLOR_SCHEME" validate:"oneof=category10 set1 set2 set3 tableau10"`
	Orientation string `yaml:"orientation" envconfig:"ORIENTATION" validate:"oneof=vertical horizontal"`
	ShowValues  bool   `yaml:"show_values" envconfig:"SHOW_VALUES"`
	SortByValue bool   `yaml:"sort_by_value" envconfig:"SORT_BY_VALUE"`
	Width       int    `yaml:"width" envconfig:"WIDTH" validate:"gte=100,lte=4000"`
	Height      int    `yaml:"height" envconfig:"HEIGHT" validate:"gte=100,lte=4000"`
}

// OutputConfig controls where exports are written.
type OutputConfig struct {
	Dir string `yaml:"dir" envconfig:"DIR" validate:"required"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level     string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format    string `yaml:"format" envconfig:"FORMAT" validate:"oneof=text json"`
	AddSource bool   `yaml:"add_source" envconfig:"ADD_SOURCE"`
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			HeaderRow:      26,
			ReferenceGene:  "36b4",
			DecimalPlaces:  10,
			AllowedFormats: []string{".xlsx", ".xls", ".csv"},
		},
		Charts: ChartsConfig{
			ColorScheme: "category10",
			Orientation: "vertical",
			Width:       800,
			Height:      400,
		},
		Output: OutputConfig{
			Dir: ".",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DefaultFileLocations are searched in order when Load gets no path.
var DefaultFileLocations = []string{
	"qpcr.yaml",
	"configs/qpcr.yaml",
}

// Load builds the configuration from defaults, then the YAML file, then
// QPCR_* environment variables, and validates the result. An empty path
// searches DefaultFileLocations; a missing default file is not an error,
// a missing explicit one is.
func Load(path string) (*Config, error) {
	cfg := Default()

	file := path
	if file == "" {
		file = findConfigFile()
	}
	if file != "" {
		if err := cfg.loadFile(file); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFile overlays the keys present in a YAML file onto c.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func findConfigFile() string {
	for _, location := range DefaultFileLocations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

// Validate checks every field against its validate tag.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%s: invalid value %v (rule %s)", fe.Namespace(), fe.Value(), fe.Tag())
		}
		return err
	}
	return nil
}
