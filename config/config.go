package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/pbudner/frictionminer/parsers"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Listener   string           `yaml:"listener"`
	BaseURL    string           `yaml:"base-url"`
	Logger     LoggerConfig     `yaml:"logger"`
	Parser     parsers.Config   `yaml:"parser"`
	Normalizer NormalizerConfig `yaml:"normalizer"`
	Engine     EngineConfig     `yaml:"engine"`
	Enrichment EnrichmentConfig `yaml:"enrichment"`
}

type LoggerConfig struct {
	Level zapcore.Level `yaml:"level"`
}

type NormalizerConfig struct {
	TimestampFormat    string          `yaml:"timestamp-format"`
	TimestampTzIanakey string          `yaml:"timestamp-tz-iana-key"`
	Synonyms           []SynonymConfig `yaml:"synonyms"`
}

// SynonymConfig replaces the accepted header names of one canonical field.
type SynonymConfig struct {
	Field    string   `yaml:"field"`
	Synonyms []string `yaml:"synonyms"`
}

type EngineConfig struct {
	Parallel  bool             `yaml:"parallel"`
	Detectors []DetectorConfig `yaml:"detectors"`
}

// DetectorConfig names a registered detector. All remaining keys are passed
// to the detector as its parameters.
type DetectorConfig struct {
	Name     string                 `yaml:"name"`
	Disabled bool                   `yaml:"disabled"`
	Params   map[string]interface{} `yaml:",inline"`
}

type EnrichmentConfig struct {
	Mode string `yaml:"mode"`
}

var defaultConfig = Config{
	Listener: "localhost:4711",
	BaseURL:  "",
	Logger: LoggerConfig{
		Level: zapcore.InfoLevel,
	},
	Enrichment: EnrichmentConfig{
		Mode: "mock",
	},
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := defaultConfig
	return &cfg
}

// NewConfig reads the configuration at path. An empty path yields the
// defaults.
func NewConfig(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	if err := ValidateConfigPath(path); err != nil {
		return nil, err
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return NewConfigFromStr(b)
}

// NewConfigFromStr decodes a YAML document on top of the defaults.
func NewConfigFromStr(b []byte) (*Config, error) {
	cfg := Default()
	if len(bytes.TrimSpace(b)) == 0 {
		return cfg, nil
	}

	d := yaml.NewDecoder(bytes.NewReader(b))
	d.KnownFields(true)
	if err := d.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	for i, detector := range cfg.Engine.Detectors {
		if detector.Name == "" {
			return nil, fmt.Errorf("engine.detectors[%d] has no name", i)
		}
	}

	return cfg, nil
}

// ValidateConfigPath just makes sure, that the path provided is a file,
// that can be read
func ValidateConfigPath(path string) error {
	s, err := os.Stat(path)
	if err != nil {
		return err
	}
	if s.IsDir() {
		return fmt.Errorf("'%s' is a directory, not a normal file", path)
	}
	return nil
}
