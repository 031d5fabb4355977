package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"
)

// ConfigTmpl holds defaults for every configuration field.
//
//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	// DocumentConfig holds program wide defaults for produced books, book
	// configuration overrides them per book.
	DocumentConfig struct {
		FixZip                bool        `yaml:"fix_zip"`
		OutputNameTemplate    string      `yaml:"output_name_template"`
		FileNameTransliterate bool        `yaml:"file_name_transliterate"`
		TOCTitle              string      `yaml:"toc_title" validate:"required"`
		Language              string      `yaml:"language" validate:"required,bcp47_language_tag"`
		WritingMode           WritingMode `yaml:"writing_mode" validate:"gte=0"`
		TOCLevel              int         `yaml:"toc_level" validate:"min=1,max=5"`
		PreserveStaging       bool        `yaml:"preserve_staging"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Document  DocumentConfig `yaml:"document"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

// OutputNameTemplateFieldName names the only templated field, it must match
// its yaml tag and is kept intact when defaults are expanded.
const OutputNameTemplateFieldName TemplateFieldName = "output_name_template"

var requiredOptions = []func(*gencfg.ProcessingOptions){
	gencfg.WithDoNotExpandField(string(OutputNameTemplateFieldName)),
}

// decode overlays YAML document onto cfg, fields not defined by Config are
// rejected.
func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("unable to decode configuration: %w", err)
	}
	return nil
}

// check sanitizes and validates configuration assembled from all layers.
func check(cfg *Config) error {
	if err := gencfg.Sanitize(cfg); err != nil {
		return fmt.Errorf("unable to sanitize configuration: %w", err)
	}
	if err := gencfg.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// LoadConfiguration builds configuration from two layers: defaults expanded
// from embedded template and optional user file at path. Result is validated
// once both layers are applied.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	data, err := gencfg.Process(ConfigTmpl, slices.Concat(requiredOptions, options)...)
	if err != nil {
		return nil, fmt.Errorf("unable to process configuration template: %w", err)
	}

	cfg := &Config{}
	if err := decode(data, cfg); err != nil {
		return nil, fmt.Errorf("defaults: %w", err)
	}
	if len(path) > 0 {
		if data, err = os.ReadFile(path); err != nil {
			return nil, fmt.Errorf("unable to read configuration file: %w", err)
		}
		if err := decode(data, cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	if err := check(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Template returns default configuration expanded from embedded template.
func Template() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

// Dump returns actual configuration as YAML.
func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to encode configuration: %w", err)
	}
	return data, nil
}
