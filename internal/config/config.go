// Package config loads analyzer settings from defaults, an optional YAML
// file, MAPPROF_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/VladMinzatu/mapprof/internal/classify"
	"github.com/VladMinzatu/mapprof/internal/insight"
	"github.com/VladMinzatu/mapprof/internal/mapfile"
)

const (
	EnvPrefix = "MAPPROF"
	FileName  = "mapprof"
)

type Config struct {
	CeilingBytes uint64           `mapstructure:"ceiling_bytes" yaml:"ceiling_bytes"`
	Template     TemplateConfig   `mapstructure:"template" yaml:"template"`
	Folding      FoldingConfig    `mapstructure:"folding" yaml:"folding"`
	Top          TopConfig        `mapstructure:"top" yaml:"top"`
	Classifier   ClassifierConfig `mapstructure:"classifier" yaml:"classifier"`
	Log          LogConfig        `mapstructure:"log" yaml:"log"`
}

type TemplateConfig struct {
	Threshold int `mapstructure:"threshold" yaml:"threshold"`
	KeyLength int `mapstructure:"key_length" yaml:"key_length"`
}

type FoldingConfig struct {
	KeyLength int `mapstructure:"key_length" yaml:"key_length"`
}

// TopConfig holds the cutoffs of the ranked views.
type TopConfig struct {
	Objects     int `mapstructure:"objects" yaml:"objects"`
	JSONObjects int `mapstructure:"json_objects" yaml:"json_objects"`
	Templates   int `mapstructure:"templates" yaml:"templates"`
	Containers  int `mapstructure:"containers" yaml:"containers"`
}

type ClassifierConfig struct {
	LibraryFragments []string `mapstructure:"library_fragments" yaml:"library_fragments"`
	ModuleMarkers    []string `mapstructure:"module_markers" yaml:"module_markers"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

func Default() *Config {
	return &Config{
		CeilingBytes: mapfile.DefaultSizeCeiling,
		Template: TemplateConfig{
			Threshold: insight.DefaultTemplateThreshold,
			KeyLength: insight.DefaultTemplateKeyLength,
		},
		Folding: FoldingConfig{KeyLength: insight.DefaultFoldingKeyLength},
		Top: TopConfig{
			Objects:     15,
			JSONObjects: 20,
			Templates:   20,
			Containers:  15,
		},
		Classifier: ClassifierConfig{
			LibraryFragments: append([]string(nil), classify.DefaultLibraryFragments...),
			ModuleMarkers:    append([]string(nil), classify.DefaultModuleMarkers...),
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// SetDefaults registers every default on v so that environment variables
// and unmarshalling see the full key set.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("ceiling_bytes", d.CeilingBytes)
	v.SetDefault("template.threshold", d.Template.Threshold)
	v.SetDefault("template.key_length", d.Template.KeyLength)
	v.SetDefault("folding.key_length", d.Folding.KeyLength)
	v.SetDefault("top.objects", d.Top.Objects)
	v.SetDefault("top.json_objects", d.Top.JSONObjects)
	v.SetDefault("top.templates", d.Top.Templates)
	v.SetDefault("top.containers", d.Top.Containers)
	v.SetDefault("classifier.library_fragments", d.Classifier.LibraryFragments)
	v.SetDefault("classifier.module_markers", d.Classifier.ModuleMarkers)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// Load resolves the configuration. An explicit path must exist; otherwise
// mapprof.yaml is looked up in the working directory and in
// $HOME/.config/mapprof, and its absence is not an error.
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", FileName))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.CeilingBytes == 0 {
		errs = append(errs, errors.New("ceiling_bytes must be > 0"))
	}
	if c.Template.Threshold < 1 {
		errs = append(errs, errors.New("template.threshold must be >= 1"))
	}
	if c.Template.KeyLength < 1 {
		errs = append(errs, errors.New("template.key_length must be >= 1"))
	}
	if c.Folding.KeyLength < 1 {
		errs = append(errs, errors.New("folding.key_length must be >= 1"))
	}
	if c.Top.Objects < 0 || c.Top.JSONObjects < 0 || c.Top.Templates < 0 || c.Top.Containers < 0 {
		errs = append(errs, errors.New("top cutoffs must not be negative"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c *Config) ClassifierOptions() classify.Options {
	return classify.Options{
		ModuleMarkers:    c.Classifier.ModuleMarkers,
		LibraryFragments: c.Classifier.LibraryFragments,
	}
}

func (c *Config) InsightOptions() insight.Options {
	return insight.Options{
		Template: insight.TemplateOptions{Threshold: c.Template.Threshold, KeyLength: c.Template.KeyLength},
		Folding:  insight.FoldingOptions{KeyLength: c.Folding.KeyLength},
	}
}

// WriteDefault stores the default configuration as YAML at path. An existing
// file is only replaced when overwrite is set.
func WriteDefault(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file %s already exists", path)
		}
	}
	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
