// Package config loads the run configuration: the separator table, the
// perspective definitions, document metadata and logging settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/diagraph/diagraph/internal/hierarchy"
	"github.com/diagraph/diagraph/internal/tagparse"
)

// Config holds all configuration for diagraph.
type Config struct {
	Document     DocumentConfig      `mapstructure:"document"`
	Parser       ParserConfig        `mapstructure:"parser"`
	Perspectives []PerspectiveConfig `mapstructure:"perspectives"`
	Logging      LoggingConfig       `mapstructure:"logging"`
}

// DocumentConfig holds export document metadata.
type DocumentConfig struct {
	Name string `mapstructure:"name"`
}

// SeparatorRule binds one separator to its naming category. Rule order
// defines priority: earlier rules bind tighter.
type SeparatorRule struct {
	Separator string `mapstructure:"separator"`
	Category  string `mapstructure:"category"`
}

// ParserConfig holds the tag parser's separator table.
type ParserConfig struct {
	PinSeparator string          `mapstructure:"pin_separator"`
	Separators   []SeparatorRule `mapstructure:"separators"`
}

// PerspectiveConfig defines one tree view over a subset of separators.
type PerspectiveConfig struct {
	Name       string   `mapstructure:"name"`
	Separators []string `mapstructure:"separators"`
	Primary    bool     `mapstructure:"primary"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load() (*Config, error) {
	v := viper.New()

	// Defaults follow IEC 81346 designations: "=" function, "+" location,
	// "-" product; ":" introduces the connector path.
	v.SetDefault("document.name", "diagraph-export")
	v.SetDefault("parser.pin_separator", tagparse.DefaultPinSeparator)
	v.SetDefault("parser.separators", []map[string]string{
		{"separator": "=", "category": "Functional"},
		{"separator": "+", "category": "Location"},
		{"separator": "-", "category": "Product"},
	})
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(filepath.Join(homeDir(), ".diagraph"))
	v.AddConfigPath(".")

	v.SetEnvPrefix("DIAGRAPH")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// Config file not found is OK, use defaults + env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are set and consistent.
// The separator table itself is validated by tagparse.NewConfig.
func (c *Config) Validate() error {
	if c.Document.Name == "" {
		return fmt.Errorf("document.name must not be empty")
	}
	parserCfg, err := c.ParserConfig()
	if err != nil {
		return err
	}
	primaries := 0
	for _, p := range c.Perspectives {
		if p.Name == "" {
			return fmt.Errorf("perspective with empty name")
		}
		if len(p.Separators) == 0 {
			return fmt.Errorf("perspective %q lists no separators", p.Name)
		}
		for _, sep := range p.Separators {
			if parserCfg.Priority(sep) < 0 {
				return fmt.Errorf("perspective %q references unknown separator %q", p.Name, sep)
			}
		}
		if p.Primary {
			primaries++
		}
	}
	if len(c.Perspectives) > 0 && primaries != 1 {
		return fmt.Errorf("exactly one perspective must be primary, got %d", primaries)
	}
	return nil
}

// ParserConfig builds the tag parser configuration.
func (c *Config) ParserConfig() (tagparse.Config, error) {
	rules := make([]tagparse.Rule, 0, len(c.Parser.Separators))
	for _, r := range c.Parser.Separators {
		rules = append(rules, tagparse.Rule{Separator: r.Separator, Category: r.Category})
	}
	cfg, err := tagparse.NewConfig(rules, c.Parser.PinSeparator)
	if err != nil {
		return tagparse.Config{}, fmt.Errorf("parser.separators: %w", err)
	}
	return cfg, nil
}

// HierarchyPerspectives returns the configured perspectives, or the derived
// default set when none are configured: one primary structural tree over all
// separators plus one tree per distinct naming category.
func (c *Config) HierarchyPerspectives(parserCfg tagparse.Config) []hierarchy.Perspective {
	if len(c.Perspectives) > 0 {
		out := make([]hierarchy.Perspective, 0, len(c.Perspectives))
		for _, p := range c.Perspectives {
			out = append(out, hierarchy.Perspective{
				Name:       p.Name,
				Separators: append([]string(nil), p.Separators...),
				Primary:    p.Primary,
			})
		}
		return out
	}
	var all []string
	for _, r := range parserCfg.Rules {
		all = append(all, r.Separator)
	}
	out := []hierarchy.Perspective{{Name: "ECAD", Separators: all, Primary: true}}
	for _, category := range parserCfg.Categories() {
		out = append(out, hierarchy.Perspective{
			Name:       category,
			Separators: parserCfg.SeparatorsOf(category),
		})
	}
	return out
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
