package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads and validates a configuration file. An empty path yields the
// built-in configuration (still subject to environment overrides).
func Load(_ context.Context, path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 -- user-provided config path is expected
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		var fc fileConfig
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
		if err := cfg.merge(&fc); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.applyEnvironmentOverrides()

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// merge layers a parsed file over the defaults. Families are matched by
// name; unknown names are appended.
func (c *Config) merge(fc *fileConfig) error {
	if fc.SkipMalformed != nil {
		c.SkipMalformed = *fc.SkipMalformed
	}
	if fc.Output.Format != "" {
		c.Output.Format = fc.Output.Format
	}

	for i, o := range fc.Families {
		name := normalizeName(o.Name)
		if name == "" {
			return fmt.Errorf("families[%d]: name is required", i)
		}

		fam := c.lookup(name)
		if fam == nil {
			c.Families = append(c.Families, FamilyConfig{Name: name})
			fam = &c.Families[len(c.Families)-1]
		}

		if o.Description != nil {
			fam.Description = *o.Description
		}
		if o.StartPattern != nil {
			fam.StartPattern = *o.StartPattern
		}
		if o.StopPattern != nil {
			fam.StopPattern = *o.StopPattern
		}
		if o.SortEvents != nil {
			fam.SortEvents = *o.SortEvents
		}
		if o.AllowWindow != nil {
			fam.AllowWindow = *o.AllowWindow
		}
	}
	return nil
}

// Validate checks a configuration for errors and compiles regex patterns.
func Validate(cfg *Config) error {
	switch cfg.Output.Format {
	case "", FormatText, FormatJSON, FormatCSV:
	default:
		return fmt.Errorf("output.format: invalid format %q (must be text, json, or csv)", cfg.Output.Format)
	}

	if len(cfg.Families) == 0 {
		return errors.New("families: at least one family is required")
	}

	seen := make(map[string]bool)
	for i := range cfg.Families {
		fam := &cfg.Families[i]
		fam.Name = normalizeName(fam.Name)
		if seen[fam.Name] {
			return fmt.Errorf("families[%d]: duplicate name %q", i, fam.Name)
		}
		seen[fam.Name] = true

		if err := validateFamily(fam); err != nil {
			return fmt.Errorf("families[%d] (%s): %w", i, fam.Name, err)
		}
	}

	return nil
}

func validateFamily(fam *FamilyConfig) error {
	if fam.Name == "" {
		return errors.New("name is required")
	}
	if fam.Name == "auto" {
		return errors.New(`"auto" is reserved for family detection`)
	}

	re, err := compileEventPattern("start_pattern", fam.StartPattern)
	if err != nil {
		return err
	}
	fam.compiledStart = re

	re, err = compileEventPattern("stop_pattern", fam.StopPattern)
	if err != nil {
		return err
	}
	fam.compiledStop = re

	return nil
}

func compileEventPattern(field, pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, fmt.Errorf("%s is required", field)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", field, err)
	}
	if re.NumSubexp() < 2 {
		return nil, fmt.Errorf("%s must have 2 capture groups (timestamp, turbine id), has %d",
			field, re.NumSubexp())
	}
	return re, nil
}

// Family returns the named family. Names are case-insensitive.
func (c *Config) Family(name string) (*FamilyConfig, error) {
	if fam := c.lookup(normalizeName(name)); fam != nil {
		return fam, nil
	}
	return nil, fmt.Errorf("unknown family %q (available: %s)", name, strings.Join(c.FamilyNames(), ", "))
}

// FamilyNames lists configured family names in declaration order.
func (c *Config) FamilyNames() []string {
	names := make([]string, len(c.Families))
	for i := range c.Families {
		names[i] = c.Families[i].Name
	}
	return names
}

func (c *Config) lookup(name string) *FamilyConfig {
	for i := range c.Families {
		if c.Families[i].Name == name {
			return &c.Families[i]
		}
	}
	return nil
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
