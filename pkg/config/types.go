// Package config provides the event family registry and configuration
// loading for turbinelog.
package config

import (
	"regexp"
)

// Config is the root configuration structure.
type Config struct {
	// SkipMalformed skips matched lines whose timestamp cannot be parsed
	// instead of aborting the whole file.
	SkipMalformed bool `yaml:"skip_malformed"`

	Output   OutputConfig   `yaml:"output"`
	Families []FamilyConfig `yaml:"families"`
}

// OutputConfig controls how results are rendered.
type OutputConfig struct {
	// Format is the default rendering: text, json or csv.
	Format string `yaml:"format"`
}

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// FamilyConfig describes one event family: the pair of line patterns that
// open and close an interval, and how its events are ordered before pairing.
type FamilyConfig struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`

	// StartPattern and StopPattern capture the timestamp in group 1 and the
	// turbine identifier in group 2.
	StartPattern string `yaml:"start_pattern"`
	StopPattern  string `yaml:"stop_pattern"`

	// SortEvents sorts a file's events by timestamp before pairing. When
	// false, events are paired in file order.
	SortEvents bool `yaml:"sort_events"`

	// AllowWindow permits a time window to filter this family's events.
	AllowWindow bool `yaml:"allow_window"`

	compiledStart *regexp.Regexp
	compiledStop  *regexp.Regexp
}

// CompiledStartPattern returns the start pattern compiled during validation.
func (f *FamilyConfig) CompiledStartPattern() *regexp.Regexp {
	return f.compiledStart
}

// CompiledStopPattern returns the stop pattern compiled during validation.
func (f *FamilyConfig) CompiledStopPattern() *regexp.Regexp {
	return f.compiledStop
}

// familyOverride is the on-disk form of a family. Unset fields keep the
// built-in value when the name matches a built-in family.
type familyOverride struct {
	Name         string  `yaml:"name"`
	Description  *string `yaml:"description"`
	StartPattern *string `yaml:"start_pattern"`
	StopPattern  *string `yaml:"stop_pattern"`
	SortEvents   *bool   `yaml:"sort_events"`
	AllowWindow  *bool   `yaml:"allow_window"`
}

type fileConfig struct {
	SkipMalformed *bool            `yaml:"skip_malformed"`
	Output        OutputConfig     `yaml:"output"`
	Families      []familyOverride `yaml:"families"`
}
