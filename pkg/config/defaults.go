package config

import (
	"os"
	"strconv"
)

// Built-in family names.
const (
	FamilyStartle    = "startle"
	FamilyRegulation = "regulation"
)

// Built-in line patterns. Group 1 is the timestamp, group 2 the turbine.
const (
	StartleStartPattern    = `^(\d+-\d+-\d+ \d+:\d+:\d+\.\d+) \+\d+:\d+ \[INF\] \[StartleController\] Play : Received for wind turbine (\d+-[A-Z]\d) PLAY startle for speakers : .+`
	StartleStopPattern     = `^(\d+-\d+-\d+ \d+:\d+:\d+\.\d+) \+\d+:\d+ \[INF\] \[StartleController\] Stop : Received for wind turbine (\d+-[A-Z]\d) STOP startle for speakers : .+`
	RegulationStartPattern = `^(\d+-\d+-\d+ \d+:\d+:\d+\.\d+) \+\d+:\d+ \[INF\] \[MuninController\] Regulate : Received for wind turbine (\d+-[A-Z]\d) regulate value : PAUSE DONE`
	RegulationStopPattern  = `^(\d+-\d+-\d+ \d+:\d+:\d+\.\d+) \+\d+:\d+ \[INF\] \[MuninController\] Regulate : Received for wind turbine (\d+-[A-Z]\d) regulate value : RUN DONE`
)

// Environment variable names.
const (
	EnvSkipMalformed = "TURBINELOG_SKIP_MALFORMED"
	EnvOutputFormat  = "TURBINELOG_OUTPUT"
)

// DefaultFamilies returns the startle and regulation families.
func DefaultFamilies() []FamilyConfig {
	return []FamilyConfig{
		{
			Name:         FamilyStartle,
			Description:  "Startle speaker Play/Stop triggers",
			StartPattern: StartleStartPattern,
			StopPattern:  StartleStopPattern,
			SortEvents:   false,
			AllowWindow:  true,
		},
		{
			Name:         FamilyRegulation,
			Description:  "Regulation PAUSE DONE/RUN DONE cycles",
			StartPattern: RegulationStartPattern,
			StopPattern:  RegulationStopPattern,
			SortEvents:   true,
			AllowWindow:  false,
		},
	}
}

// DefaultConfig returns a configuration with the built-in families.
func DefaultConfig() *Config {
	return &Config{
		Output:   OutputConfig{Format: FormatText},
		Families: DefaultFamilies(),
	}
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
func (c *Config) applyEnvironmentOverrides() {
	if v := os.Getenv(EnvSkipMalformed); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.SkipMalformed = b
		}
	}
	if v := os.Getenv(EnvOutputFormat); v != "" {
		c.Output.Format = v
	}
}
