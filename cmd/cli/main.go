// turbinelog - Wind Turbine Event Interval Tool
//
// turbinelog extracts start/stop events from wind turbine control logs,
// pairs them per turbine and reports or exports the interval durations.
package main

import (
	"os"

	"github.com/windops/turbinelog/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
