// Package cli provides the command-line interface for turbinelog.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/windops/turbinelog/internal/cli/commands"
	"github.com/windops/turbinelog/internal/cli/plugins"
)

// Execute runs the root command and returns the exit code.
func Execute() int {
	rootCmd := NewRootCommand()

	// Check if the first argument might be a plugin command
	if len(os.Args) > 1 {
		potentialCommand := os.Args[1]
		if len(potentialCommand) > 0 && potentialCommand[0] != '-' {
			if !isBuiltinCommand(rootCmd, potentialCommand) {
				if pluginPath, err := plugins.FindPlugin(potentialCommand); err == nil {
					return plugins.Execute(pluginPath, os.Args[2:])
				}
				// Plugin not found - will fall through to Cobra which will show error
			}
		}
	}

	if err := rootCmd.Execute(); err != nil {
		if len(os.Args) > 1 {
			potentialCommand := os.Args[1]
			if len(potentialCommand) > 0 && potentialCommand[0] != '-' {
				if !isBuiltinCommand(rootCmd, potentialCommand) {
					_, _ = fmt.Fprintln(os.Stderr, plugins.FormatNotFoundError(potentialCommand))
					return 2
				}
			}
		}
		// SilenceErrors keeps Cobra from printing this itself
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	return 0
}

// isBuiltinCommand checks if a command name is a built-in cobra command.
func isBuiltinCommand(rootCmd *cobra.Command, name string) bool {
	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == name || cmd.HasAlias(name) {
			return true
		}
	}
	return name == "help" || name == "completion"
}

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	global := &commands.GlobalOptions{}

	rootCmd := &cobra.Command{
		Use:   "turbinelog",
		Short: "Measure start/stop intervals in wind turbine logs",
		Long: `turbinelog reads wind turbine control logs, pairs each start event with
the next stop event for the same turbine, and reports how long every
interval lasted.

Event families:
  startle      Startle speaker Play/Stop triggers
  regulation   Regulation PAUSE DONE/RUN DONE cycles

More families can be defined in a YAML config file (--config).
Results are shown as a table, JSON or CSV, and can be exported to a
semicolon-separated CSV file.

PLUGINS:
  turbinelog supports plugins for extended functionality. Plugins are
  standalone binaries named turbinelog-<command> that are automatically
  discovered and invoked.

  Plugin locations (searched in order):
    1. Same directory as the turbinelog binary
    2. ~/.turbinelog/plugins/
    3. Anywhere in PATH

  Known plugins:
    gui      Desktop window for browsing and exporting intervals`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&global.ConfigPath, "config", "c", "", "Config file with event families (default: built-in)")
	rootCmd.PersistentFlags().StringVar(&global.LogLevel, "log-level", "warn", "Log level (debug|info|warn|error)")

	rootCmd.AddCommand(commands.NewParseCommand(global))
	rootCmd.AddCommand(commands.NewDetectCommand(global))
	rootCmd.AddCommand(commands.NewDiagnoseCommand(global))
	rootCmd.AddCommand(commands.NewValidateCommand(global))
	rootCmd.AddCommand(commands.NewVersionCommand())

	return rootCmd
}
