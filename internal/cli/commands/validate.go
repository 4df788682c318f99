package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// ValidateOptions holds options for the validate command.
type ValidateOptions struct {
	ShowEffective bool
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(global *GlobalOptions) *cobra.Command {
	opts := &ValidateOptions{}

	cmd := &cobra.Command{
		Use:   "validate [config-file]",
		Short: "Validate a configuration file",
		Long: `Validate a turbinelog configuration file without parsing any logs.

Without an argument, the file given by --config is validated, or the
built-in families when neither is set.

Checks:
  - YAML syntax
  - Output format
  - Family names (unique, not "auto")
  - Start/stop pattern validity and capture groups`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, args, global, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.ShowEffective, "show", false, "Print the effective configuration as YAML")

	return cmd
}

func runValidate(cmd *cobra.Command, args []string, global *GlobalOptions, opts *ValidateOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	target := *global
	if len(args) == 1 {
		target.ConfigPath = args[0]
	}

	w := cmd.OutOrStdout()
	name := target.ConfigPath
	if name == "" {
		name = "built-in configuration"
	}
	fmt.Fprintf(w, "Validating %s...\n", name)

	cfg, err := target.LoadConfig(ctx)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Fprintf(w, "\nConfiguration valid!\n")
	fmt.Fprintf(w, "  Output format:  %s\n", cfg.Output.Format)
	fmt.Fprintf(w, "  Skip malformed: %t\n", cfg.SkipMalformed)
	fmt.Fprintf(w, "  Families:       %d\n", len(cfg.Families))

	fmt.Fprintf(w, "\nFamilies:\n")
	for i, fam := range cfg.Families {
		fmt.Fprintf(w, "  %d. %s (sort: %t, window: %t)\n", i+1, fam.Name, fam.SortEvents, fam.AllowWindow)
		if fam.Description != "" {
			fmt.Fprintf(w, "     %s\n", fam.Description)
		}
	}

	if opts.ShowEffective {
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("rendering config: %w", err)
		}
		fmt.Fprintf(w, "\n--- Effective configuration ---\n%s", data)
	}

	return nil
}
