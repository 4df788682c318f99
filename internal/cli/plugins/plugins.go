// Package plugins provides exec-based plugin support for turbinelog.
// Plugins are separate binaries named turbinelog-<command> that are
// discovered and executed when an unknown command is invoked.
//
// This follows the same pattern used by kubectl and git for plugins.
package plugins

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Prefix is prepended to a command name to form the plugin binary name.
const Prefix = "turbinelog-"

// EnvPluginDir overrides the per-user plugin directory.
const EnvPluginDir = "TURBINELOG_PLUGIN_DIR"

// KnownPlugins lists plugins with a known purpose.
// These get special error messages describing what they provide.
var KnownPlugins = map[string]string{
	"gui": "Desktop window for loading logs, browsing intervals and exporting CSV.",
}

// ErrPluginNotFound is returned when no plugin binary can be located.
var ErrPluginNotFound = errors.New("plugin not found")

// UserPluginDir returns the per-user plugin directory: $TURBINELOG_PLUGIN_DIR
// when set, otherwise ~/.turbinelog/plugins.
func UserPluginDir() (string, error) {
	if dir := os.Getenv(EnvPluginDir); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".turbinelog", "plugins"), nil
}

// FindPlugin searches for a plugin binary named turbinelog-<command>.
// It searches in the following locations in order:
//  1. Same directory as the turbinelog binary
//  2. The user plugin directory (see UserPluginDir)
//  3. Anywhere in PATH
//
// Returns the full path to the plugin binary if found.
func FindPlugin(command string) (string, error) {
	pluginName := Prefix + command

	if execPath, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(execPath), pluginName)
		if isExecutable(candidate) {
			return candidate, nil
		}
	}

	if dir, err := UserPluginDir(); err == nil {
		candidate := filepath.Join(dir, pluginName)
		if isExecutable(candidate) {
			return candidate, nil
		}
	}

	if path, err := exec.LookPath(pluginName); err == nil {
		return path, nil
	}

	return "", ErrPluginNotFound
}

// Execute runs a plugin with the given arguments.
// It connects stdin, stdout, and stderr to the plugin process
// and returns the plugin's exit code.
func Execute(pluginPath string, args []string) int {
	cmd := exec.Command(pluginPath, args...) // #nosec G204 -- plugin path comes from FindPlugin
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode()
		}
		fmt.Fprintf(os.Stderr, "Error executing plugin: %v\n", err)
		return 2
	}

	return 0
}

// FormatNotFoundError returns a helpful error message when a plugin is not found.
// If the command is a known plugin, includes what it provides.
func FormatNotFoundError(command string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("unknown command %q for \"turbinelog\"\n", command))

	if info, ok := KnownPlugins[command]; ok {
		sb.WriteString(fmt.Sprintf("\n%q is available as a plugin.\n", command))
		sb.WriteString(info)
		sb.WriteString("\n\nInstall the plugin binary as one of:\n")
	} else {
		sb.WriteString("\nIf this is a plugin, install the binary as one of:\n")
	}

	sb.WriteString(fmt.Sprintf("  - %s%s in the same directory as turbinelog\n", Prefix, command))
	sb.WriteString(fmt.Sprintf("  - ~/.turbinelog/plugins/%s%s (or $%s)\n", Prefix, command, EnvPluginDir))
	sb.WriteString(fmt.Sprintf("  - %s%s anywhere in your PATH\n", Prefix, command))

	sb.WriteString("\nRun 'turbinelog --help' for usage.")

	return sb.String()
}

// isExecutable checks if a file exists and is executable.
func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	if info.Mode().IsRegular() {
		return info.Mode()&0111 != 0
	}

	return false
}
