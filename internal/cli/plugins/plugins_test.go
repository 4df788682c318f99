package plugins

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFindPlugin_NotFound(t *testing.T) {
	t.Setenv(EnvPluginDir, t.TempDir())

	_, err := FindPlugin("nonexistent-plugin-xyz")
	if err != ErrPluginNotFound {
		t.Errorf("expected ErrPluginNotFound, got %v", err)
	}
}

func TestFindPlugin_InPluginsDir(t *testing.T) {
	pluginsDir := t.TempDir()
	t.Setenv(EnvPluginDir, pluginsDir)

	pluginPath := filepath.Join(pluginsDir, "turbinelog-testplugin")
	if err := os.WriteFile(pluginPath, []byte("#!/bin/sh\necho test"), 0755); err != nil {
		t.Fatalf("failed to create test plugin: %v", err)
	}

	found, err := FindPlugin("testplugin")
	if err != nil {
		t.Errorf("expected to find plugin, got error: %v", err)
	}
	if found != pluginPath {
		t.Errorf("expected %s, got %s", pluginPath, found)
	}
}

func TestUserPluginDir(t *testing.T) {
	t.Setenv(EnvPluginDir, "/opt/turbinelog/plugins")

	dir, err := UserPluginDir()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dir != "/opt/turbinelog/plugins" {
		t.Errorf("expected override dir, got %s", dir)
	}

	t.Setenv(EnvPluginDir, "")
	dir, err = UserPluginDir()
	if err != nil {
		t.Fatalf("unexpected error without override: %v", err)
	}
	if !strings.HasSuffix(dir, filepath.Join(".turbinelog", "plugins")) {
		t.Errorf("expected ~/.turbinelog/plugins, got %s", dir)
	}
}

func TestExecute_ExitCode(t *testing.T) {
	dir := t.TempDir()
	pluginPath := filepath.Join(dir, "turbinelog-fail")
	if err := os.WriteFile(pluginPath, []byte("#!/bin/sh\nexit 3\n"), 0755); err != nil {
		t.Fatalf("failed to create test plugin: %v", err)
	}

	if code := Execute(pluginPath, nil); code != 3 {
		t.Errorf("expected exit code 3, got %d", code)
	}
}

func TestFormatNotFoundError_KnownPlugin(t *testing.T) {
	err := FormatNotFoundError("gui")

	if !strings.Contains(err, "gui") {
		t.Error("expected error to contain 'gui'")
	}
	if !strings.Contains(err, "available as a plugin") {
		t.Error("expected error to mention plugin availability")
	}
	if !strings.Contains(err, "turbinelog-gui") {
		t.Error("expected error to mention turbinelog-gui")
	}
}

func TestFormatNotFoundError_UnknownPlugin(t *testing.T) {
	err := FormatNotFoundError("unknown")

	if !strings.Contains(err, "unknown") {
		t.Error("expected error to contain 'unknown'")
	}
	if !strings.Contains(err, "turbinelog-unknown") {
		t.Error("expected error to mention turbinelog-unknown")
	}
	if strings.Contains(err, "available as a plugin") {
		t.Error("should not mention plugin availability for unknown plugins")
	}
}

func TestIsExecutable(t *testing.T) {
	tmpDir := t.TempDir()

	nonExec := filepath.Join(tmpDir, "nonexec")
	if err := os.WriteFile(nonExec, []byte("test"), 0644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}

	if isExecutable(nonExec) {
		t.Error("non-executable file should not be detected as executable")
	}

	exec := filepath.Join(tmpDir, "exec")
	if err := os.WriteFile(exec, []byte("test"), 0755); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}

	if !isExecutable(exec) {
		t.Error("executable file should be detected as executable")
	}

	if isExecutable(filepath.Join(tmpDir, "nonexistent")) {
		t.Error("non-existent file should not be detected as executable")
	}

	if isExecutable(tmpDir) {
		t.Error("directory should not be detected as executable")
	}
}

func TestKnownPlugins(t *testing.T) {
	if _, ok := KnownPlugins["gui"]; !ok {
		t.Error("expected 'gui' to be in KnownPlugins")
	}
}
