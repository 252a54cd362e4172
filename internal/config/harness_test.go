package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "harness.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadHarnessConfigDefaults(t *testing.T) {
	cfg, err := LoadHarnessConfig("")
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("Default log level mismatch: got %s, want info", cfg.LogLevel)
	}
	if cfg.Transport != "auto" {
		t.Errorf("Default transport mismatch: got %s, want auto", cfg.Transport)
	}
	if len(cfg.CreativePaths) != 1 || cfg.CreativePaths[0] != "./creatives" {
		t.Errorf("Default creative paths mismatch: got %v, want [./creatives]", cfg.CreativePaths)
	}
	if cfg.ActionsQueue.Enabled {
		t.Error("Actions queue should be disabled by default")
	}
	if cfg.ActionsQueue.PollInterval != 100*time.Millisecond {
		t.Errorf("Default poll interval mismatch: got %v, want 100ms", cfg.ActionsQueue.PollInterval)
	}
	if cfg.Screen.Width != 360 || cfg.Screen.Height != 640 {
		t.Errorf("Default screen mismatch: got %+v", cfg.Screen)
	}
	if cfg.Run.Duration != 0 {
		t.Errorf("Default run duration mismatch: got %v, want 0", cfg.Run.Duration)
	}
	if cfg.Wasm.MemoryPages != 256 || cfg.Wasm.MaxInstances != 16 || cfg.Wasm.ExecutionTimeout != 30 {
		t.Errorf("Default wasm config mismatch: got %+v", cfg.Wasm)
	}
}

func TestLoadHarnessConfigFromFile(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
transport: injected
creative_paths:
  - ./bundles
  - /opt/creatives
actions_queue:
  enabled: true
  poll_interval: 250ms
screen:
  width: 320
  height: 480
vast:
  enabled: true
  duration: 15
trace:
  path: /tmp/run.cbor
run:
  duration: 5s
wasm:
  max_instances: 2
`)

	cfg, err := LoadHarnessConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("Log level mismatch: got %s, want debug", cfg.LogLevel)
	}
	if cfg.Transport != "injected" {
		t.Errorf("Transport mismatch: got %s, want injected", cfg.Transport)
	}
	if len(cfg.CreativePaths) != 2 || cfg.CreativePaths[1] != "/opt/creatives" {
		t.Errorf("Creative paths mismatch: got %v", cfg.CreativePaths)
	}
	if !cfg.ActionsQueue.Enabled || cfg.ActionsQueue.PollInterval != 250*time.Millisecond {
		t.Errorf("Actions queue mismatch: got %+v", cfg.ActionsQueue)
	}
	if cfg.Screen.Width != 320 || cfg.Screen.Height != 480 {
		t.Errorf("Screen mismatch: got %+v", cfg.Screen)
	}
	if !cfg.VAST.Enabled || cfg.VAST.Duration != 15 {
		t.Errorf("VAST mismatch: got %+v", cfg.VAST)
	}
	if cfg.Trace.Path != "/tmp/run.cbor" {
		t.Errorf("Trace path mismatch: got %s", cfg.Trace.Path)
	}
	if cfg.Run.Duration != 5*time.Second {
		t.Errorf("Run duration mismatch: got %v, want 5s", cfg.Run.Duration)
	}
	if cfg.Wasm.MaxInstances != 2 || cfg.Wasm.MemoryPages != 256 {
		t.Errorf("Wasm config mismatch: got %+v", cfg.Wasm)
	}
}

func TestLoadHarnessConfigEnvOverride(t *testing.T) {
	t.Setenv("MRAID_HARNESS_SCREEN_WIDTH", "1024")
	t.Setenv("MRAID_HARNESS_TRANSPORT", "scheme")

	cfg, err := LoadHarnessConfig("")
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Screen.Width != 1024 {
		t.Errorf("Screen width mismatch: got %v, want 1024", cfg.Screen.Width)
	}
	if cfg.Transport != "scheme" {
		t.Errorf("Transport mismatch: got %s, want scheme", cfg.Transport)
	}
}

func TestLoadHarnessConfigMissingFile(t *testing.T) {
	_, err := LoadHarnessConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("LoadHarnessConfig() should fail for a missing file")
	}
}

func TestLoadHarnessConfigInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		field   string
	}{
		{"unknown transport", "transport: carrier-pigeon\n", "transport"},
		{"unknown log level", "log_level: verbose\n", "log_level"},
		{"zero screen", "screen:\n  width: 0\n", "screen"},
		{"queue over scheme", "transport: scheme\nactions_queue:\n  enabled: true\n", "actions_queue.enabled"},
		{"queue without interval", "actions_queue:\n  enabled: true\n  poll_interval: 0s\n", "actions_queue.poll_interval"},
		{"vast without duration", "vast:\n  enabled: true\n  duration: 0\n", "vast.duration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadHarnessConfig(writeConfig(t, tt.content))

			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("Field = %s, want %s", cfgErr.Field, tt.field)
			}
		})
	}
}
