package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default() returned nil")
	}

	if cfg.Harness.Priority != 2 {
		t.Errorf("Harness.Priority = %d, want 2", cfg.Harness.Priority)
	}
	if cfg.Kernel.TimeSliceMs != 1 {
		t.Errorf("Kernel.TimeSliceMs = %d, want 1", cfg.Kernel.TimeSliceMs)
	}
	if cfg.Supervisor.PollIntervalMs != 2000 {
		t.Errorf("Supervisor.PollIntervalMs = %d, want 2000", cfg.Supervisor.PollIntervalMs)
	}
	if !cfg.Display.Enabled {
		t.Error("Display.Enabled should be true by default")
	}
	if cfg.Display.BufferSize != 64 {
		t.Errorf("Display.BufferSize = %d, want 64", cfg.Display.BufferSize)
	}
	if cfg.Logging.Enabled {
		t.Error("Logging.Enabled should be false by default")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
	if cfg.Run.Format != "text" {
		t.Errorf("Run.Format = %q, want text", cfg.Run.Format)
	}
	if cfg.Run.DurationSeconds != 0 || cfg.Run.StopOnGoal {
		t.Error("Run should default to an unlimited run that ignores the goal")
	}
}

func TestDurations(t *testing.T) {
	cfg := Default()
	cfg.Run.DurationSeconds = 30

	tests := []struct {
		name string
		got  time.Duration
		want time.Duration
	}{
		{"time slice", cfg.Kernel.TimeSlice(), time.Millisecond},
		{"poll interval", cfg.Supervisor.PollInterval(), 2 * time.Second},
		{"run duration", cfg.Run.Duration(), 30 * time.Second},
		{"refresh", cfg.TUI.RefreshInterval(), 250 * time.Millisecond},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestConfigDir(t *testing.T) {
	t.Run("uses XDG_CONFIG_HOME when set", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/custom/config")
		result := ConfigDir()
		expected := "/custom/config/blockq"
		if result != expected {
			t.Errorf("ConfigDir() = %q, want %q", result, expected)
		}
	})

	t.Run("falls back to home directory", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		result := ConfigDir()
		home, err := os.UserHomeDir()
		if err != nil {
			t.Skip("no home directory")
		}
		expected := filepath.Join(home, ".config", "blockq")
		if result != expected {
			t.Errorf("ConfigDir() = %q, want %q", result, expected)
		}
	})
}

func TestConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	result := ConfigFile()
	expected := "/custom/config/blockq/config.yaml"
	if result != expected {
		t.Errorf("ConfigFile() = %q, want %q", result, expected)
	}
}

func TestGet(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	SetDefaults()

	cfg := Get()
	if cfg == nil {
		t.Fatal("Get() returned nil")
	}
	if cfg.Harness.Priority != 2 {
		t.Errorf("Get().Harness.Priority = %d, want 2", cfg.Harness.Priority)
	}
}

func TestLoad_FromFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	SetDefaults()

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("harness:\n  priority: 4\nsupervisor:\n  poll_interval_ms: 500\nrun:\n  format: json\n  filter: \"QCons*\"\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if cfg.Harness.Priority != 4 {
		t.Errorf("Harness.Priority = %d, want 4", cfg.Harness.Priority)
	}
	if cfg.Supervisor.PollInterval() != 500*time.Millisecond {
		t.Errorf("PollInterval() = %v, want 500ms", cfg.Supervisor.PollInterval())
	}
	if cfg.Run.Format != "json" || cfg.Run.Filter != "QCons*" {
		t.Errorf("Run = %+v", cfg.Run)
	}
	// Unset keys keep their defaults.
	if cfg.Kernel.TimeSliceMs != 1 {
		t.Errorf("Kernel.TimeSliceMs = %d, want default 1", cfg.Kernel.TimeSliceMs)
	}
}

func TestLoad_InvalidFileReturnsValidationErrors(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	SetDefaults()
	viper.Set("harness.priority", 0)
	viper.Set("run.format", "xml")

	_, err := Load()
	verrs, ok := err.(ValidationErrors)
	if !ok {
		t.Fatalf("Load() error = %T %v, want ValidationErrors", err, err)
	}
	if len(verrs) != 2 {
		t.Errorf("got %d validation errors, want 2: %v", len(verrs), verrs)
	}

	// Get falls back to defaults.
	if cfg := Get(); cfg.Harness.Priority != 2 {
		t.Errorf("Get().Harness.Priority = %d, want default 2", cfg.Harness.Priority)
	}
}
