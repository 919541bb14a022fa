package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for blockq
type Config struct {
	Harness    HarnessConfig    `mapstructure:"harness"`
	Kernel     KernelConfig     `mapstructure:"kernel"`
	Supervisor SupervisorConfig `mapstructure:"supervisor"`
	Display    DisplayConfig    `mapstructure:"display"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Run        RunConfig        `mapstructure:"run"`
	TUI        TUIConfig        `mapstructure:"tui"`
}

// HarnessConfig controls how the scenarios are started.
// The scenarios themselves are fixed and cannot be configured.
type HarnessConfig struct {
	// Priority is the elevated priority given to the privileged tasks
	// (default: 2). Must be above idle (0).
	Priority int `mapstructure:"priority"`
}

// KernelConfig controls the scheduler
type KernelConfig struct {
	// TimeSliceMs is how long a task may hold the CPU while an equal-priority
	// task is ready (default: 1)
	TimeSliceMs int `mapstructure:"time_slice_ms"`
}

// SupervisorConfig controls liveness polling
type SupervisorConfig struct {
	// PollIntervalMs is the time between liveness polls (default: 2000)
	PollIntervalMs int `mapstructure:"poll_interval_ms"`
}

// DisplayConfig controls the message sink
type DisplayConfig struct {
	// Enabled prints task messages to stdout (default: true)
	Enabled bool `mapstructure:"enabled"`
	// BufferSize is the number of messages queued before new ones are dropped (default: 64)
	BufferSize int `mapstructure:"buffer_size"`
	// History is the number of recent messages kept for the dashboard (default: 50)
	History int `mapstructure:"history"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled controls whether structured logging is written (default: false)
	Enabled bool `mapstructure:"enabled"`
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
	// Dir is the directory for blockq.log. Empty logs to stderr.
	Dir string `mapstructure:"dir"`
}

// RunConfig controls the run command
type RunConfig struct {
	// DurationSeconds stops the run after this many seconds; 0 runs until
	// interrupted (default: 0)
	DurationSeconds int `mapstructure:"duration_seconds"`
	// StopOnGoal ends the run when the goal is reached (default: false)
	StopOnGoal bool `mapstructure:"stop_on_goal"`
	// Format is the final report format: "text", "json" or "yaml" (default: "text")
	Format string `mapstructure:"format"`
	// Filter is a glob limiting which tasks appear in the report (default: all)
	Filter string `mapstructure:"filter"`
}

// TUIConfig controls the dashboard
type TUIConfig struct {
	// RefreshMs is the dashboard refresh interval (default: 250)
	RefreshMs int `mapstructure:"refresh_ms"`
	// MessageLines is how many recent display messages are shown (default: 8)
	MessageLines int `mapstructure:"message_lines"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Harness: HarnessConfig{
			Priority: 2,
		},
		Kernel: KernelConfig{
			TimeSliceMs: 1,
		},
		Supervisor: SupervisorConfig{
			PollIntervalMs: 2000,
		},
		Display: DisplayConfig{
			Enabled:    true,
			BufferSize: 64,
			History:    50,
		},
		Logging: LoggingConfig{
			Enabled: false,
			Level:   "info",
			Dir:     "",
		},
		Run: RunConfig{
			DurationSeconds: 0,
			StopOnGoal:      false,
			Format:          "text",
			Filter:          "",
		},
		TUI: TUIConfig{
			RefreshMs:    250,
			MessageLines: 8,
		},
	}
}

// TimeSlice returns the kernel time slice as a time.Duration
func (c *KernelConfig) TimeSlice() time.Duration {
	return time.Duration(c.TimeSliceMs) * time.Millisecond
}

// PollInterval returns the liveness poll interval as a time.Duration
func (c *SupervisorConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// Duration returns the run duration as a time.Duration (0 means unlimited)
func (c *RunConfig) Duration() time.Duration {
	return time.Duration(c.DurationSeconds) * time.Second
}

// RefreshInterval returns the dashboard refresh interval as a time.Duration
func (c *TUIConfig) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshMs) * time.Millisecond
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("harness.priority", defaults.Harness.Priority)

	viper.SetDefault("kernel.time_slice_ms", defaults.Kernel.TimeSliceMs)

	viper.SetDefault("supervisor.poll_interval_ms", defaults.Supervisor.PollIntervalMs)

	viper.SetDefault("display.enabled", defaults.Display.Enabled)
	viper.SetDefault("display.buffer_size", defaults.Display.BufferSize)
	viper.SetDefault("display.history", defaults.Display.History)

	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)

	viper.SetDefault("run.duration_seconds", defaults.Run.DurationSeconds)
	viper.SetDefault("run.stop_on_goal", defaults.Run.StopOnGoal)
	viper.SetDefault("run.format", defaults.Run.Format)
	viper.SetDefault("run.filter", defaults.Run.Filter)

	viper.SetDefault("tui.refresh_ms", defaults.TUI.RefreshMs)
	viper.SetDefault("tui.message_lines", defaults.TUI.MessageLines)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "blockq")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".blockq"
	}
	return filepath.Join(home, ".config", "blockq")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
