package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/blockq/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or modify blockq configuration",
	Long: `View or modify blockq configuration.

Without arguments, displays the effective configuration as YAML.
Use subcommands to modify settings or create a config file.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the user's config file.

Keys use dot notation, e.g.:
  blockq config set harness.priority 3
  blockq config set supervisor.poll_interval_ms 500
  blockq config set run.format json

Run 'blockq config show' to list every key.`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long:  `Create a default config file at ~/.config/blockq/config.yaml with all available options.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	RunE:  runConfigPath,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
}

// configView mirrors config.Config with yaml tags for display.
type configView struct {
	Harness struct {
		Priority int `yaml:"priority"`
	} `yaml:"harness"`
	Kernel struct {
		TimeSliceMs int `yaml:"time_slice_ms"`
	} `yaml:"kernel"`
	Supervisor struct {
		PollIntervalMs int `yaml:"poll_interval_ms"`
	} `yaml:"supervisor"`
	Display struct {
		Enabled    bool `yaml:"enabled"`
		BufferSize int  `yaml:"buffer_size"`
		History    int  `yaml:"history"`
	} `yaml:"display"`
	Logging struct {
		Enabled bool   `yaml:"enabled"`
		Level   string `yaml:"level"`
		Dir     string `yaml:"dir"`
	} `yaml:"logging"`
	Run struct {
		DurationSeconds int    `yaml:"duration_seconds"`
		StopOnGoal      bool   `yaml:"stop_on_goal"`
		Format          string `yaml:"format"`
		Filter          string `yaml:"filter"`
	} `yaml:"run"`
	TUI struct {
		RefreshMs    int `yaml:"refresh_ms"`
		MessageLines int `yaml:"message_lines"`
	} `yaml:"tui"`
}

func newConfigView(cfg *config.Config) configView {
	var v configView
	v.Harness.Priority = cfg.Harness.Priority
	v.Kernel.TimeSliceMs = cfg.Kernel.TimeSliceMs
	v.Supervisor.PollIntervalMs = cfg.Supervisor.PollIntervalMs
	v.Display.Enabled = cfg.Display.Enabled
	v.Display.BufferSize = cfg.Display.BufferSize
	v.Display.History = cfg.Display.History
	v.Logging.Enabled = cfg.Logging.Enabled
	v.Logging.Level = cfg.Logging.Level
	v.Logging.Dir = cfg.Logging.Dir
	v.Run.DurationSeconds = cfg.Run.DurationSeconds
	v.Run.StopOnGoal = cfg.Run.StopOnGoal
	v.Run.Format = cfg.Run.Format
	v.Run.Filter = cfg.Run.Filter
	v.TUI.RefreshMs = cfg.TUI.RefreshMs
	v.TUI.MessageLines = cfg.TUI.MessageLines
	return v
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load()
	if err != nil {
		// Show what will actually be used, then the problem.
		fmt.Fprintf(out, "# invalid configuration, showing defaults:\n# %s\n",
			strings.ReplaceAll(strings.TrimSpace(err.Error()), "\n", "\n# "))
		cfg = config.Default()
	}

	// Show where config is being read from
	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "# config file: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintln(out, "# config file: (none - using defaults)")
	}

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(newConfigView(cfg)); err != nil {
		return err
	}
	return enc.Close()
}

// settableKeys maps each config key to its value kind.
var settableKeys = map[string]string{
	"harness.priority":            "int",
	"kernel.time_slice_ms":        "int",
	"supervisor.poll_interval_ms": "int",
	"display.enabled":             "bool",
	"display.buffer_size":         "int",
	"display.history":             "int",
	"logging.enabled":             "bool",
	"logging.level":               "string",
	"logging.dir":                 "string",
	"run.duration_seconds":        "int",
	"run.stop_on_goal":            "bool",
	"run.format":                  "string",
	"run.filter":                  "string",
	"tui.refresh_ms":              "int",
	"tui.message_lines":           "int",
}

// parseConfigValue converts value to the kind registered for key.
func parseConfigValue(key, value string) (any, error) {
	keyType, ok := settableKeys[key]
	if !ok {
		return nil, fmt.Errorf("unknown configuration key: %s\nRun 'blockq config show' to see valid keys", key)
	}

	switch keyType {
	case "bool":
		if value != "true" && value != "false" {
			return nil, fmt.Errorf("invalid value for %s: expected true or false", key)
		}
		return value == "true", nil
	case "int":
		intVal, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: expected integer", key)
		}
		return intVal, nil
	default:
		return value, nil
	}
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	typedValue, err := parseConfigValue(key, args[1])
	if err != nil {
		return err
	}

	// Reject values the run command would refuse.
	viper.Set(key, typedValue)
	if _, err := config.Load(); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}

	// Ensure config directory exists
	configDir := config.ConfigDir()
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configFile := config.ConfigFile()
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Set %s = %v\n", key, typedValue)
	fmt.Fprintf(out, "Config saved to %s\n", configFile)
	return nil
}

const defaultConfigContent = `# blockq configuration

# Elevated priority for the privileged task of scenarios 1 and 2 (idle is 0)
harness:
  priority: 2

# Scheduler settings
kernel:
  # How long a task may run while an equal-priority task is ready
  time_slice_ms: 1

# Liveness polling
supervisor:
  poll_interval_ms: 2000

# Task start and diagnostic messages
display:
  enabled: true
  # Messages queued before new ones are dropped
  buffer_size: 64
  # Recent messages kept for the dashboard
  history: 50

# Structured debug logging (JSON)
logging:
  enabled: false
  # Options: debug, info, warn, error
  level: info
  # Directory for blockq.log; empty logs to stderr
  dir: ""

# Defaults for 'blockq run'
run:
  # 0 runs until interrupted
  duration_seconds: 0
  stop_on_goal: false
  # Options: text, json, yaml
  format: text
  # Glob selecting report rows, e.g. "QCons*"
  filter: ""

# Dashboard (blockq run --tui)
tui:
  refresh_ms: 250
  message_lines: 8
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configDir := config.ConfigDir()
	configFile := config.ConfigFile()

	// Check if config file already exists
	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists at %s\nUse 'blockq config set' to modify values", configFile)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(configFile, []byte(defaultConfigContent), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created config file at %s\n", configFile)
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	configFile := config.ConfigFile()

	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Active config: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "Default path: %s (not created)\n", configFile)
	}

	// Also show config search paths
	fmt.Fprintln(out, "\nSearch paths:")
	fmt.Fprintf(out, "  1. %s\n", filepath.Join(config.ConfigDir(), "config.yaml"))
	fmt.Fprintf(out, "  2. $HOME/.config/blockq/config.yaml\n")
	fmt.Fprintf(out, "  3. ./config.yaml (current directory)\n")
	fmt.Fprintln(out, "\nEnvironment variables: BLOCKQ_* (e.g., BLOCKQ_HARNESS_PRIORITY)")
	return nil
}
