package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/blockq/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "blockq",
	Short: "Blocking queue correctness and liveness harness",
	Long: `blockq runs three producer/consumer pairs over bounded queues on a
single virtual CPU and checks that every value arrives in order and that
every task keeps making progress.

Scenario 1 lets an elevated consumer block on a one-slot queue, scenario 2
lets an elevated producer block on a full one, and scenario 3 runs both
tasks at idle priority over a five-slot queue.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/blockq/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath("$HOME/.config/blockq")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("BLOCKQ")
	// Replace dots with underscores for nested keys in env vars
	// e.g., BLOCKQ_HARNESS_PRIORITY for harness.priority
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	if err := viper.ReadInConfig(); err == nil {
		watchConfig()
	}
}

// watchConfig reports edits to the active config file. Running harnesses
// keep the settings they started with.
func watchConfig() {
	viper.OnConfigChange(func(e fsnotify.Event) {
		if e.Op&(fsnotify.Write|fsnotify.Create) == 0 {
			return
		}
		fmt.Fprintf(os.Stderr, "config file %s changed; restart to apply\n", e.Name)
	})
	viper.WatchConfig()
}
