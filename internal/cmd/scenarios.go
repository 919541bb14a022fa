package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Iron-Ham/blockq/internal/blockq"
	"github.com/Iron-Ham/blockq/internal/report"
)

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "Show the fixed scenario table",
	Long: `Show the three producer/consumer scenarios: queue capacity, task names,
relative priorities and block times. Tasks are created in the order listed.`,
	Args: cobra.NoArgs,
	RunE: runScenarios,
}

var scenariosFormat string

func init() {
	rootCmd.AddCommand(scenariosCmd)
	scenariosCmd.Flags().StringVarP(&scenariosFormat, "format", "f", "text", "output format: text, json or yaml")
}

func runScenarios(cmd *cobra.Command, args []string) error {
	format, err := report.ParseFormat(scenariosFormat)
	if err != nil {
		return err
	}
	return report.EncodeScenarios(cmd.OutOrStdout(), report.Scenarios(blockq.Scenarios()), format)
}
