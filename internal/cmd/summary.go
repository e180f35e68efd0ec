package cmd

import (
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"

	"github.com/dataward/pushlog/pkg/analytics"
)

var summaryCmd = &cobra.Command{
	Use:   "summary <worker.csv>",
	Short: "Print the executive summary for an analysis table",
	Long: `Re-load a previously written analysis table and print the executive
summary JSON: system health, availability, throughput, quality grade,
and the top recommendations.

Example:
  pushlog summary report.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, args []string) error {
	records, err := loadReport(args[0])
	if err != nil {
		return exitError(foundry.ExitFileReadError, "Failed to load report", err)
	}

	return printJSON(analytics.ExecutiveSummary(records))
}
