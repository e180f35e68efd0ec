package cmd

import (
	"fmt"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"

	"github.com/dataward/pushlog/pkg/analytics"
)

var insightsCmd = &cobra.Command{
	Use:   "insights <worker.csv>",
	Short: "Derive failure patterns and predictive insights",
	Long: `Re-load a previously written analysis table and report failure
patterns (by error type, format, size bucket, hour, and bursts) plus
predictive insights with recommendations.

Example:
  pushlog insights report.csv
  pushlog insights report.csv --json`,
	Args: cobra.ExactArgs(1),
	RunE: runInsights,
}

var insightsJSON bool

func init() {
	rootCmd.AddCommand(insightsCmd)
	insightsCmd.Flags().BoolVar(&insightsJSON, "json", false, "Emit the full reports as JSON")
}

func runInsights(cmd *cobra.Command, args []string) error {
	records, err := loadReport(args[0])
	if err != nil {
		return exitError(foundry.ExitFileReadError, "Failed to load report", err)
	}

	failures := analytics.AnalyzeFailures(records)
	insights := analytics.PredictiveInsights(records)

	if insightsJSON {
		return printJSON(map[string]any{
			"failure_patterns":    failures,
			"predictive_insights": insights,
		})
	}

	fmt.Println("Failure patterns by file format:")
	for format, count := range failures.ByFileFormat {
		fmt.Printf("  %-12s %d\n", format, count)
	}
	if len(failures.RecurringFiles) > 0 {
		fmt.Println("\nRecurring failing files:")
		for name, count := range failures.RecurringFiles {
			fmt.Printf("  %-32s %d\n", name, count)
		}
	}
	if len(failures.Bursts) > 0 {
		fmt.Println("\nFailure bursts:")
		for _, b := range failures.Bursts {
			fmt.Printf("  %s .. %s: %d errors\n", b.Start, b.End, b.Count)
		}
	}

	if len(insights) > 0 {
		fmt.Println("\nPredictive insights:")
		for _, ins := range insights {
			fmt.Printf("  [%s] %s\n", ins.Type, ins.Recommendation)
		}
	}
	return nil
}
