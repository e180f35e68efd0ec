package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"

	"github.com/dataward/pushlog/pkg/analytics"
	"github.com/dataward/pushlog/pkg/report"
	"github.com/dataward/pushlog/pkg/worklog"
)

var anomaliesCmd = &cobra.Command{
	Use:   "anomalies <worker.csv>",
	Short: "Detect processing anomalies in an analysis table",
	Long: `Re-load a previously written analysis table and report jobs whose
processing time deviates significantly from the per-format baseline.

Example:
  pushlog anomalies report.csv
  pushlog anomalies report.csv --json`,
	Args: cobra.ExactArgs(1),
	RunE: runAnomalies,
}

var anomaliesJSON bool

func init() {
	rootCmd.AddCommand(anomaliesCmd)
	anomaliesCmd.Flags().BoolVar(&anomaliesJSON, "json", false, "Emit the full anomaly report as JSON")
}

// loadReport reads an analysis table produced by analyze.
func loadReport(path string) ([]worklog.JobRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return report.LoadRecords(f)
}

func runAnomalies(cmd *cobra.Command, args []string) error {
	records, err := loadReport(args[0])
	if err != nil {
		return exitError(foundry.ExitFileReadError, "Failed to load report", err)
	}

	rep := analytics.DetectAnomalies(records)

	if anomaliesJSON {
		return printJSON(rep)
	}

	if rep.Skipped {
		fmt.Printf("Anomaly detection skipped: %s\n", rep.Reason)
		return nil
	}
	if len(rep.Anomalies) == 0 {
		fmt.Println("No anomalies detected.")
		return nil
	}

	fmt.Printf("Detected %d anomalies across %d jobs (threshold %.2fs):\n\n",
		len(rep.Anomalies), len(records), rep.Threshold)
	for _, a := range rep.Anomalies {
		fmt.Printf("  [%s] %s: %.2fs (expected %.2fs, %.1fx)\n",
			a.Type, a.File, a.ActualTime, a.ExpectedTime, a.DeviationFactor)
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
