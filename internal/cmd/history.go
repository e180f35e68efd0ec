package cmd

import (
	"fmt"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dataward/pushlog/pkg/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show cross-run trends from the history database",
	Long: `Query the run-history database for per-run health trends and files
that fail across multiple runs.

Example:
  pushlog history --db pushlog.db
  pushlog history --db pushlog.db --file out.csv
  pushlog history --db pushlog.db --limit 20 --json`,
	RunE: runHistory,
}

var (
	historyDB    string
	historyFile  string
	historyLimit int
	historyJSON  bool
)

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().StringVar(&historyDB, "db", "", "History database path (default from config)")
	historyCmd.Flags().StringVar(&historyFile, "file", "", "Show error history for one file name")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "Number of runs to include")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Emit results as JSON")
}

func runHistory(cmd *cobra.Command, args []string) error {
	dbPath := historyDB
	if dbPath == "" {
		dbPath = viper.GetString("history.database")
	}
	if dbPath == "" {
		return exitError(foundry.ExitInvalidArgument, "No history database configured",
			fmt.Errorf("pass --db or set history.database"))
	}

	store, err := history.Open(dbPath)
	if err != nil {
		return exitError(foundry.ExitFileReadError, "Failed to open history database", err)
	}
	defer func() { _ = store.Close() }()

	if historyFile != "" {
		return showFileHistory(store, historyFile)
	}

	trend, err := store.Trend(historyLimit)
	if err != nil {
		return exitError(foundry.ExitFileReadError, "Failed to compute trend", err)
	}
	recurring, err := store.RecurringErrors(historyLimit)
	if err != nil {
		return exitError(foundry.ExitFileReadError, "Failed to query recurring errors", err)
	}

	if historyJSON {
		return printJSON(map[string]any{
			"trend":            trend,
			"recurring_errors": recurring,
		})
	}

	fmt.Printf("Run trend (last %d runs, oldest first):\n", len(trend))
	for _, p := range trend {
		fmt.Printf("  %-36s success=%.0f%% quality=%.1f time=%.2fs\n",
			p.RunID, p.SuccessRate*100, p.AvgQuality, p.AvgTime)
	}

	if len(recurring) > 0 {
		fmt.Println("\nFiles failing across multiple runs:")
		for _, r := range recurring {
			fmt.Printf("  %-32s %d errors in %d runs\n", r.FileName, r.Count, r.RunCount)
		}
	}
	return nil
}

// showFileHistory prints the error history of a single file across
// recorded runs.
func showFileHistory(store *history.Store, fileName string) error {
	runs, err := store.Runs(historyLimit)
	if err != nil {
		return exitError(foundry.ExitFileReadError, "Failed to list runs", err)
	}

	found := 0
	for _, run := range runs {
		jobs, err := store.Jobs(run.RunID)
		if err != nil {
			return exitError(foundry.ExitFileReadError, "Failed to list jobs", err)
		}
		for _, j := range jobs {
			if j.FileName != fileName {
				continue
			}
			found++
			fmt.Printf("  %s  run=%s  status=%s", j.Timestamp, run.RunID, j.Status)
			if j.ErrorType != "" {
				fmt.Printf("  error=%s", j.ErrorType)
			}
			fmt.Println()
		}
	}

	if found == 0 {
		fmt.Printf("No history for file %q in the last %d runs.\n", fileName, historyLimit)
	}
	return nil
}
