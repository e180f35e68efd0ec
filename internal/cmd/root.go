// Package cmd implements the pushlog command tree.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dataward/pushlog/internal/observability"
)

// versionInfo holds build metadata injected at link time.
var versionInfo = struct {
	Version   string
	Commit    string
	BuildDate string
}{
	Version:   "dev",
	Commit:    "HEAD",
	BuildDate: "unknown",
}

// SetVersionInfo records build metadata for the version command and
// the serve-mode version endpoint.
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
}

// AppIdentity names the binary for config and env resolution.
type AppIdentity struct {
	BinaryName string
	EnvPrefix  string
	ConfigName string
}

var appIdentity *AppIdentity

// GetAppIdentity returns the process identity, or nil before init.
func GetAppIdentity() *AppIdentity {
	return appIdentity
}

var (
	logLevel string
	logJSON  bool
)

var rootCmd = &cobra.Command{
	Use:   "pushlog",
	Short: "DataPusher+ worker log analytics",
	Long: `pushlog analyzes DataPusher+ worker logs: it segments job blocks,
extracts processing metrics, classifies outcomes, and produces an
analysis table plus JSON analytics artifacts.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initApp()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Emit logs as JSON")
}

func initApp() error {
	appIdentity = &AppIdentity{
		BinaryName: "pushlog",
		EnvPrefix:  "PUSHLOG",
		ConfigName: "pushlog",
	}

	setDefaults()

	observability.InitCLILogger(logLevel, logJSON)
	return nil
}

// setDefaults seeds the global viper instance used for flag and env
// resolution across commands.
func setDefaults() {
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")
	viper.SetDefault("server.shutdown_timeout", "10s")
	viper.SetDefault("server.rate_limit", 10.0)
	viper.SetDefault("server.burst", 20)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.json", false)

	viper.SetDefault("metrics.enabled", true)

	viper.SetDefault("history.database", "")
	viper.SetDefault("runs.dir", defaultRunsDir())

	viper.SetDefault("workers", 4)
}

func defaultRunsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pushlog/runs"
	}
	return home + "/.pushlog/runs"
}

// codedError carries a process exit code alongside the error chain.
type codedError struct {
	code    int
	message string
	err     error
}

func (e *codedError) Error() string {
	return fmt.Sprintf("%s: %v (exit code %d)", e.message, e.err, e.code)
}

func (e *codedError) Unwrap() error { return e.err }

// exitError creates an error that will cause the CLI to exit with the given code.
func exitError(code int, message string, err error) error {
	return &codedError{code: code, message: message, err: err}
}

// Execute runs the command tree and returns the process exit code.
func Execute(ctx context.Context) int {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		observability.SyncLogger()

		var coded *codedError
		if errors.As(err, &coded) {
			return coded.code
		}
		return 1
	}

	observability.SyncLogger()
	return 0
}
