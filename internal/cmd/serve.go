package cmd

import (
	"context"
	"fmt"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/dataward/pushlog/internal/config"
	"github.com/dataward/pushlog/internal/observability"
	"github.com/dataward/pushlog/internal/server"
	"github.com/dataward/pushlog/internal/server/handlers"
	"github.com/dataward/pushlog/pkg/history"
	"github.com/dataward/pushlog/pkg/runregistry"
)

// metricsCollector is the process-wide Prometheus collector, shared by
// analyze (run counters) and serve (/metrics endpoint).
var metricsCollector = observability.NewCollector()

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API over recorded runs",
	Long: `Start an HTTP server exposing recorded analysis runs: run records,
report tables, analytics artifacts, history queries, health probes,
and Prometheus metrics.`,
	RunE: runServe,
}

var (
	serveHost string
	servePort int
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "", "Listen host (default from config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Listen port (default from config)")
}

// signalHealthChecker reports liveness of the signal handling loop.
// The loop runs for the whole process lifetime, so this never fails.
type signalHealthChecker struct{}

func (signalHealthChecker) CheckHealth(ctx context.Context) error { return nil }

// metricsHealthChecker verifies the Prometheus collector is wired.
type metricsHealthChecker struct{}

func (metricsHealthChecker) CheckHealth(ctx context.Context) error {
	if metricsCollector == nil || metricsCollector.Registry() == nil {
		return fmt.Errorf("metrics collector not initialized")
	}
	return nil
}

// identityHealthChecker verifies the process identity is complete.
type identityHealthChecker struct {
	binaryName string
	envPrefix  string
	configName string
}

func (c identityHealthChecker) CheckHealth(ctx context.Context) error {
	if c.binaryName == "" {
		return fmt.Errorf("missing binary name")
	}
	if c.envPrefix == "" {
		return fmt.Errorf("missing env prefix")
	}
	if c.configName == "" {
		return fmt.Errorf("missing config name")
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load(ctx)
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid configuration", err)
	}

	host := cfg.Server.Host
	port := cfg.Server.Port
	if serveHost != "" {
		host = serveHost
	}
	if servePort > 0 {
		port = servePort
	}

	handlers.InitHealthManager(versionInfo.Version)
	manager := handlers.GetHealthManager()
	manager.RegisterChecker("signals", signalHealthChecker{})
	manager.RegisterChecker("metrics", metricsHealthChecker{})
	if id := GetAppIdentity(); id != nil {
		manager.RegisterChecker("identity", identityHealthChecker{
			binaryName: id.BinaryName,
			envPrefix:  id.EnvPrefix,
			configName: id.ConfigName,
		})
	}

	handlers.SetVersionInfo(versionInfo.Version, versionInfo.Commit, versionInfo.BuildDate)

	opts := server.Options{
		Registry:     runregistry.NewStore(viper.GetString("runs.dir")),
		RateLimit:    cfg.Server.RateLimit,
		Burst:        cfg.Server.Burst,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	if cfg.Metrics.Enabled {
		opts.Metrics = metricsCollector
	}

	if cfg.History.Database != "" {
		store, err := history.Open(cfg.History.Database)
		if err != nil {
			observability.CLILogger.Warn("Failed to open history database",
				zap.String("path", cfg.History.Database),
				zap.Error(err))
		} else {
			opts.History = store
			defer func() { _ = store.Close() }()
		}
	}

	srv := server.NewWithOptions(host, port, opts)

	observability.CLILogger.Info("Starting server",
		zap.String("addr", srv.Addr()),
		zap.Bool("metrics", cfg.Metrics.Enabled))

	if err := srv.Start(ctx, cfg.Server.ShutdownTimeout); err != nil {
		return exitError(foundry.ExitExternalServiceUnavailable, "Server failed", err)
	}
	return nil
}
