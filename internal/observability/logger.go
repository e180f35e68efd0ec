// Package observability provides the CLI logger and Prometheus metrics.
//
// Logging goes to stderr so stdout stays clean for record output:
// reports are data, logs are diagnostics, and the two never mix.
package observability

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// CLILogger is the process-wide logger. It is a no-op logger until
// InitCLILogger is called, so early failures never panic on a nil
// logger.
var CLILogger = zap.NewNop()

// InitCLILogger configures the global logger.
//
// level is one of debug, info, warn, error (unknown values fall back
// to info). When jsonOutput is true, log lines are structured JSON for
// machine consumption; otherwise a human console encoding is used.
func InitCLILogger(level string, jsonOutput bool) {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	if jsonOutput {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	core := zapcore.NewCore(enc, zapcore.Lock(os.Stderr), parseLevel(level))
	CLILogger = zap.New(core)
}

// SyncLogger flushes buffered log entries. Safe to call on exit paths;
// sync failures on stderr are ignored.
func SyncLogger() {
	_ = CLILogger.Sync()
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
