package config

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "PUSHLOG"

var (
	configMu  sync.RWMutex
	appConfig *Config
)

// envBindings maps config keys to their PUSHLOG_* variable suffixes.
// Explicit bindings keep the variable names flat and documented rather
// than derived from nested key paths.
var envBindings = map[string]string{
	"server.host":             "HOST",
	"server.port":             "PORT",
	"server.read_timeout":     "READ_TIMEOUT",
	"server.write_timeout":    "WRITE_TIMEOUT",
	"server.idle_timeout":     "IDLE_TIMEOUT",
	"server.shutdown_timeout": "SHUTDOWN_TIMEOUT",
	"server.rate_limit":       "RATE_LIMIT",
	"server.burst":            "BURST",
	"logging.level":           "LOG_LEVEL",
	"logging.json":            "LOG_JSON",
	"metrics.enabled":         "METRICS_ENABLED",
	"history.database":        "HISTORY_DATABASE",
	"runs.dir":                "RUNS_DIR",
	"workers":                 "WORKERS",
}

// Load builds the configuration and stores it as the process config.
//
// Optional runtime overrides (nested maps keyed like the config file)
// take precedence over environment variables, which take precedence
// over defaults. An optional config file named pushlog.yaml is read
// from the working directory when present.
func Load(ctx context.Context, overrides ...map[string]any) (*Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("pushlog")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; a malformed one is not.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config: read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for key, suffix := range envBindings {
		if err := v.BindEnv(key, EnvPrefix+"_"+suffix); err != nil {
			return nil, fmt.Errorf("config: bind env for %s: %w", key, err)
		}
	}

	// Runtime overrides go through Set so they outrank env vars.
	for _, o := range overrides {
		for key, val := range flatten("", o) {
			v.Set(key, val)
		}
	}

	var cfg Config
	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, decodeHook); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	configMu.Lock()
	appConfig = &cfg
	configMu.Unlock()

	return &cfg, nil
}

// GetConfig returns the most recently loaded configuration, or nil if
// Load has not been called.
func GetConfig() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return appConfig
}

// flatten expands nested override maps into dotted viper keys.
func flatten(prefix string, m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, val := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := val.(map[string]any); ok {
			for nk, nv := range flatten(key, nested) {
				out[nk] = nv
			}
			continue
		}
		out[key] = val
	}
	return out
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.rate_limit", 10.0)
	v.SetDefault("server.burst", 20)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.json", false)

	v.SetDefault("metrics.enabled", true)

	v.SetDefault("history.database", "")
	v.SetDefault("runs.dir", "")

	v.SetDefault("workers", 4)
}
