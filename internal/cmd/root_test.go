package cmd

import (
	"errors"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestSetVersionInfo(t *testing.T) {
	// Save original values
	origVersion := versionInfo.Version
	origCommit := versionInfo.Commit
	origBuildDate := versionInfo.BuildDate
	defer func() {
		versionInfo.Version = origVersion
		versionInfo.Commit = origCommit
		versionInfo.BuildDate = origBuildDate
	}()

	tests := []struct {
		name      string
		version   string
		commit    string
		buildDate string
	}{
		{
			name:      "set all values",
			version:   "1.0.0",
			commit:    "abc123",
			buildDate: "2024-01-15",
		},
		{
			name:      "set dev version",
			version:   "dev",
			commit:    "HEAD",
			buildDate: "unknown",
		},
		{
			name:      "set empty values",
			version:   "",
			commit:    "",
			buildDate: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			SetVersionInfo(tt.version, tt.commit, tt.buildDate)

			assert.Equal(t, tt.version, versionInfo.Version)
			assert.Equal(t, tt.commit, versionInfo.Commit)
			assert.Equal(t, tt.buildDate, versionInfo.BuildDate)
		})
	}
}

func TestGetAppIdentity(t *testing.T) {
	t.Run("returns nil before init", func(t *testing.T) {
		// Save and restore
		orig := appIdentity
		appIdentity = nil
		defer func() { appIdentity = orig }()

		result := GetAppIdentity()
		assert.Nil(t, result)
	})

	t.Run("returns identity after init", func(t *testing.T) {
		orig := appIdentity
		defer func() { appIdentity = orig }()

		assert.NoError(t, initApp())

		result := GetAppIdentity()
		assert.NotNil(t, result)
		assert.Equal(t, "pushlog", result.BinaryName)
		assert.Equal(t, "PUSHLOG", result.EnvPrefix)
		assert.Equal(t, "pushlog", result.ConfigName)
	})
}

func TestSetDefaults(t *testing.T) {
	// Reset viper for clean test
	viper.Reset()
	defer viper.Reset()

	// Call setDefaults
	setDefaults()

	// Verify server defaults
	assert.Equal(t, "localhost", viper.GetString("server.host"))
	assert.Equal(t, 8080, viper.GetInt("server.port"))
	assert.Equal(t, "30s", viper.GetString("server.read_timeout"))
	assert.Equal(t, "30s", viper.GetString("server.write_timeout"))
	assert.Equal(t, "120s", viper.GetString("server.idle_timeout"))
	assert.Equal(t, "10s", viper.GetString("server.shutdown_timeout"))
	assert.Equal(t, 10.0, viper.GetFloat64("server.rate_limit"))
	assert.Equal(t, 20, viper.GetInt("server.burst"))

	// Verify logging defaults
	assert.Equal(t, "info", viper.GetString("logging.level"))
	assert.False(t, viper.GetBool("logging.json"))

	// Verify metrics defaults
	assert.True(t, viper.GetBool("metrics.enabled"))

	// Verify run registry default
	assert.NotEmpty(t, viper.GetString("runs.dir"))

	// Verify worker defaults
	assert.Equal(t, 4, viper.GetInt("workers"))
}

func TestExitErrorCarriesCode(t *testing.T) {
	err := exitError(3, "Something failed", errors.New("boom"))

	var coded *codedError
	assert.True(t, errors.As(err, &coded))
	assert.Equal(t, 3, coded.code)
	assert.Contains(t, err.Error(), "Something failed")
	assert.Contains(t, err.Error(), "boom")
	assert.Contains(t, err.Error(), "(exit code 3)")
}
