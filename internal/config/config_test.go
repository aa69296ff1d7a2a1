package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRootCmd creates a cobra.Command with the same persistent flags as the
// real root command so that Load can bind them during tests.
func newTestRootCmd() *cobra.Command {
	cmd := &cobra.Command{}
	pf := cmd.PersistentFlags()
	pf.String("config", "", "")
	pf.String("log-level", "info", "")
	pf.String("log-format", "text", "")
	pf.String("log-file", "", "")
	pf.Bool("no-color", false, "")
	pf.BoolP("quiet", "q", false, "")

	return cmd
}

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()

	p := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))

	return p
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, LogLevelInfo, cfg.LogLevel)
	assert.Equal(t, LogFormatText, cfg.LogFormat)
	assert.Empty(t, cfg.LogFile)
	assert.False(t, cfg.NoColor)
	assert.False(t, cfg.Quiet)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "debug json", mutate: func(c *Config) { c.LogLevel, c.LogFormat = "debug", "json" }},
		{name: "error level", mutate: func(c *Config) { c.LogLevel = "error" }},
		{name: "unknown level", mutate: func(c *Config) { c.LogLevel = "verbose" }, wantErr: "invalid log level"},
		{name: "unknown format", mutate: func(c *Config) { c.LogFormat = "xml" }, wantErr: "invalid log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}

			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestEffectiveLogLevel(t *testing.T) {
	assert.Equal(t, "debug", (&Config{LogLevel: "debug"}).EffectiveLogLevel())
	assert.Equal(t, "error", (&Config{LogLevel: "debug", Quiet: true}).EffectiveLogLevel())
}

func TestLoad_DefaultsOnly(t *testing.T) {
	cfg, err := Load(nil, "")
	require.NoError(t, err)
	assert.Equal(t, LogLevelInfo, cfg.LogLevel)
	assert.Equal(t, LogFormatText, cfg.LogFormat)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("SLIDESYNC_LOG_LEVEL", "debug")
	t.Setenv("SLIDESYNC_LOG_FILE", "/tmp/slidesync.log")
	t.Setenv("SLIDESYNC_NO_COLOR", "true")
	t.Setenv("SLIDESYNC_QUIET", "true")

	cfg, err := Load(nil, "")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/tmp/slidesync.log", cfg.LogFile)
	assert.True(t, cfg.NoColor)
	assert.True(t, cfg.Quiet)
}

func TestLoad_ConfigFile(t *testing.T) {
	p := writeTempConfig(t, `
log-level: warn
log-format: json
log-file: presenter.log
presenter:
  theme: light
`)

	cfg, err := Load(nil, p)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "presenter.log", cfg.LogFile)
	assert.Equal(t, "light", cfg.Presenter.Theme)
	assert.Equal(t, p, cfg.ConfigFile)
}

func TestLoad_ValidationErrorNamesFile(t *testing.T) {
	p := writeTempConfig(t, "presenter:\n  strategy: reload\n")

	_, err := Load(nil, p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), p)
}

func TestSearchDirs(t *testing.T) {
	dirs := searchDirs()
	require.NotEmpty(t, dirs)
	assert.Equal(t, ".", dirs[0])
}

func TestLoad_FileErrors(t *testing.T) {
	_, err := Load(nil, filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "reading config file")

	_, err = Load(nil, writeTempConfig(t, ": invalid yaml :"))
	assert.Error(t, err)

	_, err = Load(nil, writeTempConfig(t, "log-format: xml\n"))
	assert.ErrorContains(t, err, "invalid log format")
}

func TestLoad_Precedence(t *testing.T) {
	tests := []struct {
		name string
		env  string
		file string
		flag string
		want string
	}{
		{name: "flag over default", flag: "error", want: "error"},
		{name: "env over file", env: "debug", file: "warn", want: "debug"},
		{name: "flag over env", env: "debug", flag: "error", want: "error"},
		{name: "flag over all", env: "debug", file: "warn", flag: "error", want: "error"},
		{name: "file only", file: "warn", want: "warn"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.env != "" {
				t.Setenv("SLIDESYNC_LOG_LEVEL", tt.env)
			}

			var path string
			if tt.file != "" {
				path = writeTempConfig(t, "log-level: "+tt.file+"\n")
			}

			cmd := newTestRootCmd()
			if tt.flag != "" {
				require.NoError(t, cmd.PersistentFlags().Set("log-level", tt.flag))
			}

			cfg, err := Load(cmd, path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.LogLevel)
		})
	}
}

func TestLoad_InvalidLogLevelFromEnv(t *testing.T) {
	t.Setenv("SLIDESYNC_LOG_LEVEL", "verbose")

	_, err := Load(nil, "")
	assert.ErrorContains(t, err, "invalid log level")
}

func TestContext(t *testing.T) {
	cfg := &Config{LogLevel: "debug", LogFormat: "json"}
	assert.Equal(t, cfg, FromContext(NewContext(context.Background(), cfg)))
	assert.Equal(t, Default(), FromContext(context.Background()))
}
