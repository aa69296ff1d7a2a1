// Package config loads the slidesync configuration: logging options and the
// presenter section.
//
// Sources, highest precedence first: command flags, SLIDESYNC_ environment
// variables (SLIDESYNC_PRESENTER_STRATEGY for presenter.strategy), the config
// file (.slidesync.yaml in the working directory or ~/.config/slidesync),
// then built-in defaults.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Log levels and formats accepted by Validate.
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"

	LogFormatText = "text"
	LogFormatJSON = "json"
)

// fileName is the config file name looked up when --config is not given.
const fileName = ".slidesync"

// envPrefix prefixes every environment override.
const envPrefix = "SLIDESYNC"

// Config is everything slidesync reads from flags, environment and file.
type Config struct {
	LogLevel  string `mapstructure:"log-level" json:"logLevel"`
	LogFormat string `mapstructure:"log-format" json:"logFormat"`

	// LogFile receives the log output. The presenter owns the terminal, so
	// without it present discards its logs.
	LogFile string `mapstructure:"log-file" json:"logFile,omitempty"`

	// NoColor selects the notty glamour style and plain diff output.
	NoColor bool `mapstructure:"no-color" json:"noColor"`

	// Quiet raises the log level to error.
	Quiet bool `mapstructure:"quiet" json:"quiet"`

	Presenter PresenterConfig `mapstructure:"presenter" json:"presenter"`

	// ConfigFile is the file Load read, empty when none was found.
	ConfigFile string `mapstructure:"-" json:"-"`
}

// searchDirs returns the directories searched for fileName, in order.
func searchDirs() []string {
	dirs := []string{"."}

	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".config", "slidesync"))
	}

	return dirs
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel:  LogLevelInfo,
		LogFormat: LogFormatText,
	}
}

// Validate checks the logging options and the presenter section.
func (c *Config) Validate() error {
	if !slices.Contains([]string{LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError}, c.LogLevel) {
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", c.LogLevel)
	}

	if !slices.Contains([]string{LogFormatText, LogFormatJSON}, c.LogFormat) {
		return fmt.Errorf("invalid log format %q: must be one of text, json", c.LogFormat)
	}

	return c.Presenter.Validate()
}

// EffectiveLogLevel is LogLevel, or error when Quiet is set.
func (c *Config) EffectiveLogLevel() string {
	if c.Quiet {
		return LogLevelError
	}

	return c.LogLevel
}

// Load resolves the configuration for cmd. configFile, when set, must exist;
// otherwise .slidesync.yaml is looked up and may be absent. Every call uses
// its own viper instance.
func Load(cmd *cobra.Command, configFile string) (*Config, error) {
	v := viper.New()

	setDefaults(v)
	configureEnv(v)

	if err := configureFile(v, configFile); err != nil {
		return nil, err
	}

	if err := bindFlags(v, cmd); err != nil {
		return nil, err
	}

	cfg := &Config{ConfigFile: v.ConfigFileUsed()}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		if cfg.ConfigFile != "" {
			return nil, fmt.Errorf("%s: %w", cfg.ConfigFile, err)
		}

		return nil, err
	}

	return cfg, nil
}

// Presenter keys. Defaults are registered for the scalar keys so that
// AutomaticEnv can resolve them; markers only come from the config file.
const (
	KeyPresenterTheme     = "presenter.theme"
	KeyPresenterStrategy  = "presenter.strategy"
	KeyPresenterExitDelay = "presenter.replay.exitDelay"
	KeyPresenterLoadDelay = "presenter.replay.loadDelay"
)

// flagKeys maps command flags to the nested key they override.
var flagKeys = map[string]string{
	"theme":    KeyPresenterTheme,
	"strategy": KeyPresenterStrategy,
}

func setDefaults(v *viper.Viper) {
	def := Default()

	v.SetDefault("log-level", def.LogLevel)
	v.SetDefault("log-format", def.LogFormat)
	v.SetDefault("no-color", def.NoColor)
	v.SetDefault("quiet", def.Quiet)
	v.SetDefault("log-file", def.LogFile)

	for _, key := range []string{KeyPresenterTheme, KeyPresenterStrategy, KeyPresenterExitDelay, KeyPresenterLoadDelay} {
		v.SetDefault(key, "")
	}
}

func configureEnv(v *viper.Viper) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
}

func configureFile(v *viper.Viper, configFile string) error {
	if configFile != "" {
		v.SetConfigFile(configFile)

		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %q: %w", configFile, err)
		}

		return nil
	}

	v.SetConfigName(fileName)
	v.SetConfigType("yaml")

	for _, dir := range searchDirs() {
		v.AddConfigPath(dir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}

		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// bindFlags binds the persistent flags from cmd up to the root under their
// own names and the flags listed in flagKeys under their nested key.
func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	if cmd == nil {
		return nil
	}

	for c := cmd; c != nil; c = c.Parent() {
		if err := v.BindPFlags(c.PersistentFlags()); err != nil {
			return fmt.Errorf("binding persistent flags: %w", err)
		}
	}

	for name, key := range flagKeys {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			continue
		}

		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding --%s: %w", name, err)
		}
	}

	return nil
}

type ctxKey struct{}

// NewContext returns ctx carrying cfg.
func NewContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, ctxKey{}, cfg)
}

// FromContext returns the Config stored by NewContext, or Default.
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(ctxKey{}).(*Config); ok {
		return cfg
	}

	return Default()
}
