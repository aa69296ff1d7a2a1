// Package cli implements the cobra command tree for slidesync.
package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/hupe1980/slidesync/internal/config"
	"github.com/hupe1980/slidesync/internal/logging"
)

// ExitError wraps an error with a specific process exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}

	return fmt.Sprintf("exit code %d", e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

// Execute builds the command tree, runs it, and returns the exit code.
func Execute() int {
	cmd := NewRootCommand()

	if err := cmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)

		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return exitErr.Code
		}

		return 1
	}

	return 0
}

// NewRootCommand constructs the top-level cobra.Command with all
// subcommands attached.
func NewRootCommand() *cobra.Command {
	var (
		cfgFile  string
		closeLog func() error
	)

	cmd := &cobra.Command{
		Use:   "slidesync",
		Short: "Keep a running slide presentation in sync with its markdown source",
		Long: `slidesync presents a markdown file from a vault as a slide deck in the
terminal and refreshes the presentation whenever the file is saved.

Bursts of saves are debounced so the deck is redrawn once after editing
pauses. The refresh re-renders the deck in place and keeps the current
slide; if that fails the view state is reset instead.

Settings are stored per vault in .slidesync/data.json and are picked up
while presenting.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd, cfgFile)
			if err != nil {
				return &ExitError{Code: 2, Err: err}
			}

			logger, closeFn, err := logging.SetupFile(cfg)
			if err != nil {
				return &ExitError{Code: 2, Err: err}
			}

			closeLog = closeFn

			ctx := cmd.Context()
			ctx = config.NewContext(ctx, cfg)
			ctx = logging.NewContext(ctx, logger)
			cmd.SetContext(ctx)

			logger.Debug("configuration loaded",
				slog.String("logLevel", cfg.LogLevel),
				slog.String("logFormat", cfg.LogFormat),
				slog.String("configFile", cfg.ConfigFile),
			)

			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if closeLog == nil {
				return nil
			}

			return closeLog()
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: .slidesync.yaml)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "text", "log format: text, json")
	pf.String("log-file", "", "write logs to this file")
	pf.Bool("no-color", false, "disable colored output")
	pf.BoolP("quiet", "q", false, "suppress non-essential output")

	// Flag parsing errors return exit code 2.
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: 2, Err: err}
	})

	cmd.AddCommand(
		newPresentCommand(),
		newSettingsCommand(),
		newManifestCommand(),
		newVersionCommand(),
		newCompletionCommand(),
	)

	return cmd
}
