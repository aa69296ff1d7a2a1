package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/hupe1980/slidesync/internal/config"
	"github.com/hupe1980/slidesync/internal/logging"
	"github.com/hupe1980/slidesync/internal/settings"
)

func newSettingsCommand() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the refresh settings of a vault",
		Long: `Settings reads and writes the per-vault settings blob used while
presenting. A running presenter picks up changes immediately.

  enabled        turn automatic refresh on or off (default true)
  debounceDelay  quiet period in milliseconds before a refresh (default 300)`,
	}

	cmd.PersistentFlags().StringVar(&path, "settings", "", "settings file (default: <vault>/.slidesync/data.json)")

	cmd.AddCommand(
		newSettingsShowCommand(&path),
		newSettingsSetCommand(&path),
	)

	return cmd
}

func settingsStore(cmd *cobra.Command, path *string, vaultRoot string) *settings.Store {
	p := *path
	if p == "" {
		p = settings.DefaultPath(vaultRoot)
	}

	return settings.NewStore(p, logging.FromContext(cmd.Context()))
}

func newSettingsShowCommand(path *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show <vault>",
		Short: "Print the effective settings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := settingsStore(cmd, path, args[0])

			s, err := store.Load()
			if err != nil {
				return err
			}

			data, err := settings.Encode(s)
			if err != nil {
				return err
			}

			_, err = cmd.OutOrStdout().Write(data)

			return err
		},
	}
}

type settingsSetOptions struct {
	enabled       bool
	debounceDelay int
	diff          bool
}

func newSettingsSetCommand(path *string) *cobra.Command {
	opts := &settingsSetOptions{}

	cmd := &cobra.Command{
		Use:   "set <vault>",
		Short: "Change settings and save them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			if !f.Changed("enabled") && !f.Changed("debounce-delay") {
				return &ExitError{Code: 2, Err: fmt.Errorf("nothing to set: pass --enabled or --debounce-delay")}
			}

			store := settingsStore(cmd, path, args[0])

			s, err := store.Load()
			if err != nil {
				return err
			}

			if f.Changed("enabled") {
				s.Enabled = opts.enabled
			}

			if f.Changed("debounce-delay") {
				s.DebounceDelay = opts.debounceDelay
			}

			if err := s.Validate(); err != nil {
				return &ExitError{Code: 2, Err: err}
			}

			before, err := store.Raw()
			if err != nil {
				return err
			}

			if err := store.Save(s); err != nil {
				return err
			}

			if !opts.diff {
				return nil
			}

			after, err := settings.Encode(s)
			if err != nil {
				return err
			}

			unified, err := settings.Diff(before, after, store.Path(), store.Path()+" (saved)")
			if err != nil {
				return err
			}

			writeDiff(cmd.OutOrStdout(), unified, !config.FromContext(cmd.Context()).NoColor)

			return nil
		},
	}

	f := cmd.Flags()
	f.BoolVar(&opts.enabled, "enabled", settings.DefaultEnabled, "refresh the presentation on save")
	f.IntVar(&opts.debounceDelay, "debounce-delay", settings.DefaultDebounceDelay, "debounce delay in milliseconds")
	f.BoolVar(&opts.diff, "diff", false, "print a unified diff of the settings file")

	return cmd
}

var (
	diffHeader  = lipgloss.NewStyle().Bold(true)
	diffHunk    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	diffRemoved = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	diffAdded   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
)

// writeDiff writes a unified diff, optionally styled per line.
func writeDiff(w io.Writer, unified string, color bool) {
	if unified == "" {
		_, _ = fmt.Fprintln(w, "No differences found.")
		return
	}

	for _, line := range strings.Split(strings.TrimSuffix(unified, "\n"), "\n") {
		if color {
			line = styleDiffLine(line)
		}

		_, _ = fmt.Fprintln(w, line)
	}
}

func styleDiffLine(line string) string {
	switch {
	case strings.HasPrefix(line, "---"), strings.HasPrefix(line, "+++"):
		return diffHeader.Render(line)
	case strings.HasPrefix(line, "@@"):
		return diffHunk.Render(line)
	case strings.HasPrefix(line, "-"):
		return diffRemoved.Render(line)
	case strings.HasPrefix(line, "+"):
		return diffAdded.Render(line)
	default:
		return line
	}
}
