package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/slidesync/internal/config"
	"github.com/hupe1980/slidesync/internal/deck"
	"github.com/hupe1980/slidesync/internal/logging"
	"github.com/hupe1980/slidesync/internal/plugin"
	"github.com/hupe1980/slidesync/internal/presentation"
	"github.com/hupe1980/slidesync/internal/refresh"
	"github.com/hupe1980/slidesync/internal/settings"
	"github.com/hupe1980/slidesync/internal/vault"
	"github.com/hupe1980/slidesync/internal/watch"
)

type presentOptions struct {
	settingsPath  string
	debounceDelay int
	hostVersion   string
	noColor       bool
}

func newPresentCommand() *cobra.Command {
	opts := &presentOptions{}

	cmd := &cobra.Command{
		Use:   "present <vault> <deck.md>",
		Short: "Present a markdown deck and refresh it on every save",
		Long: `Present opens a markdown file from a vault as a slide deck and keeps
it in sync with the file on disk.

Slides are separated by lines containing only "---". Press p or F5 to
start the presentation, esc to leave it, arrow keys to navigate and q
to quit. Saves to the deck are debounced and then re-rendered in place.

Logs are discarded while presenting unless --log-file is set.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.noColor = config.FromContext(cmd.Context()).NoColor

			switch {
			case !cmd.Flags().Changed("debounce-delay"):
				opts.debounceDelay = -1
			case opts.debounceDelay < 0:
				return &ExitError{Code: 2, Err: fmt.Errorf("--debounce-delay must not be negative, got %d", opts.debounceDelay)}
			}

			return runPresent(cmd.Context(), cmd, args[0], args[1], opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.settingsPath, "settings", "", "settings file (default: <vault>/.slidesync/data.json)")
	f.String("strategy", "", "refresh strategy: rerender, replay (overrides presenter.strategy)")
	f.String("theme", "", "glamour style, overrides presenter.theme and the deck theme")
	f.IntVar(&opts.debounceDelay, "debounce-delay", settings.DefaultDebounceDelay, "debounce delay in milliseconds for this session")
	f.StringVar(&opts.hostVersion, "host-version", deck.APIVersion, "host version checked against the plugin manifest")

	return cmd
}

// session is a wired but not yet running presenter.
type session struct {
	vault     *vault.Vault
	workspace *deck.Workspace
	store     *settings.Store
	plugin    *plugin.Plugin
	status    *statusStrategy
	logger    *slog.Logger
}

func newSession(ctx context.Context, root, file string, opts *presentOptions) (*session, error) {
	cfg := config.FromContext(ctx)
	pc := &cfg.Presenter

	logger := logging.FromContext(ctx)
	if cfg.LogFile == "" {
		logger = logging.Discard()
	}

	v, err := vault.New(root, logging.Component(logger, "vault"))
	if err != nil {
		return nil, &ExitError{Code: 2, Err: err}
	}

	rel := file
	if filepath.IsAbs(file) {
		f, relErr := v.File(file)
		if relErr != nil {
			return nil, &ExitError{Code: 2, Err: relErr}
		}

		rel = f.Path
	}

	ws := deck.NewWorkspace(v.Root(), pickTheme(pc, opts.noColor))
	if _, err := ws.Open(rel); err != nil {
		return nil, &ExitError{Code: 2, Err: err}
	}

	var detectorOpts []presentation.Option
	if markers := pc.PresentationMarkers(); markers != nil {
		detectorOpts = append(detectorOpts, presentation.WithMarkers(markers...))
	}

	detector := presentation.NewDetector(ws,
		append(detectorOpts, presentation.WithLogger(logging.Component(logger, "detector")))...)

	strategy, err := refresh.New(pc.Strategy, ws, detector, ws, logging.Component(logger, "refresh"))
	if err != nil {
		return nil, &ExitError{Code: 2, Err: err}
	}

	if replay, ok := strategy.(*refresh.Replay); ok {
		replay.ExitDelay = pc.ExitDelay()
		replay.LoadDelay = pc.LoadDelay()
	}

	status := &statusStrategy{inner: strategy}

	coord := watch.NewCoordinator(v, ws, detector, status,
		watch.WithLogger(logging.Component(logger, "coordinator")))

	path := opts.settingsPath
	if path == "" {
		path = settings.DefaultPath(v.Root())
	}

	store := settings.NewStore(path, logging.Component(logger, "settings"))

	p := plugin.New(store, coord,
		plugin.WithHostVersion(opts.hostVersion),
		plugin.WithLogger(logging.Component(logger, "plugin")))

	return &session{
		vault:     v,
		workspace: ws,
		store:     store,
		plugin:    p,
		status:    status,
		logger:    logger,
	}, nil
}

// load starts the plugin and applies a session-only debounce override.
func (s *session) load(ctx context.Context, debounceDelay int) error {
	if err := s.plugin.Load(ctx); err != nil {
		return err
	}

	if debounceDelay < 0 {
		return nil
	}

	st := s.plugin.Settings()
	st.DebounceDelay = debounceDelay

	if err := s.plugin.ApplySettings(st); err != nil {
		s.plugin.Unload()
		return &ExitError{Code: 2, Err: err}
	}

	return nil
}

func runPresent(ctx context.Context, cmd *cobra.Command, root, file string, opts *presentOptions) error {
	s, err := newSession(ctx, root, file, opts)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := s.load(ctx, opts.debounceDelay); err != nil {
		return err
	}
	defer s.plugin.Unload()

	g, gctx := errgroup.WithContext(ctx)

	program := tea.NewProgram(deck.NewModel(s.workspace, deck.WithCommands(s.commands()...)),
		tea.WithContext(gctx),
		tea.WithAltScreen(),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	)

	s.workspace.Attach(program)
	s.status.send = program.Send

	g.Go(func() error {
		return s.vault.Run(gctx)
	})

	g.Go(func() error {
		return s.store.Watch(gctx, func(st settings.Settings) {
			if err := s.plugin.ApplySettings(st); err != nil {
				s.logger.Warn("applying settings", slog.String("error", err.Error()))
				return
			}

			program.Send(deck.StatusMsg("settings reloaded"))
		})
	})

	g.Go(func() error {
		defer cancel()

		_, err := program.Run()
		if errors.Is(err, tea.ErrProgramKilled) && gctx.Err() != nil {
			return nil
		}

		return err
	})

	return g.Wait()
}

// pickTheme returns the glamour style for the session. --no-color wins over
// any configured theme.
func pickTheme(pc *config.PresenterConfig, noColor bool) string {
	if noColor {
		return "notty"
	}

	return pc.Theme
}

// commands are the presenter key bindings that change settings.
func (s *session) commands() []deck.Command {
	return []deck.Command{
		{
			Key:  "a",
			Help: "toggle auto refresh",
			Run: func() (string, error) {
				st := s.plugin.Settings()
				st.Enabled = !st.Enabled

				if err := s.plugin.SaveSettings(st); err != nil {
					return "", err
				}

				if st.Enabled {
					return "auto refresh on", nil
				}

				return "auto refresh off", nil
			},
		},
		{
			Key:  "r",
			Help: "reload settings",
			Run: func() (string, error) {
				if err := s.plugin.ReloadSettings(); err != nil {
					return "", err
				}

				return "settings reloaded", nil
			},
		},
	}
}

// statusStrategy reports every refresh outcome in the presenter footer.
type statusStrategy struct {
	inner refresh.Strategy
	send  func(tea.Msg)
}

func (s *statusStrategy) Refresh(ctx context.Context) refresh.Outcome {
	outcome := s.inner.Refresh(ctx)

	if s.send != nil && outcome != refresh.OutcomeSkipped {
		s.send(deck.StatusMsg(fmt.Sprintf("%s at %s", outcome, time.Now().Format(time.TimeOnly))))
	}

	return outcome
}
