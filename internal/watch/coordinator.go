package watch

import (
	"context"
	"log/slog"
	"sync"

	"github.com/hupe1980/slidesync/internal/host"
	"github.com/hupe1980/slidesync/internal/refresh"
	"github.com/hupe1980/slidesync/internal/settings"
)

// ModeDetector reports whether a presentation is currently showing.
type ModeDetector interface {
	IsInPresentationMode() bool
}

// Coordinator decides which file modifications lead to a presentation
// refresh and schedules that refresh through a debounce timer it owns
// exclusively.
type Coordinator struct {
	vault     host.Vault
	workspace host.Workspace
	detector  ModeDetector
	strategy  refresh.Strategy
	logger    *slog.Logger

	debouncer *Debouncer

	mu       sync.Mutex
	ctx      context.Context
	settings settings.Settings
	running  bool
	active   *host.File
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the coordinator logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = logger }
}

// WithAfterFunc replaces the scheduler behind the debounce timer.
func WithAfterFunc(fn AfterFunc) Option {
	return func(c *Coordinator) { c.debouncer.afterFunc = fn }
}

// NewCoordinator wires a coordinator to the host. It does nothing until
// Start is called.
func NewCoordinator(vault host.Vault, ws host.Workspace, detector ModeDetector, strategy refresh.Strategy, opts ...Option) *Coordinator {
	c := &Coordinator{
		vault:     vault,
		workspace: ws,
		detector:  detector,
		strategy:  strategy,
		logger:    slog.Default(),
		ctx:       context.Background(),
		settings:  settings.Default(),
	}

	c.debouncer = NewDebouncer(c.refresh)

	for _, o := range opts {
		o(c)
	}

	return c
}

// Start subscribes to file notifications and returns the subscription
// handles. The caller owns the handles and must unsubscribe them on
// teardown. When s is disabled no subscription is made and the returned
// slice is empty. ctx is passed to every refresh.
func (c *Coordinator) Start(ctx context.Context, s settings.Settings) []host.EventRef {
	c.mu.Lock()
	c.settings = s
	c.ctx = ctx
	c.running = s.Enabled
	c.mu.Unlock()

	if !s.Enabled {
		return []host.EventRef{}
	}

	c.logger.Info("watching presentation", slog.Int("debounceDelay", s.DebounceDelay))

	return []host.EventRef{
		c.vault.OnModify(c.onFileModified),
		c.workspace.OnFileOpen(c.onFileOpened),
	}
}

// Stop cancels any pending refresh and forgets the cached active file.
// Notifications that still arrive are ignored until Start is called again.
// Stop is idempotent.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	c.running = false
	c.active = nil
	c.mu.Unlock()

	if c.debouncer.Stop() {
		c.logger.Debug("pending refresh cancelled")
	}
}

// UpdateSettings replaces the settings snapshot. Disabling stops the
// coordinator immediately, cancelling any in-flight debounce.
func (c *Coordinator) UpdateSettings(s settings.Settings) {
	c.mu.Lock()
	c.settings = s
	c.mu.Unlock()

	if !s.Enabled {
		c.Stop()
	}
}

// Settings returns the current snapshot.
func (c *Coordinator) Settings() settings.Settings {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.settings
}

// Pending reports whether a refresh is scheduled.
func (c *Coordinator) Pending() bool {
	return c.debouncer.Pending()
}

func (c *Coordinator) onFileOpened(f *host.File) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if f == nil {
		c.active = nil
		return
	}

	cp := *f
	c.active = &cp
}

func (c *Coordinator) onFileModified(f host.File) {
	log := c.logger.With(slog.String("file", f.Path))

	if !c.isRunning() {
		return
	}

	if !f.IsMarkdown() {
		log.Debug("not markdown, skipping")
		return
	}

	if !c.detector.IsInPresentationMode() {
		log.Debug("not presenting, skipping")
		return
	}

	active, ok := c.activeFile()
	if !ok {
		log.Debug("no active file, skipping")
		return
	}

	if active.Path != f.Path {
		log.Debug("not the presented file, skipping", slog.String("active", active.Path))
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Stop may have run while the filters were evaluated.
	if !c.running {
		return
	}

	log.Debug("scheduling refresh", slog.Int("debounceDelay", c.settings.DebounceDelay))
	c.debouncer.Trigger(c.settings.Delay())
}

func (c *Coordinator) isRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.running
}

// activeFile prefers the file recorded by the last open notification and
// otherwise asks the host. A host that panics has no active file.
func (c *Coordinator) activeFile() (f host.File, ok bool) {
	c.mu.Lock()
	cached := c.active
	c.mu.Unlock()

	if cached != nil {
		return *cached, true
	}

	defer func() {
		if r := recover(); r != nil {
			c.logger.Debug("active file query panicked", slog.Any("error", r))
			f, ok = host.File{}, false
		}
	}()

	return c.workspace.ActiveFile()
}

// refresh runs when the debounce timer expires.
func (c *Coordinator) refresh() {
	c.mu.Lock()
	ctx := c.ctx
	c.mu.Unlock()

	outcome := c.strategy.Refresh(ctx)
	c.logger.Debug("presentation refresh finished", slog.String("outcome", outcome.String()))
}
