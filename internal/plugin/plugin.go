// Package plugin ties the slidesync pieces to a host lifecycle: settings are
// loaded on Load, the coordinator is started with them, and everything is
// torn down again on Unload.
package plugin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hupe1980/slidesync/internal/host"
	"github.com/hupe1980/slidesync/internal/manifest"
	"github.com/hupe1980/slidesync/internal/settings"
	"github.com/hupe1980/slidesync/internal/watch"
)

// ErrNotLoaded is returned by operations that need a loaded plugin.
var ErrNotLoaded = errors.New("plugin is not loaded")

// Coordinator is the part of watch.Coordinator the plugin drives.
type Coordinator interface {
	Start(ctx context.Context, s settings.Settings) []host.EventRef
	Stop()
	UpdateSettings(s settings.Settings)
}

var _ Coordinator = (*watch.Coordinator)(nil)

// Plugin owns the settings and the event subscriptions of one host session.
type Plugin struct {
	store       *settings.Store
	coordinator Coordinator
	hostVersion string
	logger      *slog.Logger

	mu       sync.Mutex
	ctx      context.Context
	settings settings.Settings
	refs     []host.EventRef
	loaded   bool
}

// Option configures a Plugin.
type Option func(*Plugin)

// WithLogger sets the plugin logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Plugin) { p.logger = logger }
}

// WithHostVersion makes Load check the manifest against the host version.
func WithHostVersion(v string) Option {
	return func(p *Plugin) { p.hostVersion = v }
}

// New returns an unloaded plugin.
func New(store *settings.Store, coordinator Coordinator, opts ...Option) *Plugin {
	p := &Plugin{
		store:       store,
		coordinator: coordinator,
		logger:      slog.Default(),
		settings:    settings.Default(),
	}

	for _, o := range opts {
		o(p)
	}

	return p
}

// Load reads the persisted settings, merged over the defaults, and starts
// the coordinator. Subscriptions are kept until Unload.
func (p *Plugin) Load(ctx context.Context) error {
	if p.hostVersion != "" {
		m, err := manifest.Load()
		if err != nil {
			return err
		}

		if err := m.CompatibleWith(p.hostVersion); err != nil {
			return err
		}
	}

	s, err := p.store.Load()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.loaded {
		return errors.New("plugin is already loaded")
	}

	p.ctx = ctx
	p.settings = s
	p.refs = p.coordinator.Start(ctx, s)
	p.loaded = true

	p.logger.Debug("plugin loaded",
		slog.Bool("enabled", s.Enabled),
		slog.Int("subscriptions", len(p.refs)))

	return nil
}

// Unload stops the coordinator and releases every subscription. It is safe
// to call on an unloaded plugin.
func (p *Plugin) Unload() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.loaded {
		return
	}

	p.coordinator.Stop()
	host.UnsubscribeAll(p.refs)

	p.refs = nil
	p.loaded = false

	p.logger.Debug("plugin unloaded")
}

// Settings returns the active settings.
func (p *Plugin) Settings() settings.Settings {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.settings
}

// Subscriptions returns how many host subscriptions are held.
func (p *Plugin) Subscriptions() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.refs)
}

// ReloadSettings re-reads the settings file and applies it.
func (p *Plugin) ReloadSettings() error {
	s, err := p.store.Load()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}

	return p.ApplySettings(s)
}

// SaveSettings persists s and applies it.
func (p *Plugin) SaveSettings(s settings.Settings) error {
	if err := p.store.Save(s); err != nil {
		return err
	}

	return p.ApplySettings(s)
}

// ApplySettings hands s to the coordinator. Enabling a disabled plugin
// subscribes again; disabling cancels any pending refresh at once.
func (p *Plugin) ApplySettings(s settings.Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.loaded {
		return ErrNotLoaded
	}

	prev := p.settings
	p.settings = s

	if s.Enabled && !prev.Enabled {
		host.UnsubscribeAll(p.refs)
		p.refs = p.coordinator.Start(p.ctx, s)
		p.logger.Info("refresh enabled")

		return nil
	}

	p.coordinator.UpdateSettings(s)

	if !s.Enabled && prev.Enabled {
		p.logger.Info("refresh disabled")
	}

	return nil
}
