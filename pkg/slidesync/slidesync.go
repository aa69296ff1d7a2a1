// Package slidesync provides a public Go API for embedding the slidesync
// refresh core in another markdown host.
//
// The host supplies its vault and workspace; slidesync watches file
// modifications, debounces them, and refreshes the active presentation.
//
// Basic usage:
//
//	w, err := slidesync.New(vault, workspace)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	refs := w.Start(ctx)
//	defer slidesync.Unsubscribe(refs)
//	defer w.Stop()
//
// With options:
//
//	w, err := slidesync.New(vault, workspace,
//	    slidesync.WithDebounceDelay(500*time.Millisecond),
//	    slidesync.WithLogger(logger),
//	)
package slidesync

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/hupe1980/slidesync/internal/host"
	"github.com/hupe1980/slidesync/internal/presentation"
	"github.com/hupe1980/slidesync/internal/refresh"
	"github.com/hupe1980/slidesync/internal/settings"
	"github.com/hupe1980/slidesync/internal/watch"
)

// Host boundary types.
type (
	File            = host.File
	ViewMode        = host.ViewMode
	Vault           = host.Vault
	Workspace       = host.Workspace
	View            = host.View
	Leaf            = host.Leaf
	ViewState       = host.ViewState
	Element         = host.Element
	EventRef        = host.EventRef
	InputDispatcher = host.InputDispatcher
	Settings        = settings.Settings
	Outcome         = refresh.Outcome
)

// View modes.
const (
	ModeSource  = host.ModeSource
	ModePreview = host.ModePreview
)

// Refresh strategies.
const (
	StrategyRerender = refresh.StrategyRerender
	StrategyReplay   = refresh.StrategyReplay
)

// NewFile returns a vault file for a slash-separated vault-relative path.
func NewFile(path string) File { return host.NewFile(path) }

// NewElement returns a rendered element for View.Container.
func NewElement(tag string, classes ...string) *Element { return host.NewElement(tag, classes...) }

// Unsubscribe releases every subscription returned by Watcher.Start.
func Unsubscribe(refs []EventRef) { host.UnsubscribeAll(refs) }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Option configures a Watcher.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	settings Settings
	strategy string
	input    InputDispatcher
	markers  []presentation.Marker
}

// WithLogger sets the logger. By default nothing is logged.
func WithLogger(logger *slog.Logger) Option { return func(o *options) { o.logger = logger } }

// WithSettings replaces the default settings.
func WithSettings(s Settings) Option { return func(o *options) { o.settings = s } }

// WithDebounceDelay sets the quiet period before a refresh.
func WithDebounceDelay(d time.Duration) Option {
	return func(o *options) { o.settings.DebounceDelay = int(d / time.Millisecond) }
}

// WithDisabled starts the watcher with automatic refresh turned off.
func WithDisabled() Option { return func(o *options) { o.settings.Enabled = false } }

// WithReplay selects the legacy replay strategy, which drives the
// presentation through input.
func WithReplay(input InputDispatcher) Option {
	return func(o *options) {
		o.strategy = StrategyReplay
		o.input = input
	}
}

// WithAncestorClassMarker adds a presentation marker matching an ancestor
// class of the view container. The first With*Marker option replaces the
// built-in markers.
func WithAncestorClassMarker(class string) Option {
	return func(o *options) { o.markers = append(o.markers, presentation.AncestorClass{Class: class}) }
}

// WithDataAttributeMarker adds a presentation marker matching an attribute
// inside the view container.
func WithDataAttributeMarker(name string) Option {
	return func(o *options) { o.markers = append(o.markers, presentation.DataAttribute{Name: name}) }
}

// Watcher refreshes the active presentation after its source is modified.
type Watcher struct {
	coordinator *watch.Coordinator
	detector    *presentation.Detector
	settings    Settings
}

// New wires a watcher to the host. Nothing is subscribed until Start.
func New(vault Vault, ws Workspace, opts ...Option) (*Watcher, error) {
	if vault == nil || ws == nil {
		return nil, fmt.Errorf("vault and workspace must not be nil")
	}

	o := &options{
		logger:   discardLogger(),
		settings: settings.Default(),
	}

	for _, opt := range opts {
		opt(o)
	}

	if err := o.settings.Validate(); err != nil {
		return nil, err
	}

	detectorOpts := []presentation.Option{presentation.WithLogger(o.logger)}
	if len(o.markers) > 0 {
		detectorOpts = append(detectorOpts, presentation.WithMarkers(o.markers...))
	}

	detector := presentation.NewDetector(ws, detectorOpts...)

	strategy, err := refresh.New(o.strategy, ws, detector, o.input, o.logger)
	if err != nil {
		return nil, err
	}

	return &Watcher{
		coordinator: watch.NewCoordinator(vault, ws, detector, strategy, watch.WithLogger(o.logger)),
		detector:    detector,
		settings:    o.settings,
	}, nil
}

// Start subscribes to the host and returns the subscriptions, which the
// caller releases with Unsubscribe on teardown.
func (w *Watcher) Start(ctx context.Context) []EventRef {
	return w.coordinator.Start(ctx, w.settings)
}

// Stop cancels any pending refresh. Later notifications are ignored until
// Start is called again.
func (w *Watcher) Stop() { w.coordinator.Stop() }

// UpdateSettings applies new settings to a running watcher. Disabling stops
// it; re-enabling a stopped watcher needs a fresh Start.
func (w *Watcher) UpdateSettings(s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}

	w.settings = s
	w.coordinator.UpdateSettings(s)

	return nil
}

// Pending reports whether a refresh is scheduled.
func (w *Watcher) Pending() bool { return w.coordinator.Pending() }

// IsInPresentationMode reports whether the active view shows a presentation.
func (w *Watcher) IsInPresentationMode() bool { return w.detector.IsInPresentationMode() }
