// Package presentation decides whether the user is looking at a live slide
// presentation. The answer is derived from the rendered structure of the
// active view on every call; nothing is cached.
package presentation

import (
	"fmt"
	"log/slog"

	"github.com/hupe1980/slidesync/internal/host"
)

// Marker is a structural fingerprint of the presentation renderer.
type Marker interface {
	Match(container *host.Element) bool
	fmt.Stringer
}

// AncestorClass matches when the container or one of its ancestors carries
// Class.
type AncestorClass struct {
	Class string
}

// Match implements Marker.
func (m AncestorClass) Match(container *host.Element) bool {
	return container.Closest(m.Class) != nil
}

func (m AncestorClass) String() string { return "ancestor ." + m.Class }

// DataAttribute matches when any element of the container carries Name.
type DataAttribute struct {
	Name string
}

// Match implements Marker.
func (m DataAttribute) Match(container *host.Element) bool {
	return container.Query("["+m.Name+"]") != nil
}

func (m DataAttribute) String() string { return "[" + m.Name + "]" }

// NestedClass matches an element with class Inner inside the container that
// has an ancestor with class Outer. As with a DOM querySelector, the Outer
// element may be the container itself or lie above it.
type NestedClass struct {
	Outer string
	Inner string
}

// Match implements Marker.
func (m NestedClass) Match(container *host.Element) bool {
	return container.Query("."+m.Outer+" ."+m.Inner) != nil
}

func (m NestedClass) String() string { return "." + m.Outer + " ." + m.Inner }

// DefaultMarkers returns the markers emitted by the reveal-style slide
// renderer.
func DefaultMarkers() []Marker {
	return []Marker{
		AncestorClass{Class: "reveal-viewport"},
		DataAttribute{Name: "data-presentation"},
		NestedClass{Outer: "slides-container", Inner: "reveal"},
	}
}

// Detector answers IsInPresentationMode for a workspace.
type Detector struct {
	workspace host.Workspace
	markers   []Marker
	logger    *slog.Logger
}

// Option configures a Detector.
type Option func(*Detector)

// WithMarkers replaces the marker set.
func WithMarkers(markers ...Marker) Option {
	return func(d *Detector) { d.markers = markers }
}

// WithLogger sets the logger used for debug tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Detector) { d.logger = logger }
}

// NewDetector returns a detector over ws using DefaultMarkers.
func NewDetector(ws host.Workspace, opts ...Option) *Detector {
	d := &Detector{
		workspace: ws,
		markers:   DefaultMarkers(),
		logger:    slog.Default(),
	}

	for _, o := range opts {
		o(d)
	}

	return d
}

// IsInPresentationMode reports whether the active view shows a live
// presentation. It never panics: a host that fails while being inspected
// is treated as not presenting.
func (d *Detector) IsInPresentationMode() (presenting bool) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Debug("presentation probe panicked", slog.Any("error", r))
			presenting = false
		}
	}()

	view, ok := d.workspace.ActiveView()
	if !ok || view == nil {
		return false
	}

	if view.Mode() != host.ModePreview {
		return false
	}

	container := view.Container()
	if container == nil {
		return false
	}

	for _, m := range d.markers {
		if m.Match(container) {
			d.logger.Debug("presentation marker matched", slog.String("marker", m.String()))
			return true
		}
	}

	return false
}
