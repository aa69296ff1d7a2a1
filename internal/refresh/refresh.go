// Package refresh makes the visible presentation reflect the latest file
// contents. The primary strategy re-renders the active view in place and
// falls back to rebuilding the view from its serialized state. A legacy
// strategy replays exit/enter key presses and slide navigation instead.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hupe1980/slidesync/internal/host"
)

// Outcome reports what a refresh did.
type Outcome int

// Refresh outcomes.
const (
	// OutcomeSkipped means presentation mode was no longer active.
	OutcomeSkipped Outcome = iota
	// OutcomeRerendered means the view was re-rendered in place.
	OutcomeRerendered
	// OutcomeReset means the view was rebuilt from its view state.
	OutcomeReset
	// OutcomeReplayed means the legacy key replay ran to completion.
	OutcomeReplayed
	// OutcomeFailed means every mechanism failed; the presentation is stale.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeRerendered:
		return "rerendered"
	case OutcomeReset:
		return "reset"
	case OutcomeReplayed:
		return "replayed"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Strategy refreshes the presentation. Implementations never return errors;
// failure is reported through the Outcome and the log.
type Strategy interface {
	Refresh(ctx context.Context) Outcome
}

// ModeDetector reports whether a presentation is currently showing.
type ModeDetector interface {
	IsInPresentationMode() bool
}

// Strategy names accepted by New.
const (
	StrategyRerender = "rerender"
	StrategyReplay   = "replay"
)

// ErrNoActiveView is returned when the workspace has no view to refresh.
var ErrNoActiveView = errors.New("no active view")

// Refresher is the primary strategy: re-render in place, reset on failure.
type Refresher struct {
	workspace host.Workspace
	detector  ModeDetector
	logger    *slog.Logger
}

// NewRefresher creates the primary strategy.
func NewRefresher(ws host.Workspace, detector ModeDetector, logger *slog.Logger) *Refresher {
	if logger == nil {
		logger = slog.Default()
	}

	return &Refresher{workspace: ws, detector: detector, logger: logger}
}

// Refresh implements Strategy.
func (r *Refresher) Refresh(_ context.Context) Outcome {
	if !r.detector.IsInPresentationMode() {
		r.logger.Debug("presentation closed during debounce, skipping refresh")
		return OutcomeSkipped
	}

	view, ok := r.workspace.ActiveView()
	if !ok || view == nil {
		r.logger.Debug("no active view, skipping refresh")
		return OutcomeSkipped
	}

	err := guard(view.Rerender)
	if err == nil {
		r.logger.Debug("presentation re-rendered")
		return OutcomeRerendered
	}

	r.logger.Warn("in-place re-render failed, resetting view state", slog.String("error", err.Error()))

	if err := guard(func() error { return resetViewState(view) }); err != nil {
		r.logger.Error("refreshing presentation", slog.String("error", err.Error()))
		return OutcomeFailed
	}

	return OutcomeReset
}

// resetViewState rebuilds the view's leaf from its own serialized state.
func resetViewState(view host.View) error {
	leaf := view.Leaf()
	if leaf == nil {
		return fmt.Errorf("resetting view state: %w", ErrNoActiveView)
	}

	state, err := leaf.ViewState()
	if err != nil {
		return fmt.Errorf("reading view state: %w", err)
	}

	if err := leaf.SetViewState(state); err != nil {
		return fmt.Errorf("restoring view state: %w", err)
	}

	return nil
}

// guard runs fn and converts a panic into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	return fn()
}
