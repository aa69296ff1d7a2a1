package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hupe1980/slidesync/internal/host"
)

// Keys and selectors the replay strategy drives the presentation with.
const (
	KeyExitPresentation  = "Escape"
	KeyStartPresentation = "F5"

	presentationSelector = ".slides-container .reveal"
	pastSlideSelector    = "section.past"
	nextButtonSelector   = "button.navigate-right"
)

// Default replay delays.
const (
	DefaultExitDelay = 100 * time.Millisecond
	DefaultLoadDelay = 500 * time.Millisecond
)

// Replay restarts the presentation by simulating user input: it leaves
// presentation mode, starts it again and clicks forward to the slide that
// was showing before. It is timing-sensitive and only meant for hosts that
// cannot re-render a view in place.
type Replay struct {
	workspace host.Workspace
	detector  ModeDetector
	input     host.InputDispatcher
	logger    *slog.Logger

	// ExitDelay is the pause between leaving and re-entering presentation mode.
	ExitDelay time.Duration
	// LoadDelay is the pause between re-entering and navigating.
	LoadDelay time.Duration
}

// NewReplay creates the legacy replay strategy.
func NewReplay(ws host.Workspace, detector ModeDetector, input host.InputDispatcher, logger *slog.Logger) *Replay {
	if logger == nil {
		logger = slog.Default()
	}

	return &Replay{
		workspace: ws,
		detector:  detector,
		input:     input,
		logger:    logger,
		ExitDelay: DefaultExitDelay,
		LoadDelay: DefaultLoadDelay,
	}
}

// Refresh implements Strategy.
func (r *Replay) Refresh(ctx context.Context) Outcome {
	if !r.detector.IsInPresentationMode() {
		return OutcomeSkipped
	}

	presentation := r.query(presentationSelector)
	if presentation == nil {
		r.logger.Debug("presentation container not found, skipping replay")
		return OutcomeSkipped
	}

	index := len(presentation.QueryAll(pastSlideSelector))
	r.logger.Debug("replaying presentation", slog.Int("slide", index))

	if err := r.input.DispatchKey(KeyExitPresentation); err != nil {
		r.logger.Error("leaving presentation", slog.String("error", err.Error()))
		return OutcomeFailed
	}

	if err := sleep(ctx, r.ExitDelay); err != nil {
		return OutcomeFailed
	}

	if err := r.input.DispatchKey(KeyStartPresentation); err != nil {
		r.logger.Error("starting presentation", slog.String("error", err.Error()))
		return OutcomeFailed
	}

	if index == 0 {
		return OutcomeReplayed
	}

	if err := sleep(ctx, r.LoadDelay); err != nil {
		return OutcomeFailed
	}

	next := r.query(nextButtonSelector)
	if next == nil {
		r.logger.Warn("navigation button not found, presentation restarted at first slide")
		return OutcomeReplayed
	}

	for i := 0; i < index; i++ {
		if err := r.input.Click(next); err != nil {
			r.logger.Warn("navigating to previous slide",
				slog.Int("slide", i+1), slog.String("error", err.Error()))

			break
		}
	}

	return OutcomeReplayed
}

func (r *Replay) query(selector string) *host.Element {
	view, ok := r.workspace.ActiveView()
	if !ok || view == nil {
		return nil
	}

	return view.Container().Query(selector)
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// New returns the strategy registered under name. input may be nil unless
// name is StrategyReplay.
func New(name string, ws host.Workspace, detector ModeDetector, input host.InputDispatcher, logger *slog.Logger) (Strategy, error) {
	switch name {
	case "", StrategyRerender:
		return NewRefresher(ws, detector, logger), nil
	case StrategyReplay:
		if input == nil {
			return nil, fmt.Errorf("strategy %q needs an input dispatcher", name)
		}

		return NewReplay(ws, detector, input, logger), nil
	default:
		return nil, fmt.Errorf("unknown refresh strategy %q: must be one of %s, %s", name, StrategyRerender, StrategyReplay)
	}
}
