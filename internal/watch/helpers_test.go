package watch

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/slidesync/internal/host"
	"github.com/hupe1980/slidesync/internal/refresh"
)

// ---------------------------------------------------------------------------
// Fake clock
// ---------------------------------------------------------------------------

type fakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	active := !t.stopped && !t.fired
	t.stopped = true

	return active
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &fakeTimer{clock: c, at: c.now + d, f: f}
	c.timers = append(c.timers, t)

	return t
}

// Now returns the elapsed fake time.
func (c *fakeClock) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

// Advance moves time forward by d, firing due timers in order.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now + d

	for {
		var next *fakeTimer

		for _, t := range c.timers {
			if t.stopped || t.fired || t.at > target {
				continue
			}

			if next == nil || t.at < next.at {
				next = t
			}
		}

		if next == nil {
			break
		}

		c.now = next.at
		next.fired = true
		c.mu.Unlock()
		next.f()
		c.mu.Lock()
	}

	c.now = target
	c.mu.Unlock()
}

// Armed returns how many timers were ever scheduled.
func (c *fakeClock) Armed() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.timers)
}

// ---------------------------------------------------------------------------
// Fake host
// ---------------------------------------------------------------------------

type fakeVault struct {
	modify host.Emitter[host.File]
}

func (v *fakeVault) OnModify(fn func(host.File)) host.EventRef { return v.modify.On(fn) }

func (v *fakeVault) Modify(path string) { v.modify.Emit(host.NewFile(path)) }

type fakeWorkspace struct {
	open   host.Emitter[*host.File]
	mu     sync.Mutex
	active *host.File
	panics bool
}

func (w *fakeWorkspace) OnFileOpen(fn func(*host.File)) host.EventRef { return w.open.On(fn) }

func (w *fakeWorkspace) ActiveFile() (host.File, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.panics {
		panic("workspace torn down")
	}

	if w.active == nil {
		return host.File{}, false
	}

	return *w.active, true
}

func (w *fakeWorkspace) ActiveView() (host.View, bool) { return nil, false }

func (w *fakeWorkspace) SetActive(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if path == "" {
		w.active = nil
		return
	}

	f := host.NewFile(path)
	w.active = &f
}

type switchDetector struct {
	on atomic.Bool
}

func (d *switchDetector) IsInPresentationMode() bool { return d.on.Load() }

// recordingStrategy records when each refresh ran.
type recordingStrategy struct {
	mu    sync.Mutex
	calls int
	at    []time.Duration
	now   func() time.Duration
}

func (s *recordingStrategy) Refresh(context.Context) refresh.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	if s.now != nil {
		s.at = append(s.at, s.now())
	}

	return refresh.OutcomeRerendered
}

func (s *recordingStrategy) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.calls
}

func (s *recordingStrategy) Times() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]time.Duration(nil), s.at...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type harness struct {
	clock     *fakeClock
	vault     *fakeVault
	workspace *fakeWorkspace
	detector  *switchDetector
	strategy  *recordingStrategy
	coord     *Coordinator
}

// newHarness returns a coordinator presenting deck.md on a fake clock.
func newHarness() *harness {
	h := &harness{
		clock:     &fakeClock{},
		vault:     &fakeVault{},
		workspace: &fakeWorkspace{},
		detector:  &switchDetector{},
	}

	h.strategy = &recordingStrategy{now: h.clock.Now}
	h.workspace.SetActive("deck.md")
	h.detector.on.Store(true)

	h.coord = NewCoordinator(h.vault, h.workspace, h.detector, h.strategy,
		WithLogger(discardLogger()),
		WithAfterFunc(h.clock.AfterFunc),
	)

	return h
}
