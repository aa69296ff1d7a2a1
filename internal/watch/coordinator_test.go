package watch

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/slidesync/internal/host"
	"github.com/hupe1980/slidesync/internal/settings"
)

var enabled300 = settings.Settings{Enabled: true, DebounceDelay: 300}

// ---------------------------------------------------------------------------
// Start
// ---------------------------------------------------------------------------

func TestStart_DisabledMakesNoSubscriptions(t *testing.T) {
	h := newHarness()

	refs := h.coord.Start(context.Background(), settings.Settings{Enabled: false, DebounceDelay: 300})
	assert.NotNil(t, refs)
	assert.Empty(t, refs)
	assert.Equal(t, 0, h.vault.modify.Len())
	assert.Equal(t, 0, h.workspace.open.Len())

	h.vault.Modify("deck.md")
	h.clock.Advance(time.Second)
	assert.Zero(t, h.strategy.Calls())
}

func TestStart_ReturnsUnsubscribableRefs(t *testing.T) {
	h := newHarness()

	refs := h.coord.Start(context.Background(), enabled300)
	require.Len(t, refs, 2)
	assert.Equal(t, 1, h.vault.modify.Len())
	assert.Equal(t, 1, h.workspace.open.Len())

	host.UnsubscribeAll(refs)
	assert.Equal(t, 0, h.vault.modify.Len())
	assert.Equal(t, 0, h.workspace.open.Len())
}

// ---------------------------------------------------------------------------
// Debounce
// ---------------------------------------------------------------------------

func TestBurstCollapsesIntoOneRefresh(t *testing.T) {
	h := newHarness()
	h.coord.Start(context.Background(), enabled300)

	h.vault.Modify("deck.md") // t=0
	h.clock.Advance(50 * time.Millisecond)
	h.vault.Modify("deck.md") // t=50
	h.clock.Advance(50 * time.Millisecond)
	h.vault.Modify("deck.md") // t=100

	h.clock.Advance(299 * time.Millisecond)
	assert.Zero(t, h.strategy.Calls(), "must wait for quiescence after the last edit")

	h.clock.Advance(time.Second)
	assert.Equal(t, 1, h.strategy.Calls())
	assert.Equal(t, []time.Duration{400 * time.Millisecond}, h.strategy.Times())
	assert.False(t, h.coord.Pending())
}

func TestSeparateBurstsRefreshSeparately(t *testing.T) {
	h := newHarness()
	h.coord.Start(context.Background(), enabled300)

	h.vault.Modify("deck.md")
	h.clock.Advance(500 * time.Millisecond)
	h.vault.Modify("deck.md")
	h.clock.Advance(500 * time.Millisecond)

	assert.Equal(t, []time.Duration{300 * time.Millisecond, 800 * time.Millisecond}, h.strategy.Times())
}

func TestZeroDelayFiresOnNextTick(t *testing.T) {
	h := newHarness()
	h.coord.Start(context.Background(), settings.Settings{Enabled: true, DebounceDelay: 0})

	h.vault.Modify("deck.md")
	h.vault.Modify("deck.md")
	assert.Zero(t, h.strategy.Calls(), "zero delay must not refresh synchronously")
	assert.True(t, h.coord.Pending())

	h.clock.Advance(0)
	assert.Equal(t, 1, h.strategy.Calls())
}

func TestDebounceDelayFollowsSettings(t *testing.T) {
	h := newHarness()
	h.coord.Start(context.Background(), enabled300)
	h.coord.UpdateSettings(settings.Settings{Enabled: true, DebounceDelay: 1000})

	h.vault.Modify("deck.md")
	h.clock.Advance(999 * time.Millisecond)
	assert.Zero(t, h.strategy.Calls())

	h.clock.Advance(time.Millisecond)
	assert.Equal(t, 1, h.strategy.Calls())
	assert.Equal(t, 1000, h.coord.Settings().DebounceDelay)
}

// ---------------------------------------------------------------------------
// Filtering
// ---------------------------------------------------------------------------

func TestFiltering(t *testing.T) {
	tests := []struct {
		name       string
		modified   string
		active     string
		presenting bool
	}{
		{name: "not markdown", modified: "deck.txt", active: "deck.txt", presenting: true},
		{name: "image", modified: "img/chart.png", active: "deck.md", presenting: true},
		{name: "other file", modified: "notes.md", active: "deck.md", presenting: true},
		{name: "no active file", modified: "deck.md", active: "", presenting: true},
		{name: "not presenting", modified: "deck.md", active: "deck.md", presenting: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			h.workspace.SetActive(tt.active)
			h.detector.on.Store(tt.presenting)
			h.coord.Start(context.Background(), enabled300)

			for i := 0; i < 5; i++ {
				h.vault.Modify(tt.modified)
				h.clock.Advance(100 * time.Millisecond)
			}

			h.clock.Advance(time.Second)
			assert.Zero(t, h.strategy.Calls())
			assert.Zero(t, h.clock.Armed(), "rejected notifications must not arm a timer")
		})
	}
}

func TestFiltering_WorkspacePanicIsRejection(t *testing.T) {
	h := newHarness()
	h.workspace.panics = true
	h.coord.Start(context.Background(), enabled300)

	require.NotPanics(t, func() { h.vault.Modify("deck.md") })
	h.clock.Advance(time.Second)
	assert.Zero(t, h.strategy.Calls())
}

func TestFileOpenNotificationsAreCached(t *testing.T) {
	h := newHarness()
	h.coord.Start(context.Background(), enabled300)

	notes := host.NewFile("notes.md")
	h.workspace.open.Emit(&notes)

	h.vault.Modify("deck.md")
	h.clock.Advance(time.Second)
	assert.Zero(t, h.strategy.Calls(), "cached active file is notes.md")

	h.vault.Modify("notes.md")
	h.clock.Advance(time.Second)
	assert.Equal(t, 1, h.strategy.Calls())

	// A nil open clears the cache and falls back to the host query.
	h.workspace.open.Emit(nil)
	h.vault.Modify("deck.md")
	h.clock.Advance(time.Second)
	assert.Equal(t, 2, h.strategy.Calls())
}

func TestPresentationClosedMidBurst(t *testing.T) {
	h := newHarness()
	h.coord.Start(context.Background(), enabled300)

	h.vault.Modify("deck.md")
	h.clock.Advance(100 * time.Millisecond)

	h.detector.on.Store(false)
	h.vault.Modify("deck.md")

	// The first edit still fires; the strategy re-checks presentation mode.
	h.clock.Advance(time.Second)
	assert.Equal(t, []time.Duration{300 * time.Millisecond}, h.strategy.Times())
}

// ---------------------------------------------------------------------------
// Stop / UpdateSettings
// ---------------------------------------------------------------------------

func TestStop_CancelsPendingAndIgnoresLaterNotifications(t *testing.T) {
	h := newHarness()
	h.coord.Start(context.Background(), enabled300)

	h.vault.Modify("deck.md")
	require.True(t, h.coord.Pending())

	h.coord.Stop()
	assert.False(t, h.coord.Pending())

	for i := 0; i < 3; i++ {
		h.vault.Modify("deck.md")
		h.clock.Advance(200 * time.Millisecond)
	}

	h.clock.Advance(time.Second)
	assert.Zero(t, h.strategy.Calls())

	// Start again resumes.
	h.coord.Start(context.Background(), enabled300)
	h.vault.Modify("deck.md")
	h.clock.Advance(time.Second)
	assert.Equal(t, 1, h.strategy.Calls())
}

func TestStop_Idempotent(t *testing.T) {
	h := newHarness()

	assert.NotPanics(t, func() {
		h.coord.Stop()
		h.coord.Stop()
	})

	h.coord.Start(context.Background(), enabled300)
	h.coord.Stop()
	h.coord.Stop()
	assert.False(t, h.coord.Pending())
}

func TestStop_ClearsCachedActiveFile(t *testing.T) {
	h := newHarness()
	h.coord.Start(context.Background(), enabled300)

	notes := host.NewFile("notes.md")
	h.workspace.open.Emit(&notes)
	h.coord.Stop()

	h.coord.Start(context.Background(), enabled300)
	h.vault.Modify("deck.md")
	h.clock.Advance(time.Second)
	assert.Equal(t, 1, h.strategy.Calls(), "host active file applies after the cache is cleared")
}

func TestUpdateSettings_DisableCancelsPendingTimer(t *testing.T) {
	h := newHarness()
	h.coord.Start(context.Background(), enabled300)

	h.vault.Modify("deck.md")
	h.clock.Advance(100 * time.Millisecond)
	require.True(t, h.coord.Pending())

	h.coord.UpdateSettings(settings.Settings{Enabled: false, DebounceDelay: 300})
	assert.False(t, h.coord.Pending())

	h.vault.Modify("deck.md")
	h.clock.Advance(time.Second)
	assert.Zero(t, h.strategy.Calls())
}

// ---------------------------------------------------------------------------
// Real timers
// ---------------------------------------------------------------------------

func TestCoordinator_RealTimerScenario(t *testing.T) {
	vault := &fakeVault{}
	ws := &fakeWorkspace{}
	ws.SetActive("deck.md")

	detector := &switchDetector{}
	detector.on.Store(true)

	var (
		calls   atomic.Int32
		firedAt atomic.Int64
	)

	start := time.Now()
	strategy := strategyFunc(func() {
		calls.Add(1)
		firedAt.Store(int64(time.Since(start)))
	})

	c := NewCoordinator(vault, ws, detector, strategy, WithLogger(discardLogger()))
	c.Start(context.Background(), settings.Settings{Enabled: true, DebounceDelay: 100})
	defer c.Stop()

	vault.Modify("deck.md")
	time.Sleep(20 * time.Millisecond)
	vault.Modify("deck.md")
	time.Sleep(20 * time.Millisecond)
	last := time.Since(start)
	vault.Modify("deck.md")

	require.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	// Nothing else should fire.
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
	assert.GreaterOrEqual(t, time.Duration(firedAt.Load()), last+100*time.Millisecond)
}
