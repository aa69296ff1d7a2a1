package config

import (
	"fmt"
	"time"

	"github.com/hupe1980/slidesync/internal/presentation"
	"github.com/hupe1980/slidesync/internal/refresh"
)

// PresenterConfig holds the presenter section of the config file
// (.slidesync.yaml). Delays are Go duration strings so that an empty value
// can mean "use the default".
type PresenterConfig struct {
	// Theme is the glamour style used for every deck. Empty means the deck's
	// own theme, then the default.
	Theme string `mapstructure:"theme" json:"theme,omitempty"`

	// Strategy selects how an edit reaches the screen: rerender or replay.
	Strategy string `mapstructure:"strategy" json:"strategy,omitempty"`

	// Replay tunes the replay strategy.
	Replay ReplayConfig `mapstructure:"replay" json:"replay,omitempty"`

	// Markers replace the built-in presentation markers when not empty.
	Markers []MarkerConfig `mapstructure:"markers" json:"markers,omitempty"`
}

// ReplayConfig holds the replay delays.
type ReplayConfig struct {
	ExitDelay string `mapstructure:"exitDelay" json:"exitDelay,omitempty"`
	LoadDelay string `mapstructure:"loadDelay" json:"loadDelay,omitempty"`
}

// MarkerConfig declares one presentation marker. Exactly one of
// AncestorClass, DataAttribute or Nested must be set.
type MarkerConfig struct {
	AncestorClass string        `mapstructure:"ancestorClass" json:"ancestorClass,omitempty"`
	DataAttribute string        `mapstructure:"dataAttribute" json:"dataAttribute,omitempty"`
	Nested        *NestedMarker `mapstructure:"nested" json:"nested,omitempty"`
}

// NestedMarker matches Inner below Outer.
type NestedMarker struct {
	Outer string `mapstructure:"outer" json:"outer"`
	Inner string `mapstructure:"inner" json:"inner"`
}

// Validate checks the presenter config for correctness.
func (c *PresenterConfig) Validate() error {
	switch c.Strategy {
	case "", refresh.StrategyRerender, refresh.StrategyReplay:
	default:
		return fmt.Errorf("presenter.strategy: invalid value %q (must be %s or %s)",
			c.Strategy, refresh.StrategyRerender, refresh.StrategyReplay)
	}

	if _, err := parseDelay(c.Replay.ExitDelay, 0); err != nil {
		return fmt.Errorf("presenter.replay.exitDelay: %w", err)
	}

	if _, err := parseDelay(c.Replay.LoadDelay, 0); err != nil {
		return fmt.Errorf("presenter.replay.loadDelay: %w", err)
	}

	for i, m := range c.Markers {
		set := 0

		if m.AncestorClass != "" {
			set++
		}

		if m.DataAttribute != "" {
			set++
		}

		if m.Nested != nil {
			set++

			if m.Nested.Outer == "" || m.Nested.Inner == "" {
				return fmt.Errorf("presenter.markers[%d]: nested needs outer and inner", i)
			}
		}

		if set != 1 {
			return fmt.Errorf("presenter.markers[%d]: exactly one of ancestorClass, dataAttribute, nested is required", i)
		}
	}

	return nil
}

// PresentationMarkers converts the configured markers. It returns nil when
// none are configured so the detector keeps its defaults.
func (c *PresenterConfig) PresentationMarkers() []presentation.Marker {
	if len(c.Markers) == 0 {
		return nil
	}

	out := make([]presentation.Marker, 0, len(c.Markers))

	for _, m := range c.Markers {
		switch {
		case m.AncestorClass != "":
			out = append(out, presentation.AncestorClass{Class: m.AncestorClass})
		case m.DataAttribute != "":
			out = append(out, presentation.DataAttribute{Name: m.DataAttribute})
		case m.Nested != nil:
			out = append(out, presentation.NestedClass{Outer: m.Nested.Outer, Inner: m.Nested.Inner})
		}
	}

	return out
}

// ExitDelay returns the configured replay exit delay or the default.
func (c *PresenterConfig) ExitDelay() time.Duration {
	d, _ := parseDelay(c.Replay.ExitDelay, refresh.DefaultExitDelay)
	return d
}

// LoadDelay returns the configured replay load delay or the default.
func (c *PresenterConfig) LoadDelay() time.Duration {
	d, _ := parseDelay(c.Replay.LoadDelay, refresh.DefaultLoadDelay)
	return d
}

func parseDelay(s string, fallback time.Duration) (time.Duration, error) {
	if s == "" {
		return fallback, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback, err
	}

	if d < 0 {
		return fallback, fmt.Errorf("delay %s must not be negative", s)
	}

	return d, nil
}
