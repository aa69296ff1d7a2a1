// Package settings holds the two user-facing options of slidesync and
// persists them as a small JSON blob next to the vault.
package settings

import (
	"encoding/json"
	"fmt"
	"time"

	"sigs.k8s.io/yaml"
)

// Defaults applied when the persisted blob omits a key.
const (
	DefaultEnabled       = true
	DefaultDebounceDelay = 300
)

// Settings is an immutable snapshot of the user configuration. Holders
// replace it wholesale; they never mutate a shared copy.
type Settings struct {
	// Enabled turns automatic refreshing on or off.
	Enabled bool `json:"enabled"`

	// DebounceDelay is the quiet period in milliseconds that must follow the
	// last edit before the presentation refreshes.
	DebounceDelay int `json:"debounceDelay"`
}

// Default returns the settings used when nothing is persisted.
func Default() Settings {
	return Settings{
		Enabled:       DefaultEnabled,
		DebounceDelay: DefaultDebounceDelay,
	}
}

// Delay returns DebounceDelay as a duration.
func (s Settings) Delay() time.Duration {
	return time.Duration(s.DebounceDelay) * time.Millisecond
}

// Validate checks the invariants of s.
func (s Settings) Validate() error {
	if s.DebounceDelay < 0 {
		return fmt.Errorf("invalid debounce delay %d: must be >= 0 milliseconds", s.DebounceDelay)
	}

	return nil
}

// Decode parses a persisted blob and merges it over Default. The blob may
// be JSON or YAML; an empty blob yields the defaults.
func Decode(data []byte) (Settings, error) {
	s := Default()
	if len(data) == 0 {
		return s, nil
	}

	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("decoding settings: %w", err)
	}

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}

	return s, nil
}

// Encode renders s as the indented JSON blob written to disk.
func Encode(s Settings) ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding settings: %w", err)
	}

	return append(data, '\n'), nil
}
