// Package manifest describes the slidesync plugin to its host and checks
// that the host is recent enough to run it.
package manifest

import (
	_ "embed"
	"fmt"

	"github.com/Masterminds/semver/v3"
	"sigs.k8s.io/yaml"
)

//go:embed manifest.json
var embedded []byte

// Manifest is the plugin descriptor shipped with the binary.
type Manifest struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Version       string `json:"version"`
	MinAppVersion string `json:"minAppVersion"`
	Description   string `json:"description"`
	Author        string `json:"author,omitempty"`
	IsDesktopOnly bool   `json:"isDesktopOnly,omitempty"`
}

// Load returns the embedded manifest.
func Load() (*Manifest, error) {
	return Parse(embedded)
}

// Raw returns the embedded manifest bytes.
func Raw() []byte {
	return append([]byte(nil), embedded...)
}

// Parse decodes and validates a manifest. JSON and YAML are accepted.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return &m, nil
}

// Validate checks required fields and version syntax.
func (m *Manifest) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("invalid manifest: id is required")
	}

	if _, err := semver.NewVersion(m.Version); err != nil {
		return fmt.Errorf("invalid manifest version %q: %w", m.Version, err)
	}

	if m.MinAppVersion != "" {
		if _, err := semver.NewVersion(m.MinAppVersion); err != nil {
			return fmt.Errorf("invalid manifest minAppVersion %q: %w", m.MinAppVersion, err)
		}
	}

	return nil
}

// CompatibleWith reports whether a host at hostVersion can load the plugin.
func (m *Manifest) CompatibleWith(hostVersion string) error {
	if m.MinAppVersion == "" {
		return nil
	}

	v, err := semver.NewVersion(hostVersion)
	if err != nil {
		return fmt.Errorf("invalid host version %q: %w", hostVersion, err)
	}

	c, err := semver.NewConstraint(">= " + m.MinAppVersion)
	if err != nil {
		return fmt.Errorf("invalid manifest minAppVersion %q: %w", m.MinAppVersion, err)
	}

	if !c.Check(v) {
		return fmt.Errorf("%s %s requires host version %s or newer, got %s",
			m.ID, m.Version, m.MinAppVersion, hostVersion)
	}

	return nil
}
