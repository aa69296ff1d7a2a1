// Package version reports build metadata for the slidesync binary together
// with the plugin identity from the embedded manifest. Version, GitCommit,
// and BuildDate are injected at compile time via -ldflags.
package version

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/hupe1980/slidesync/internal/manifest"
)

// Build-time values injected via -ldflags.
var (
	version   = "dev"
	gitCommit = "none"
	buildDate = "unknown"
)

// Info holds the build metadata for the binary.
type Info struct {
	Version       string `json:"version"`
	GitCommit     string `json:"gitCommit"`
	BuildDate     string `json:"buildDate"`
	GoVersion     string `json:"goVersion"`
	Platform      string `json:"platform"`
	PluginID      string `json:"pluginId,omitempty"`
	PluginVersion string `json:"pluginVersion,omitempty"`
	MinAppVersion string `json:"minAppVersion,omitempty"`
}

// GetInfo returns the current build information.
func GetInfo() Info {
	info := Info{
		Version:   version,
		GitCommit: shortCommit(gitCommit),
		BuildDate: buildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}

	if m, err := manifest.Load(); err == nil {
		info.PluginID = m.ID
		info.PluginVersion = m.Version
		info.MinAppVersion = m.MinAppVersion
	}

	return info
}

// String returns a human-readable single-line version string.
func (i Info) String() string {
	s := fmt.Sprintf("slidesync %s (commit: %s, built: %s, %s %s)",
		i.Version, i.GitCommit, i.BuildDate, i.GoVersion, i.Platform)

	if i.PluginID != "" {
		s += fmt.Sprintf(" plugin %s %s, host >= %s", i.PluginID, i.PluginVersion, i.MinAppVersion)
	}

	return s
}

// JSON returns the version info as indented JSON.
func (i Info) JSON() (string, error) {
	data, err := json.MarshalIndent(i, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling version info: %w", err)
	}

	return string(data), nil
}

func shortCommit(commit string) string {
	if len(commit) > 7 {
		return commit[:7]
	}

	return commit
}
