package settings

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Diff returns a unified diff between two encoded settings blobs. An empty
// result means the blobs are identical.
func Diff(oldData, newData []byte, oldLabel, newLabel string) (string, error) {
	diff := difflib.UnifiedDiff{
		A:        splitLines(string(oldData)),
		B:        splitLines(string(newData)),
		FromFile: oldLabel,
		ToFile:   newLabel,
		Context:  3,
	}

	out, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "", fmt.Errorf("computing settings diff: %w", err)
	}

	return out, nil
}

// splitLines keeps the trailing newline on each line, as difflib expects.
func splitLines(s string) []string {
	if s == "" {
		return []string{}
	}

	return strings.SplitAfter(s, "\n")
}
