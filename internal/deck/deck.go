// Package deck is a terminal host for slidesync. It presents one markdown
// file as a slide deck with Bubble Tea and Glamour and exposes the
// host.Workspace, host.View and host.Leaf boundary the coordinator needs.
package deck

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// APIVersion is the host version reported to plugins.
const APIVersion = "1.5.0"

// Meta is the optional YAML front matter of a deck.
type Meta struct {
	Title string `yaml:"title"`
	Theme string `yaml:"theme"`
}

// Deck is a parsed markdown presentation.
type Deck struct {
	Meta   Meta
	Slides []string
}

// Parse splits src into slides. Slides are separated by lines consisting
// of "---" outside fenced code blocks. A leading "---" block is front
// matter.
func Parse(src []byte) (*Deck, error) {
	src = bytes.ReplaceAll(src, []byte("\r\n"), []byte("\n"))

	d := &Deck{}

	body, meta, err := splitFrontMatter(string(src))
	if err != nil {
		return nil, err
	}

	d.Meta = meta

	var (
		cur    []string
		fenced bool
	)

	flush := func() {
		s := strings.TrimSpace(strings.Join(cur, "\n"))
		if s != "" {
			d.Slides = append(d.Slides, s)
		}

		cur = cur[:0]
	}

	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			fenced = !fenced
		}

		if !fenced && trimmed == "---" {
			flush()
			continue
		}

		cur = append(cur, line)
	}

	flush()

	if len(d.Slides) == 0 {
		d.Slides = []string{""}
	}

	return d, nil
}

func splitFrontMatter(src string) (string, Meta, error) {
	var meta Meta

	if !strings.HasPrefix(src, "---\n") {
		return src, meta, nil
	}

	rest := src[len("---\n"):]

	end := strings.Index(rest, "\n---\n")
	if end < 0 {
		if strings.HasSuffix(rest, "\n---") {
			end = len(rest) - len("\n---")
		} else {
			return src, meta, nil
		}
	}

	// Only a YAML mapping counts as front matter; anything else is the
	// first slide of a deck that starts with a separator.
	var node yaml.Node
	if err := yaml.Unmarshal([]byte(rest[:end]), &node); err != nil ||
		len(node.Content) == 0 || node.Content[0].Kind != yaml.MappingNode {
		return src, meta, nil
	}

	if err := node.Decode(&meta); err != nil {
		return "", Meta{}, fmt.Errorf("parsing front matter: %w", err)
	}

	body := ""
	if end+len("\n---\n") <= len(rest) {
		body = rest[end+len("\n---\n"):]
	}

	return body, meta, nil
}
