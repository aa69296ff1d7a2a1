package deck

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

// DefaultStyle is the glamour style used when neither the deck nor the
// caller picks one.
const DefaultStyle = "dark"

// minWidth keeps word wrapping sane in tiny terminals.
const minWidth = 20

type rendererKey struct {
	style string
	width int
}

// Renderer turns markdown into ANSI output. Glamour renderers are costly to
// build, so one is kept per style and width.
type Renderer struct {
	mu    sync.Mutex
	cache map[rendererKey]*glamour.TermRenderer
}

// NewRenderer returns an empty renderer cache.
func NewRenderer() *Renderer {
	return &Renderer{cache: make(map[rendererKey]*glamour.TermRenderer)}
}

// Render renders md with style wrapped at width.
func (r *Renderer) Render(md, style string, width int) (string, error) {
	tr, err := r.get(style, width)
	if err != nil {
		return "", err
	}

	out, err := tr.Render(md)
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}

	return strings.TrimRight(out, "\n"), nil
}

func (r *Renderer) get(style string, width int) (*glamour.TermRenderer, error) {
	if style == "" {
		style = DefaultStyle
	}

	if width < minWidth {
		width = minWidth
	}

	key := rendererKey{style: style, width: width}

	r.mu.Lock()
	defer r.mu.Unlock()

	if tr, ok := r.cache[key]; ok {
		return tr, nil
	}

	tr, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
		glamour.WithEmoji(),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s renderer: %w", style, err)
	}

	r.cache[key] = tr

	return tr, nil
}
