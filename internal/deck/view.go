package deck

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/hupe1980/slidesync/internal/host"
)

// ViewType is the view-state type of a deck view.
const ViewType = "markdown"

// View-state keys.
const (
	stateFile       = "file"
	stateMode       = "mode"
	statePresenting = "presenting"
)

var errNotLoaded = errors.New("deck not loaded")

// View renders one markdown file. It implements host.View and host.Leaf.
// All methods are safe for concurrent use; notify is called after every
// change that happened outside the UI loop.
type View struct {
	mu         sync.RWMutex
	file       host.File
	path       string
	mode       host.ViewMode
	presenting bool
	index      int
	width      int
	style      string
	deck       *Deck
	source     string
	rendered   []string
	renderer   *Renderer
	notify     func()
}

// NewView returns a view for file stored at path. It renders nothing until
// Load is called.
func NewView(file host.File, path string, renderer *Renderer, style string) *View {
	if renderer == nil {
		renderer = NewRenderer()
	}

	return &View{
		file:     file,
		path:     path,
		mode:     host.ModePreview,
		width:    80,
		style:    style,
		renderer: renderer,
		notify:   func() {},
	}
}

// File returns the presented file.
func (v *View) File() host.File {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return v.file
}

// Load reads and renders the file, keeping the current slide.
func (v *View) Load() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.loadLocked()
}

// loaded is a parsed and rendered snapshot of the file.
type loaded struct {
	deck     *Deck
	source   string
	rendered []string
}

func (v *View) loadLocked() error {
	l, err := v.build()
	if err != nil {
		return err
	}

	v.apply(l)

	return nil
}

// build reads and renders the file without touching what the view shows.
func (v *View) build() (loaded, error) {
	src, err := os.ReadFile(v.path)
	if err != nil {
		return loaded{}, fmt.Errorf("reading %s: %w", v.file.Path, err)
	}

	d, err := Parse(src)
	if err != nil {
		return loaded{}, fmt.Errorf("parsing %s: %w", v.file.Path, err)
	}

	style := v.style
	if style == "" {
		style = d.Meta.Theme
	}

	rendered := make([]string, len(d.Slides))

	for i, s := range d.Slides {
		out, err := v.renderer.Render(s, style, v.width)
		if err != nil {
			return loaded{}, fmt.Errorf("rendering slide %d of %s: %w", i+1, v.file.Path, err)
		}

		rendered[i] = out
	}

	return loaded{deck: d, source: string(src), rendered: rendered}, nil
}

func (v *View) apply(l loaded) {
	v.deck = l.deck
	v.source = l.source
	v.rendered = l.rendered

	if v.index >= len(l.rendered) {
		v.index = len(l.rendered) - 1
	}

	if v.index < 0 {
		v.index = 0
	}
}

// Mode implements host.View.
func (v *View) Mode() host.ViewMode {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return v.mode
}

// Rerender implements host.View. It re-reads the file and renders it in
// place, keeping the current slide where it still exists.
func (v *View) Rerender() error {
	v.mu.Lock()
	err := v.loadLocked()
	notify := v.notify
	v.mu.Unlock()

	if err != nil {
		return err
	}

	notify()

	return nil
}

// Leaf implements host.View; a deck view is its own leaf.
func (v *View) Leaf() host.Leaf { return v }

// ViewState implements host.Leaf.
func (v *View) ViewState() (host.ViewState, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if v.deck == nil {
		return host.ViewState{}, errNotLoaded
	}

	return host.ViewState{
		Type: ViewType,
		State: map[string]any{
			stateFile:       v.file.Path,
			stateMode:       string(v.mode),
			statePresenting: v.presenting,
		},
		Active: true,
	}, nil
}

// SetViewState implements host.Leaf. The view is rebuilt from state and
// the slide position restarts at the first slide. When the file cannot be
// rebuilt the view keeps showing what it showed before.
func (v *View) SetViewState(state host.ViewState) error {
	if state.Type != ViewType {
		return fmt.Errorf("unsupported view type %q", state.Type)
	}

	file, _ := state.State[stateFile].(string)
	mode, _ := state.State[stateMode].(string)
	presenting, _ := state.State[statePresenting].(bool)

	v.mu.Lock()

	if file != "" && file != v.file.Path {
		v.mu.Unlock()
		return fmt.Errorf("view state is for %q, view shows %q", file, v.file.Path)
	}

	l, err := v.build()
	if err != nil {
		v.mu.Unlock()
		return err
	}

	v.mode = host.ViewMode(mode)
	if v.mode != host.ModeSource {
		v.mode = host.ModePreview
	}

	v.presenting = presenting && v.mode == host.ModePreview
	v.index = 0
	v.apply(l)

	notify := v.notify
	v.mu.Unlock()

	notify()

	return nil
}

// Container implements host.View. The structure mirrors what the slide
// renderer produces in the desktop client so presentation markers are
// detectable.
func (v *View) Container() *host.Element {
	v.mu.RLock()
	defer v.mu.RUnlock()

	leaf := host.NewElement("div", "workspace-leaf")

	if v.mode == host.ModeSource {
		leaf.Append(host.NewElement("div", "markdown-source-view"))
		return leaf.Children[0]
	}

	container := host.NewElement("div", "markdown-preview-view")
	leaf.Append(container)

	if !v.presenting {
		for range v.rendered {
			container.Append(host.NewElement("section"))
		}

		return container
	}

	leaf.Classes.Insert("reveal-viewport")

	slides := host.NewElement("div", "slides")

	for i := range v.rendered {
		class := "future"

		switch {
		case i < v.index:
			class = "past"
		case i == v.index:
			class = "present"
		}

		slides.Append(host.NewElement("section", class))
	}

	reveal := host.NewElement("div", "reveal").SetAttr("data-presentation", "true")
	reveal.Append(
		slides,
		host.NewElement("button", "navigate-left"),
		host.NewElement("button", "navigate-right"),
	)
	container.Append(host.NewElement("div", "slides-container").Append(reveal))

	return container
}

// Presenting reports whether the deck is shown full-screen.
func (v *View) Presenting() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return v.presenting
}

// EnterPresentation switches to preview, re-reads the file and presents the
// current slide. A file that fails to load is reported and the previous
// content is presented.
func (v *View) EnterPresentation() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.mode = host.ModePreview
	v.presenting = true

	return v.loadLocked()
}

// ExitPresentation leaves presentation mode and rewinds to the first slide.
func (v *View) ExitPresentation() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.presenting = false
	v.index = 0
}

// ToggleMode flips between source and preview outside presentations.
func (v *View) ToggleMode() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.presenting {
		return
	}

	if v.mode == host.ModeSource {
		v.mode = host.ModePreview
	} else {
		v.mode = host.ModeSource
	}
}

// Navigate moves delta slides, clamped to the deck.
func (v *View) Navigate(delta int) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.index += delta

	if v.index >= len(v.rendered) {
		v.index = len(v.rendered) - 1
	}

	if v.index < 0 {
		v.index = 0
	}
}

// Position returns the current slide index and the slide count.
func (v *View) Position() (int, int) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return v.index, len(v.rendered)
}

// Title returns the deck title or the file name.
func (v *View) Title() string {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if v.deck != nil && v.deck.Meta.Title != "" {
		return v.deck.Meta.Title
	}

	return v.file.Path
}

// Resize re-renders at a new wrap width.
func (v *View) Resize(width int) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if width == v.width {
		return nil
	}

	v.width = width

	if v.deck == nil {
		return nil
	}

	return v.loadLocked()
}

// Content returns what the view currently shows.
func (v *View) Content() string {
	v.mu.RLock()
	defer v.mu.RUnlock()

	switch {
	case v.mode == host.ModeSource:
		return v.source
	case len(v.rendered) == 0:
		return ""
	case v.presenting:
		return v.rendered[v.index]
	default:
		return strings.Join(v.rendered, "\n\n")
	}
}

func (v *View) setNotify(fn func()) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.notify = fn
}
