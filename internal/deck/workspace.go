package deck

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hupe1980/slidesync/internal/host"
)

// ErrNotRunning is returned when input is dispatched before the program
// is attached.
var ErrNotRunning = errors.New("presenter is not running")

// Workspace is the terminal host's single-leaf workspace. It implements
// host.Workspace and host.InputDispatcher.
type Workspace struct {
	root     string
	style    string
	renderer *Renderer

	mu   sync.RWMutex
	view *View
	send func(tea.Msg)

	fileOpen host.Emitter[*host.File]
}

// NewWorkspace returns a workspace for the vault at root. style overrides
// the deck theme when not empty.
func NewWorkspace(root, style string) *Workspace {
	return &Workspace{
		root:     root,
		style:    style,
		renderer: NewRenderer(),
	}
}

// Open shows the vault-relative file rel and announces it to file-open
// subscribers.
func (w *Workspace) Open(rel string) (*View, error) {
	file := host.NewFile(filepath.ToSlash(rel))
	if !file.IsMarkdown() {
		return nil, fmt.Errorf("opening %s: not a markdown file", rel)
	}

	view := NewView(file, filepath.Join(w.root, filepath.FromSlash(file.Path)), w.renderer, w.style)
	if err := view.Load(); err != nil {
		return nil, fmt.Errorf("opening %s: %w", rel, err)
	}

	w.mu.Lock()
	w.view = view
	view.setNotify(w.redraw)
	w.mu.Unlock()

	w.fileOpen.Emit(&file)

	return view, nil
}

// Close empties the workspace.
func (w *Workspace) Close() {
	w.mu.Lock()
	w.view = nil
	w.mu.Unlock()

	w.fileOpen.Emit(nil)
}

// Attach connects the workspace to a running program so refreshes redraw
// the screen and dispatched input reaches the model.
func (w *Workspace) Attach(p *tea.Program) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.send = p.Send
}

// OnFileOpen implements host.Workspace.
func (w *Workspace) OnFileOpen(fn func(*host.File)) host.EventRef {
	return w.fileOpen.On(fn)
}

// ActiveFile implements host.Workspace.
func (w *Workspace) ActiveFile() (host.File, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.view == nil {
		return host.File{}, false
	}

	return w.view.File(), true
}

// ActiveView implements host.Workspace.
func (w *Workspace) ActiveView() (host.View, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.view == nil {
		return nil, false
	}

	return w.view, true
}

// DispatchKey implements host.InputDispatcher.
func (w *Workspace) DispatchKey(key string) error {
	msg, err := keyMsg(key)
	if err != nil {
		return err
	}

	return w.dispatch(msg)
}

// Click implements host.InputDispatcher for the navigation buttons.
func (w *Workspace) Click(el *host.Element) error {
	switch {
	case el.HasClass("navigate-right"):
		return w.dispatch(navigateMsg{delta: 1})
	case el.HasClass("navigate-left"):
		return w.dispatch(navigateMsg{delta: -1})
	default:
		return fmt.Errorf("element <%s> is not clickable", el.Tag)
	}
}

func (w *Workspace) dispatch(msg tea.Msg) error {
	w.mu.RLock()
	send := w.send
	w.mu.RUnlock()

	if send == nil {
		return ErrNotRunning
	}

	send(msg)

	return nil
}

// redraw asks the program to repaint. It never blocks the caller.
func (w *Workspace) redraw() {
	w.mu.RLock()
	send := w.send
	w.mu.RUnlock()

	if send != nil {
		go send(redrawMsg{})
	}
}

func keyMsg(key string) (tea.KeyMsg, error) {
	switch key {
	case "Escape":
		return tea.KeyMsg{Type: tea.KeyEsc}, nil
	case "F5":
		return tea.KeyMsg{Type: tea.KeyF5}, nil
	case "ArrowRight":
		return tea.KeyMsg{Type: tea.KeyRight}, nil
	case "ArrowLeft":
		return tea.KeyMsg{Type: tea.KeyLeft}, nil
	default:
		runes := []rune(key)
		if len(runes) != 1 {
			return tea.KeyMsg{}, fmt.Errorf("unsupported key %q", key)
		}

		return tea.KeyMsg{Type: tea.KeyRunes, Runes: runes}, nil
	}
}
