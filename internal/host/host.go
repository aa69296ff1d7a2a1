package host

import (
	"path"
	"strings"
)

// MarkdownExtension is the extension (without dot) of files that can be
// presented as a slide deck.
const MarkdownExtension = "md"

// File identifies a file inside the vault. Path is vault-relative and uses
// forward slashes; Extension is lower-case without the leading dot.
type File struct {
	Path      string `json:"path"`
	Extension string `json:"extension"`
}

// NewFile builds a File from a vault-relative path.
func NewFile(p string) File {
	p = path.Clean(strings.ReplaceAll(p, "\\", "/"))

	return File{
		Path:      p,
		Extension: strings.ToLower(strings.TrimPrefix(path.Ext(p), ".")),
	}
}

// IsMarkdown reports whether f can be presented.
func (f File) IsMarkdown() bool {
	return f.Extension == MarkdownExtension
}

// ViewMode is the display mode of a markdown view.
type ViewMode string

// View modes.
const (
	ModeSource  ViewMode = "source"
	ModePreview ViewMode = "preview"
)

// Vault emits notifications about files on disk.
type Vault interface {
	// OnModify registers fn for every file modification.
	OnModify(fn func(File)) EventRef
}

// Workspace answers questions about what the user currently looks at.
type Workspace interface {
	// OnFileOpen registers fn for every change of the active file. The file
	// is nil when the active leaf shows no file.
	OnFileOpen(fn func(*File)) EventRef

	// ActiveFile returns the file of the focused leaf.
	ActiveFile() (File, bool)

	// ActiveView returns the view of the focused leaf.
	ActiveView() (View, bool)
}

// View is a single pane rendering a document.
type View interface {
	// Mode reports whether the view shows source or rendered output.
	Mode() ViewMode

	// Container returns the root of the rendered structure. It may be nil
	// when nothing has been rendered yet.
	Container() *Element

	// Rerender re-renders the view from the current file contents in place.
	Rerender() error

	// Leaf returns the pane hosting this view.
	Leaf() Leaf
}

// ViewState is the serialized state a leaf can be rebuilt from.
type ViewState struct {
	Type   string         `json:"type"`
	State  map[string]any `json:"state,omitempty"`
	Active bool           `json:"active,omitempty"`
}

// Leaf is the container a view lives in.
type Leaf interface {
	ViewState() (ViewState, error)

	// SetViewState tears the view down and rebuilds it from state.
	SetViewState(state ViewState) error
}

// InputDispatcher simulates user input. Only the replay refresh strategy
// uses it.
type InputDispatcher interface {
	DispatchKey(key string) error
	Click(el *Element) error
}
