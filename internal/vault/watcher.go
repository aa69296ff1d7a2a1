// Package vault turns file-system activity below a vault directory into
// host file-modified notifications.
package vault

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/hupe1980/slidesync/internal/host"
)

// Vault watches a directory tree and emits a notification for every
// relevant write. It implements host.Vault.
type Vault struct {
	root   string
	logger *slog.Logger
	modify host.Emitter[host.File]
	ready  chan struct{}
	once   sync.Once
}

// New returns a vault rooted at root. Run starts watching.
func New(root string, logger *slog.Logger) (*Vault, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving vault root %q: %w", root, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("opening vault: %w", err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("opening vault: %s is not a directory", abs)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Vault{
		root:   abs,
		logger: logger,
		ready:  make(chan struct{}),
	}, nil
}

// Root returns the absolute vault directory.
func (v *Vault) Root() string { return v.root }

// OnModify implements host.Vault.
func (v *Vault) OnModify(fn func(host.File)) host.EventRef {
	return v.modify.On(fn)
}

// Ready is closed once the first Run has registered its watches.
func (v *Vault) Ready() <-chan struct{} { return v.ready }

// File converts an absolute path below the root into a vault file.
func (v *Vault) File(abs string) (host.File, error) {
	rel, err := filepath.Rel(v.root, abs)
	if err != nil {
		return host.File{}, fmt.Errorf("resolving %q: %w", abs, err)
	}

	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return host.File{}, fmt.Errorf("%q is outside the vault", abs)
	}

	return host.NewFile(filepath.ToSlash(rel)), nil
}

// Path converts a vault file back into an absolute path.
func (v *Vault) Path(f host.File) string {
	return filepath.Join(v.root, filepath.FromSlash(f.Path))
}

// Run watches the vault until ctx is cancelled.
func (v *Vault) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	// Walk the vault and add all subdirectories.
	if err := addRecursive(watcher, v.root); err != nil {
		return fmt.Errorf("watching vault directory: %w", err)
	}

	v.once.Do(func() { close(v.ready) })
	v.logger.Debug("watching vault", slog.String("root", v.root))

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if !isRelevant(event) {
				continue
			}

			if event.Has(fsnotify.Create) {
				if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
					_ = addRecursive(watcher, event.Name)
					continue
				}
			}

			f, relErr := v.File(event.Name)
			if relErr != nil {
				continue
			}

			v.modify.Emit(f)

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			v.logger.Error("watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

// addRecursive walks root and adds all directories to the watcher.
func addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			// Skip hidden directories (e.g., .git, .slidesync).
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}

			return watcher.Add(path)
		}

		return nil
	})
}

// isRelevant keeps writes and creations of visible files. Editors that
// save atomically surface as a create of the final name.
func isRelevant(event fsnotify.Event) bool {
	if event.Op == 0 {
		return false
	}

	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return false
	}

	name := filepath.Base(event.Name)

	// Ignore editor temporary files and hidden files.
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~") ||
		strings.HasSuffix(name, ".swp") || strings.HasPrefix(name, "#") {
		return false
	}

	return true
}
