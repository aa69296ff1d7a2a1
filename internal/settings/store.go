package settings

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// DefaultFileName is the name of the settings blob inside the data dir.
const DefaultFileName = "data.json"

// DefaultDir is the vault-relative directory holding plugin data.
const DefaultDir = ".slidesync"

// DefaultPath returns the settings path for a vault root.
func DefaultPath(vaultRoot string) string {
	return filepath.Join(vaultRoot, DefaultDir, DefaultFileName)
}

// Store loads and saves settings from a single file.
type Store struct {
	path   string
	logger *slog.Logger
}

// NewStore returns a store backed by path.
func NewStore(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{path: path, logger: logger}
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

// Load reads the blob and merges it over Default. A missing file is not an
// error.
func (s *Store) Load() (Settings, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}

		return Settings{}, fmt.Errorf("reading settings %q: %w", s.path, err)
	}

	st, err := Decode(data)
	if err != nil {
		return Settings{}, fmt.Errorf("loading settings %q: %w", s.path, err)
	}

	return st, nil
}

// Raw returns the bytes currently on disk, or nil when the file is absent.
func (s *Store) Raw() ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	return data, err
}

// Save validates st and writes it verbatim, replacing the file atomically.
func (s *Store) Save(st Settings) error {
	if err := st.Validate(); err != nil {
		return err
	}

	data, err := Encode(st)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating settings directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".settings-*")
	if err != nil {
		return fmt.Errorf("creating temp settings file: %w", err)
	}

	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing settings: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replacing settings %q: %w", s.path, err)
	}

	return nil
}

// Watch calls fn with the reloaded settings each time the file changes on
// disk. Malformed edits are logged and skipped. Watch blocks until ctx is
// done.
func (s *Store) Watch(ctx context.Context, fn func(Settings)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating settings watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating settings directory: %w", err)
	}

	// Watch the directory: atomic saves replace the file, which drops a
	// watch placed on the file itself.
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching settings directory %q: %w", dir, err)
	}

	target := filepath.Clean(s.path)

	// Until the file has been read once, every valid load is reported.
	last, err := s.Load()
	known := err == nil

	if err != nil {
		s.logger.Warn("settings file unreadable, waiting for a valid edit", slog.String("error", err.Error()))
		last = Default()
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if filepath.Clean(event.Name) != target {
				continue
			}

			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}

			next, loadErr := s.Load()
			if loadErr != nil {
				s.logger.Warn("ignoring settings change", slog.String("error", loadErr.Error()))
				continue
			}

			if known && next == last {
				continue
			}

			last, known = next, true
			s.logger.Info("settings changed",
				slog.Bool("enabled", next.Enabled),
				slog.Int("debounceDelay", next.DebounceDelay),
			)
			fn(next)

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			s.logger.Error("settings watcher error", slog.String("error", watchErr.Error()))
		}
	}
}
