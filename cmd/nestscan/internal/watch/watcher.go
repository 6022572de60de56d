package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/albertocavalcante/nestscan/cmd/nestscan/internal/digest"
	"github.com/albertocavalcante/nestscan/cmd/nestscan/internal/walk"
	"github.com/albertocavalcante/nestscan/internal/log"
	"github.com/albertocavalcante/nestscan/pkg/comments"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is used when Config.Debounce is not positive.
const DefaultDebounce = 300 * time.Millisecond

// Config configures the watcher.
type Config struct {
	Root       string
	Extensions []string // with leading dots; nil means every known extension
	Exclude    []string // doublestar patterns relative to Root
	Debounce   time.Duration
	Options    comments.Options
	Verbose    bool
	NoColor    bool
	JSON       bool
	Writer     io.Writer // event output, defaults to stdout
}

// Watcher watches a directory tree and rescans changed files.
type Watcher struct {
	config     Config
	fsWatcher  *fsnotify.Watcher
	debouncer  *Debouncer
	logger     *Logger
	filter     *walk.Walker

	// scanMu serializes rescans and guards digests.
	scanMu  sync.Mutex
	digests map[string]string
}

// New creates a new watcher with the given configuration.
func New(cfg Config) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	logger := NewLogger(LoggerConfig{
		Writer:  cfg.Writer,
		Verbose: cfg.Verbose,
		NoColor: cfg.NoColor,
		JSON:    cfg.JSON,
	})

	return &Watcher{
		config:     cfg,
		fsWatcher:  fsWatcher,
		logger:     logger,
		filter:     walk.New(walk.Config{Extensions: cfg.Extensions, Exclude: cfg.Exclude}),
		digests:    make(map[string]string),
	}, nil
}

// Run starts the watch loop. It blocks until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	window := w.config.Debounce
	if window <= 0 {
		window = DefaultDebounce
	}
	w.debouncer = NewDebouncer(window, w.Rescan)

	fileCount, err := w.addRecursive(w.config.Root, w.remember)
	if err != nil {
		w.debouncer.Stop()
		return fmt.Errorf("failed to watch %s: %w", w.config.Root, err)
	}
	w.logger.Ready(fileCount, w.filter.Extensions(), w.config.Root)

	for {
		select {
		case <-ctx.Done():
			w.debouncer.Stop()
			w.logger.Shutdown()
			return nil

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				w.debouncer.Stop()
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				w.debouncer.Stop()
				return nil
			}
			w.logger.Error(err)
		}
	}
}

// addRecursive adds root and every non-ignored subdirectory to the watcher
// and calls onFile for each matching file. It returns the number of
// matching files found.
func (w *Watcher) addRecursive(root string, onFile func(path string)) (int, error) {
	files := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsPermission(err) {
				if w.config.Verbose {
					w.logger.Error(fmt.Errorf("permission denied: %s", path))
				}
				return nil
			}
			w.logger.Error(fmt.Errorf("walk error at %s: %w", path, err))
			return nil
		}

		if !d.IsDir() {
			if w.matches(path) {
				files++
				onFile(path)
			}
			return nil
		}

		if path != root && w.filter.IgnoresDir(d.Name()) {
			return filepath.SkipDir
		}

		if err := w.fsWatcher.Add(path); err != nil {
			if isWatchLimitError(err) {
				return fmt.Errorf("%w for %s: %v\n"+
					"Increase limit with: sudo sysctl fs.inotify.max_user_watches=524288", ErrWatchLimitReached, path, err)
			}
			if w.config.Verbose {
				w.logger.Error(fmt.Errorf("failed to watch %s: %w", path, err))
			}
		}
		return nil
	})
	return files, err
}

// remember records path's digest without scanning it.
func (w *Watcher) remember(path string) {
	sum, err := digest.File(path)
	if err != nil {
		return
	}
	w.scanMu.Lock()
	w.digests[path] = sum
	w.scanMu.Unlock()
}

func (w *Watcher) matches(path string) bool {
	return w.filter.Matches(w.display(path))
}

// isWatchLimitError checks if an error is due to inotify watch limits.
func isWatchLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "no space left on device") ||
		strings.Contains(errStr, "too many open files")
}

// handleEvent processes a single filesystem event.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if w.filter.IgnoresDir(filepath.Base(path)) {
				return
			}
			// Files already inside a new directory get no events of
			// their own, so queue them directly.
			if _, err := w.addRecursive(path, w.debouncer.Add); err != nil {
				w.logger.Error(fmt.Errorf("failed to watch new directory %s: %w", path, err))
			}
			return
		}
	}

	if !w.matches(path) {
		return
	}

	var change ChangeType
	switch {
	case event.Has(fsnotify.Create):
		change = ChangeAdded
	case event.Has(fsnotify.Write):
		change = ChangeModified
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		change = ChangeDeleted
	default:
		return // chmod
	}

	w.logger.FileChanged(w.display(path), change)
	w.debouncer.Add(path)
}

// Rescan scans each path whose content changed since it was last seen.
// Removed files are forgotten. It is the debouncer's flush callback.
func (w *Watcher) Rescan(paths []string) {
	w.scanMu.Lock()
	defer w.scanMu.Unlock()

	for _, path := range paths {
		src, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				delete(w.digests, path)
				continue
			}
			w.logger.Error(fmt.Errorf("reading %s: %w", w.display(path), err))
			continue
		}

		sum := digest.Bytes(src)
		if prev, ok := w.digests[path]; ok && prev == sum {
			w.logger.Unchanged(w.display(path))
			continue
		}
		w.digests[path] = sum

		w.scan(path, src)
	}
}

func (w *Watcher) scan(path string, src []byte) {
	found, err := comments.Extract(src, w.config.Options)

	var unterminated *comments.UnterminatedError
	if errors.As(err, &unterminated) {
		log.Debug("unterminated comment", "path", path, "offset", unterminated.Offset)
		w.logger.Unterminated(w.display(path),
			int(unterminated.Point.Row)+1, int(unterminated.Point.Column)+1, unterminated.Depth)
		return
	}
	if err != nil {
		w.logger.Error(fmt.Errorf("scanning %s: %w", w.display(path), err))
		return
	}

	maxDepth := 0
	for _, c := range found {
		maxDepth = max(maxDepth, c.Depth)
	}
	log.Debug("scanned", "path", path, "comments", len(found), "max_depth", maxDepth)
	if log.Enabled(log.LevelTrace) {
		for _, c := range found {
			log.Trace("comment", "path", path,
				"row", c.StartPoint.Row+1, "column", c.StartPoint.Column+1, "depth", c.Depth)
		}
	}
	w.logger.Scanned(w.display(path), len(found), maxDepth)
}

// display returns path relative to the watch root when possible.
func (w *Watcher) display(path string) string {
	if rel, err := filepath.Rel(w.config.Root, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}

// Close closes the watcher and releases resources.
func (w *Watcher) Close() error {
	if w.fsWatcher != nil {
		return w.fsWatcher.Close()
	}
	return nil
}

// ErrWatchLimitReached is returned when the OS watch limit is exceeded.
var ErrWatchLimitReached = errors.New("filesystem watch limit reached")
