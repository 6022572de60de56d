// Package walk finds source files under a directory tree.
package walk

import (
	"context"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"github.com/albertocavalcante/nestscan/cmd/nestscan/internal/langs"
	"github.com/bmatcuk/doublestar/v4"
)

// Config configures a Walker.
type Config struct {
	Extensions []string // with leading dots; nil means every known extension
	IgnoreDirs []string // additional directory name prefixes to skip

	// Exclude holds doublestar patterns matched against slash-separated
	// paths relative to the walk root, e.g. "**/generated/**".
	Exclude []string
}

// Walker selects files by extension, ignored directory and exclude pattern.
type Walker struct {
	ignoreDirs []string
	extensions map[string]bool
	exclude    []string
}

// New creates a walker with the given config. Invalid exclude patterns
// never match.
func New(cfg Config) *Walker {
	extensions := make(map[string]bool)
	if len(cfg.Extensions) == 0 {
		extensions = langs.ExtensionSet(nil)
	}
	for _, ext := range cfg.Extensions {
		extensions[strings.ToLower(ext)] = true
	}

	ignoreDirs := make([]string, 0, len(langs.IgnoredDirs)+len(cfg.IgnoreDirs))
	ignoreDirs = append(ignoreDirs, langs.IgnoredDirs...)
	ignoreDirs = append(ignoreDirs, cfg.IgnoreDirs...)

	return &Walker{
		ignoreDirs: ignoreDirs,
		extensions: extensions,
		exclude:    cfg.Exclude,
	}
}

// Files returns every matching file under root in lexical order.
func (w *Walker) Files(ctx context.Context, root string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			return err
		}

		if d.IsDir() {
			if path != root && w.IgnoresDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if w.Matches(rel) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.Sort(files)
	return files, nil
}

// Matches reports whether rel, a path relative to the walk root, has a
// tracked extension and no exclude pattern matches it.
func (w *Walker) Matches(rel string) bool {
	if !w.extensions[strings.ToLower(filepath.Ext(rel))] {
		return false
	}
	slashed := filepath.ToSlash(rel)
	for _, pattern := range w.exclude {
		if ok, err := doublestar.Match(pattern, slashed); err == nil && ok {
			return false
		}
	}
	return true
}

// IgnoresDir reports whether a directory named name is skipped.
func (w *Walker) IgnoresDir(name string) bool {
	for _, prefix := range w.ignoreDirs {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// Extensions returns the tracked extensions, sorted.
func (w *Walker) Extensions() []string {
	exts := make([]string, 0, len(w.extensions))
	for ext := range w.extensions {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return exts
}
