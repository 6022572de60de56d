// Package langs maps file extensions to the source languages nestscan knows
// about and to the tree-sitter grammar used to cross-check each one.
//
// WGSL and WESL are the languages the scanner was written for. They have no
// bundled tree-sitter grammar, so GrammarFor reports false for them and the
// check command needs an explicit --language.
//
// Usage:
//
//	exts := langs.ExtensionSet([]string{"wgsl", "rust"})
//	if exts[filepath.Ext(file)] {
//	    // file is a WGSL or Rust source file
//	}
package langs

import (
	"path/filepath"
	"strings"

	"github.com/albertocavalcante/nestscan/pkg/treesitter"
)

// Extensions maps language names to their file extensions.
var Extensions = map[string][]string{
	"wgsl":       {".wgsl"},
	"wesl":       {".wesl"},
	"rust":       {".rs"},
	"scala":      {".scala", ".sc"},
	"swift":      {".swift"},
	"kotlin":     {".kt", ".kts"},
	"go":         {".go"},
	"java":       {".java"},
	"javascript": {".js", ".mjs", ".cjs"},
	"typescript": {".ts", ".mts", ".cts"},
	"groovy":     {".groovy", ".gvy", ".gy", ".gsh"},
	"c":          {".c", ".h"},
	"cpp":        {".cc", ".cpp", ".cxx", ".hpp", ".hxx"},
	"csharp":     {".cs"},
	"css":        {".css"},
	"protobuf":   {".proto"},
}

// IgnoredDirs contains directory prefixes to skip while walking or watching.
// Prefix matching means "." matches every hidden directory.
var IgnoredDirs = []string{
	".",            // Hidden directories, including .git and .nestscan
	"node_modules", // Node.js dependencies
	"vendor",       // Go vendor, other vendored deps
	"target",       // Rust/Maven target
	"build",        // Gradle/generic build output
	"out",          // Generic output
	"dist",         // Distribution output
}

// ExtensionSet returns a set of all extensions for the given languages.
// If languages is nil or empty, returns all known extensions.
func ExtensionSet(languages []string) map[string]bool {
	extensions := make(map[string]bool)

	if len(languages) == 0 {
		for _, exts := range Extensions {
			for _, ext := range exts {
				extensions[ext] = true
			}
		}
		return extensions
	}

	for _, lang := range languages {
		for _, ext := range Extensions[lang] {
			extensions[ext] = true
		}
	}
	return extensions
}

// LanguageFor returns the language name for path's extension.
func LanguageFor(path string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return "", false
	}
	for lang, exts := range Extensions {
		for _, e := range exts {
			if e == ext {
				return lang, true
			}
		}
	}
	return "", false
}

// GrammarFor returns the tree-sitter grammar for path, if one is bundled.
func GrammarFor(path string) (treesitter.Language, bool) {
	lang, ok := LanguageFor(path)
	if !ok {
		return "", false
	}
	return treesitter.ParseLanguage(lang)
}
