// Package treesitter provides reference parsers for languages with block
// comments, behind a pluggable backend. It supports both the CGO-based
// smacker/go-tree-sitter bindings and the WASM/wazero-based
// malivvan/tree-sitter runtime.
//
// nestscan uses these grammars as an independent oracle: a tree-sitter
// grammar that nests block comments (Rust, Scala, Swift, Kotlin) must agree
// with the nested comment scanner on every comment span.
//
// # Quick Start
//
//	backend, err := treesitter.NewBackendFromEnv()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
//	parser, err := backend.NewParser(treesitter.Rust)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer parser.Close()
//
//	tree, err := parser.Parse(ctx, []byte("/* a /* b */ */ fn main() {}"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tree.Close()
//
//	spans := treesitter.CommentSpans(tree, treesitter.Rust)
//
// # Backend Selection
//
//	export NESTSCAN_TREESITTER_BACKEND=cgo    # CGO backend (default when available)
//	export NESTSCAN_TREESITTER_BACKEND=wazero # WASM/wazero backend, C and C++ only
//	export NESTSCAN_TREESITTER_BACKEND=auto   # CGO first, then wazero
//
// # Thread Safety
//
// Backends are safe for concurrent use. Parsers are not; create one parser
// per goroutine from the same backend.
package treesitter

import "context"

// Language is a grammar that can be parsed.
type Language string

const (
	Go         Language = "go"
	Java       Language = "java"
	Kotlin     Language = "kotlin"
	Scala      Language = "scala"
	Rust       Language = "rust"
	JavaScript Language = "javascript"
	TypeScript Language = "typescript"
	Groovy     Language = "groovy"
	C          Language = "c"
	Cpp        Language = "cpp"
	CSharp     Language = "csharp"
	Swift      Language = "swift"
	CSS        Language = "css"
	Protobuf   Language = "protobuf"
)

// AllLanguages returns every grammar known to this package.
func AllLanguages() []Language {
	return []Language{
		Go, Java, Kotlin, Scala, Rust, JavaScript, TypeScript,
		Groovy, C, Cpp, CSharp, Swift, CSS, Protobuf,
	}
}

// ParseLanguage returns the Language named s, if known.
func ParseLanguage(s string) (Language, bool) {
	for _, lang := range AllLanguages() {
		if string(lang) == s {
			return lang, true
		}
	}
	return "", false
}

// Backend abstracts the tree-sitter implementation.
type Backend interface {
	// Name returns the backend identifier ("cgo" or "wazero").
	Name() string

	// IsExperimental reports whether the backend is not production-ready.
	IsExperimental() bool

	// SupportedLanguages returns the grammars this backend can load.
	SupportedLanguages() []Language

	// SupportsLanguage checks whether the backend can parse lang.
	SupportsLanguage(lang Language) bool

	// NewParser creates a parser for lang.
	NewParser(lang Language) (Parser, error)

	// Close releases backend resources.
	Close() error
}

// Parser turns one grammar's source into a tree whose comment nodes
// CommentSpans can collect.
type Parser interface {
	Parse(ctx context.Context, source []byte) (Tree, error)
	Close() error
}

// Tree is a parsed syntax tree.
type Tree interface {
	RootNode() Node
	Source() []byte

	// HasError reports whether the tree contains syntax errors.
	HasError() bool

	Close() error
}

// Node is a node in the syntax tree.
type Node interface {
	// Type returns the grammar type of this node (e.g. "block_comment").
	Type() string

	StartByte() uint32
	EndByte() uint32
	StartPoint() Point
	EndPoint() Point

	ChildCount() uint32

	// Child returns the child at index, or nil if out of bounds.
	Child(index uint32) Node

	IsError() bool
	IsMissing() bool
	IsNull() bool

	// String returns the S-expression of the subtree, logged when a
	// parse error keeps a file out of the comparison.
	String() string
}

// Point is a 0-indexed (row, column) position.
type Point struct {
	Row    uint32 `json:"row"`
	Column uint32 `json:"column"`
}

// ErrLanguageNotSupported is returned when a backend cannot load a grammar.
type ErrLanguageNotSupported struct {
	Language Language
	Backend  string
}

func (e ErrLanguageNotSupported) Error() string {
	return "language " + string(e.Language) + " is not supported by backend " + e.Backend
}

// ErrBackendClosed is returned when a backend is used after Close.
type ErrBackendClosed struct {
	Backend string
}

func (e ErrBackendClosed) Error() string {
	return "backend " + e.Backend + " has been closed"
}

// ErrParserClosed is returned when a parser is used after Close.
type ErrParserClosed struct{}

func (e ErrParserClosed) Error() string {
	return "parser has been closed"
}

// Walk traverses the tree depth-first. The visitor returns false to stop.
// Walk returns true if the whole tree was visited.
func Walk(n Node, visitor func(Node) bool) bool {
	if n == nil || n.IsNull() {
		return true
	}
	if !visitor(n) {
		return false
	}
	count := n.ChildCount()
	for i := uint32(0); i < count; i++ {
		if child := n.Child(i); child != nil {
			if !Walk(child, visitor) {
				return false
			}
		}
	}
	return true
}

// HasErrors walks the tree looking for error or missing nodes.
// Prefer Tree.HasError when the backend provides it.
func HasErrors(n Node) bool {
	if n == nil || n.IsNull() {
		return false
	}
	found := false
	Walk(n, func(node Node) bool {
		if node.IsError() || node.IsMissing() {
			found = true
			return false
		}
		return true
	})
	return found
}
