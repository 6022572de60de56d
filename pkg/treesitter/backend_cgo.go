//go:build cgo

package treesitter

import (
	"context"
	"fmt"
	"slices"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/csharp"
	"github.com/smacker/go-tree-sitter/css"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/groovy"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/kotlin"
	"github.com/smacker/go-tree-sitter/protobuf"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/scala"
	"github.com/smacker/go-tree-sitter/swift"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// cgoBackend loads the smacker grammars statically linked into the binary.
// It is the only backend with grammars that nest block comments, so
// crosschecks of nested input need it.
type cgoBackend struct {
	mu     sync.RWMutex
	closed bool
}

// NewCGOBackend returns the backend for every Language in AllLanguages.
func NewCGOBackend() (Backend, error) {
	return &cgoBackend{}, nil
}

func (b *cgoBackend) Name() string {
	return "cgo"
}

func (b *cgoBackend) IsExperimental() bool {
	return false
}

func (b *cgoBackend) SupportedLanguages() []Language {
	return AllLanguages()
}

func (b *cgoBackend) SupportsLanguage(lang Language) bool {
	return slices.Contains(b.SupportedLanguages(), lang)
}

func (b *cgoBackend) NewParser(lang Language) (Parser, error) {
	b.mu.RLock()
	closed := b.closed
	b.mu.RUnlock()

	if closed {
		return nil, ErrBackendClosed{Backend: b.Name()}
	}

	sitterLang, err := b.sitterLanguage(lang)
	if err != nil {
		return nil, err
	}

	parser := sitter.NewParser()
	parser.SetLanguage(sitterLang)

	return &cgoParser{parser: parser}, nil
}

func (b *cgoBackend) sitterLanguage(lang Language) (*sitter.Language, error) {
	switch lang {
	case Go:
		return golang.GetLanguage(), nil
	case Java:
		return java.GetLanguage(), nil
	case Kotlin:
		return kotlin.GetLanguage(), nil
	case Scala:
		return scala.GetLanguage(), nil
	case Rust:
		return rust.GetLanguage(), nil
	case JavaScript:
		return javascript.GetLanguage(), nil
	case TypeScript:
		return typescript.GetLanguage(), nil
	case Groovy:
		return groovy.GetLanguage(), nil
	case C:
		return c.GetLanguage(), nil
	case Cpp:
		return cpp.GetLanguage(), nil
	case CSharp:
		return csharp.GetLanguage(), nil
	case Swift:
		return swift.GetLanguage(), nil
	case CSS:
		return css.GetLanguage(), nil
	case Protobuf:
		return protobuf.GetLanguage(), nil
	default:
		return nil, ErrLanguageNotSupported{Language: lang, Backend: b.Name()}
	}
}

func (b *cgoBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// cgoParser owns one smacker parser with its grammar already set.
type cgoParser struct {
	mu     sync.RWMutex
	parser *sitter.Parser
	closed bool
}

func (p *cgoParser) Parse(ctx context.Context, source []byte) (Tree, error) {
	p.mu.RLock()
	closed := p.closed
	parser := p.parser
	p.mu.RUnlock()

	if closed {
		return nil, ErrParserClosed{}
	}

	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	return &cgoTree{tree: tree, source: source}, nil
}

func (p *cgoParser) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	p.parser.Close()
	return nil
}

// cgoTree keeps the parsed source so comment spans can be sliced from it.
type cgoTree struct {
	tree   *sitter.Tree
	source []byte
}

func (t *cgoTree) RootNode() Node {
	return &cgoNode{node: t.tree.RootNode()}
}

func (t *cgoTree) Source() []byte {
	return t.source
}

func (t *cgoTree) HasError() bool {
	root := t.tree.RootNode()
	if root == nil {
		return false
	}
	return root.HasError()
}

func (t *cgoTree) Close() error {
	t.tree.Close()
	return nil
}

// cgoNode wraps a smacker node. Points come straight from the grammar, so
// comment spans from this backend carry rows and columns. A nil node reads
// as null.
type cgoNode struct {
	node *sitter.Node
}

func (n *cgoNode) Type() string {
	if n.node == nil {
		return ""
	}
	return n.node.Type()
}

func (n *cgoNode) StartByte() uint32 {
	if n.node == nil {
		return 0
	}
	return n.node.StartByte()
}

func (n *cgoNode) EndByte() uint32 {
	if n.node == nil {
		return 0
	}
	return n.node.EndByte()
}

func (n *cgoNode) StartPoint() Point {
	if n.node == nil {
		return Point{}
	}
	p := n.node.StartPoint()
	return Point{Row: p.Row, Column: p.Column}
}

func (n *cgoNode) EndPoint() Point {
	if n.node == nil {
		return Point{}
	}
	p := n.node.EndPoint()
	return Point{Row: p.Row, Column: p.Column}
}

func (n *cgoNode) ChildCount() uint32 {
	if n.node == nil {
		return 0
	}
	return n.node.ChildCount()
}

func (n *cgoNode) Child(index uint32) Node {
	if n.node == nil {
		return nil
	}
	child := n.node.Child(int(index))
	if child == nil {
		return nil
	}
	return &cgoNode{node: child}
}

func (n *cgoNode) IsError() bool {
	return n.node != nil && n.node.IsError()
}

func (n *cgoNode) IsMissing() bool {
	return n.node != nil && n.node.IsMissing()
}

func (n *cgoNode) IsNull() bool {
	return n.node == nil || n.node.IsNull()
}

func (n *cgoNode) String() string {
	if n.node == nil {
		return "(null)"
	}
	return n.node.String()
}
