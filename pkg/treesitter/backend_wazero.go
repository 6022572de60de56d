package treesitter

import (
	"context"
	"fmt"
	"slices"
	"sync"

	sitter "github.com/malivvan/tree-sitter"
)

// wazeroBackend implements Backend with malivvan/tree-sitter, which runs
// tree-sitter compiled to WASM under wazero. It needs no CGO but only ships
// the C and C++ grammars, neither of which nests block comments.
type wazeroBackend struct {
	mu        sync.RWMutex
	ctx       context.Context
	ts        sitter.TreeSitter
	closed    bool
	languages map[Language]sitter.Language
}

// NewWazeroBackend creates a WASM/wazero-based backend.
func NewWazeroBackend() (Backend, error) {
	ctx := context.Background()
	ts, err := sitter.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tree-sitter wazero runtime: %w", err)
	}

	b := &wazeroBackend{
		ctx:       ctx,
		ts:        ts,
		languages: make(map[Language]sitter.Language),
	}

	if langC, err := ts.LanguageC(ctx); err == nil {
		b.languages[C] = langC
	}
	if langCpp, err := ts.LanguageCpp(ctx); err == nil {
		b.languages[Cpp] = langCpp
	}

	return b, nil
}

func (b *wazeroBackend) Name() string {
	return "wazero"
}

func (b *wazeroBackend) IsExperimental() bool {
	return true
}

func (b *wazeroBackend) SupportedLanguages() []Language {
	b.mu.RLock()
	defer b.mu.RUnlock()

	langs := make([]Language, 0, len(b.languages))
	for lang := range b.languages {
		langs = append(langs, lang)
	}
	slices.Sort(langs)
	return langs
}

func (b *wazeroBackend) SupportsLanguage(lang Language) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.languages[lang]
	return ok
}

func (b *wazeroBackend) NewParser(lang Language) (Parser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, ErrBackendClosed{Backend: b.Name()}
	}

	sitterLang, ok := b.languages[lang]
	if !ok {
		return nil, ErrLanguageNotSupported{Language: lang, Backend: b.Name()}
	}

	parser, err := b.ts.NewParser(b.ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create parser: %w", err)
	}

	if err := parser.SetLanguage(b.ctx, sitterLang); err != nil {
		_ = parser.Close(b.ctx)
		return nil, fmt.Errorf("failed to set language: %w", err)
	}

	return &wazeroParser{ctx: b.ctx, parser: parser}, nil
}

func (b *wazeroBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// wazeroParser holds a parser living inside the wasm module. Close frees it
// there, so parsers must be closed even though the backend's Close is a no-op.
type wazeroParser struct {
	mu     sync.RWMutex
	ctx    context.Context
	parser sitter.Parser
	closed bool
}

func (p *wazeroParser) Parse(ctx context.Context, source []byte) (Tree, error) {
	p.mu.RLock()
	closed := p.closed
	parser := p.parser
	p.mu.RUnlock()

	if closed {
		return nil, ErrParserClosed{}
	}

	tree, err := parser.ParseString(ctx, string(source))
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	return &wazeroTree{ctx: ctx, tree: tree, source: source}, nil
}

func (p *wazeroParser) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.parser.Close(p.ctx)
}

// wazeroTree keeps the source alongside the wasm tree handle.
type wazeroTree struct {
	ctx    context.Context
	tree   sitter.Tree
	source []byte
}

func (t *wazeroTree) RootNode() Node {
	node, err := t.tree.RootNode(t.ctx)
	if err != nil {
		return &wazeroNode{ctx: t.ctx, isNull: true}
	}
	return &wazeroNode{ctx: t.ctx, node: node}
}

func (t *wazeroTree) Source() []byte {
	return t.source
}

// HasError walks the tree; the wasm API has no direct query.
func (t *wazeroTree) HasError() bool {
	return HasErrors(t.RootNode())
}

func (t *wazeroTree) Close() error {
	return nil
}

// wazeroNode exposes byte offsets only; spans from this backend have zero
// points and are matched against the scanner by offset. Lookups that fail
// inside the runtime degrade to zero values.
type wazeroNode struct {
	ctx    context.Context
	node   sitter.Node
	isNull bool
}

func (n *wazeroNode) Type() string {
	if n.isNull {
		return ""
	}
	kind, err := n.node.Kind(n.ctx)
	if err != nil {
		return ""
	}
	return kind
}

func (n *wazeroNode) StartByte() uint32 {
	if n.isNull {
		return 0
	}
	start, err := n.node.StartByte(n.ctx)
	if err != nil {
		return 0
	}
	return uint32(start)
}

func (n *wazeroNode) EndByte() uint32 {
	if n.isNull {
		return 0
	}
	end, err := n.node.EndByte(n.ctx)
	if err != nil {
		return 0
	}
	return uint32(end)
}

// StartPoint is not exposed by the wasm API.
func (n *wazeroNode) StartPoint() Point {
	return Point{}
}

// EndPoint is not exposed by the wasm API.
func (n *wazeroNode) EndPoint() Point {
	return Point{}
}

func (n *wazeroNode) ChildCount() uint32 {
	if n.isNull {
		return 0
	}
	count, err := n.node.ChildCount(n.ctx)
	if err != nil {
		return 0
	}
	return uint32(count)
}

func (n *wazeroNode) Child(index uint32) Node {
	if n.isNull || index >= n.ChildCount() {
		return nil
	}
	child, err := n.node.Child(n.ctx, uint64(index))
	if err != nil {
		return nil
	}
	return &wazeroNode{ctx: n.ctx, node: child}
}

func (n *wazeroNode) IsError() bool {
	if n.isNull {
		return false
	}
	isErr, err := n.node.IsError(n.ctx)
	if err != nil {
		return false
	}
	return isErr
}

// IsMissing is not exposed by the wasm API.
func (n *wazeroNode) IsMissing() bool {
	return false
}

func (n *wazeroNode) IsNull() bool {
	return n.isNull
}

func (n *wazeroNode) String() string {
	if n.isNull {
		return "(null)"
	}
	str, err := n.node.String(n.ctx)
	if err != nil {
		return "(error)"
	}
	return str
}
