package treesitter

import (
	"bytes"
	"slices"
)

// blockCommentTypes maps each grammar to the node types that can hold a
// "/* */" comment. Some grammars share one type between line and block
// comments; CommentSpans tells them apart by content.
var blockCommentTypes = map[Language][]string{
	Go:         {"comment"},
	Java:       {"block_comment"},
	Kotlin:     {"multiline_comment"},
	Scala:      {"block_comment", "comment"},
	Rust:       {"block_comment"},
	JavaScript: {"comment"},
	TypeScript: {"comment"},
	Groovy:     {"comment"},
	C:          {"comment"},
	Cpp:        {"comment"},
	CSharp:     {"comment"},
	Swift:      {"multiline_comment", "comment"},
	CSS:        {"comment"},
	Protobuf:   {"comment"},
}

// nestingLanguages are the grammars whose block comments nest.
var nestingLanguages = []Language{Rust, Scala, Swift, Kotlin}

// BlockCommentTypes returns the node types that carry block comments in lang.
func BlockCommentTypes(lang Language) []string {
	return blockCommentTypes[lang]
}

// NestsBlockComments reports whether lang allows "/* /* */ */".
func NestsBlockComments(lang Language) bool {
	return slices.Contains(nestingLanguages, lang)
}

// Span is the byte range of a node.
type Span struct {
	Start      uint32 `json:"start"`
	End        uint32 `json:"end"`
	StartPoint Point  `json:"start_point"`
	EndPoint   Point  `json:"end_point"`
}

// CommentSpans returns the outermost block comments in tree, in document
// order. Nodes inside a comment are not visited.
func CommentSpans(tree Tree, lang Language) []Span {
	types := BlockCommentTypes(lang)
	if len(types) == 0 {
		return nil
	}
	src := tree.Source()

	var spans []Span
	var collect func(n Node)
	collect = func(n Node) {
		if n == nil || n.IsNull() {
			return
		}
		if slices.Contains(types, n.Type()) && isBlockComment(src, n) {
			spans = append(spans, Span{
				Start:      n.StartByte(),
				End:        n.EndByte(),
				StartPoint: n.StartPoint(),
				EndPoint:   n.EndPoint(),
			})
			return
		}
		count := n.ChildCount()
		for i := uint32(0); i < count; i++ {
			collect(n.Child(i))
		}
	}
	collect(tree.RootNode())
	return spans
}

func isBlockComment(src []byte, n Node) bool {
	start, end := n.StartByte(), n.EndByte()
	if start > end || end > uint32(len(src)) {
		return false
	}
	return bytes.HasPrefix(src[start:end], []byte("/*"))
}
