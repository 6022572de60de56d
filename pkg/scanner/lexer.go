package scanner

import (
	"bytes"
	"unicode/utf8"
)

// Point is a (row, column) position in the source. Both are 0-indexed and
// the column counts bytes, matching tree-sitter points. Rows advance only
// on '\n', also like tree-sitter: CRLF files count rows correctly, but a
// file using bare CR line endings reports every position on row 0.
type Point struct {
	Row    uint32 `json:"row"`
	Column uint32 `json:"column"`
}

// Token describes the span the last scan covered. Start is the first
// significant byte (after skipped whitespace) and End is one past the last
// consumed byte.
type Token struct {
	Symbol     Symbol
	Matched    bool
	Start      int
	End        int
	StartPoint Point
	EndPoint   Point
}

// Len returns the number of bytes in the token.
func (t Token) Len() int {
	return t.End - t.Start
}

// SourceLexer is a Lexer over an in-memory UTF-8 source.
//
// Invalid UTF-8 bytes are reported one at a time as utf8.RuneError. A NUL
// byte reads as EOF, exactly like the tree-sitter lexer, even though more
// input follows; use AtEOF to tell the two apart.
//
// A SourceLexer is not safe for concurrent use.
type SourceLexer struct {
	src []byte

	offset int
	point  Point

	start      int
	startPoint Point

	symbol  Symbol
	matched bool
}

var _ Lexer = (*SourceLexer)(nil)

// NewSourceLexer returns a lexer positioned at the start of src.
func NewSourceLexer(src []byte) *SourceLexer {
	return &SourceLexer{src: src}
}

// NewSourceLexerAt returns a lexer positioned at the given byte offset.
// Offsets past the end are clamped to len(src).
func NewSourceLexerAt(src []byte, offset int) *SourceLexer {
	l := &SourceLexer{src: src}
	l.Reset(offset)
	return l
}

// Lookahead returns the next rune without consuming it.
func (l *SourceLexer) Lookahead() rune {
	if l.offset >= len(l.src) {
		return EOF
	}
	r := rune(l.src[l.offset])
	if r >= utf8.RuneSelf {
		r, _ = utf8.DecodeRune(l.src[l.offset:])
	}
	return r
}

// Advance consumes one rune. It does nothing at the end of input.
func (l *SourceLexer) Advance(skip bool) {
	if l.offset >= len(l.src) {
		return
	}
	size := 1
	if l.src[l.offset] >= utf8.RuneSelf {
		_, size = utf8.DecodeRune(l.src[l.offset:])
	}
	if l.src[l.offset] == '\n' {
		l.point.Row++
		l.point.Column = 0
	} else {
		l.point.Column += uint32(size)
	}
	l.offset += size
	if skip {
		l.start = l.offset
		l.startPoint = l.point
	}
}

// SetResultSymbol records the matched token kind.
func (l *SourceLexer) SetResultSymbol(sym Symbol) {
	l.symbol = sym
	l.matched = true
}

// Begin starts a new token at the current position and clears any
// previous result.
func (l *SourceLexer) Begin() {
	l.start = l.offset
	l.startPoint = l.point
	l.symbol = 0
	l.matched = false
}

// Token reports the span consumed since the last Begin, minus skipped
// whitespace.
func (l *SourceLexer) Token() Token {
	return Token{
		Symbol:     l.symbol,
		Matched:    l.matched,
		Start:      l.start,
		End:        l.offset,
		StartPoint: l.startPoint,
		EndPoint:   l.point,
	}
}

// Offset returns the byte offset of the lookahead rune.
func (l *SourceLexer) Offset() int {
	return l.offset
}

// Point returns the position of the lookahead rune.
func (l *SourceLexer) Point() Point {
	return l.point
}

// AtEOF reports whether all input has been consumed.
func (l *SourceLexer) AtEOF() bool {
	return l.offset >= len(l.src)
}

// HasPrefix reports whether the unconsumed input starts with prefix.
func (l *SourceLexer) HasPrefix(prefix string) bool {
	return bytes.HasPrefix(l.src[l.offset:], []byte(prefix))
}

// Source returns the underlying source.
func (l *SourceLexer) Source() []byte {
	return l.src
}

// Reset moves the lexer to offset and begins a new token there. The point
// is recomputed from the start of the source.
func (l *SourceLexer) Reset(offset int) {
	offset = max(0, min(offset, len(l.src)))
	var p Point
	for _, b := range l.src[:offset] {
		if b == '\n' {
			p.Row++
			p.Column = 0
		} else {
			p.Column++
		}
	}
	l.offset = offset
	l.point = p
	l.Begin()
}
