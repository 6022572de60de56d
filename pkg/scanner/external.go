package scanner

import "unicode"

// ExternalScanner is the calling convention an embedding parser runtime
// uses for external scanners: a payload is created once per parser, saved
// and restored around incremental re-parses, and handed back to every Scan.
type ExternalScanner interface {
	Create() any
	Destroy(payload any)
	Serialize(payload any, buf []byte) int
	Deserialize(payload any, buf []byte)
	Scan(payload any, lexer Lexer, validSymbols []bool) bool
}

// NestedComment is the ExternalScanner for nested block comments.
//
// The zero value matches unconditionally, like Scan. Setting Guarded makes
// it decline when the parser does not accept BlockComment at the current
// position, like ScanRequested.
type NestedComment struct {
	Guarded bool
}

var _ ExternalScanner = NestedComment{}

// Create returns a nil payload; there is no state to allocate.
func (NestedComment) Create() any { return nil }

// Destroy does nothing.
func (NestedComment) Destroy(any) {}

// Serialize writes nothing and returns 0.
func (NestedComment) Serialize(any, []byte) int { return 0 }

// Deserialize ignores buf, which may be nil or empty.
func (NestedComment) Deserialize(any, []byte) {}

// Scan runs one scan. The payload is ignored.
func (n NestedComment) Scan(_ any, lexer Lexer, validSymbols []bool) bool {
	if n.Guarded {
		return ScanRequested(lexer, validSymbols)
	}
	return Scan(lexer, validSymbols)
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r)
}
