// Package scanner implements an external tree-sitter style scanner for
// nestable block comments.
//
// Block comments open with "/*", close with "*/" and may contain further
// block comments of the same kind:
//
//	/* outer /* inner */ still outer */
//
// A regular grammar cannot count, so the embedding parser hands control to
// Scan whenever a block comment may start. Scan reads from a Lexer, consumes
// the whole comment on success and reports BlockComment as the matched
// symbol.
//
// # Usage
//
//	lx := scanner.NewSourceLexer([]byte("  /* a /* b */ c */ rest"))
//	if scanner.Scan(lx, nil) {
//	    tok := lx.Token()
//	    fmt.Println(tok.Start, tok.End) // Output: 2 19
//	}
//
// # State
//
// The scanner keeps no state between calls. The nesting depth and the
// after-star flag live on the stack of a single Scan call, so the lifecycle
// hooks of ExternalScanner (create, destroy, serialize, deserialize) have
// nothing to do. Nesting is tracked with a counter rather than recursion, so
// arbitrarily deep comments use constant extra space.
//
// # Thread Safety
//
// Scan is safe to call from multiple goroutines as long as every call is
// given its own Lexer.
package scanner

// EOF is the lookahead value a Lexer reports once the input is exhausted.
const EOF rune = 0

// Symbol identifies an external token kind produced by the scanner.
// Its value is the index of the token in the valid symbols slice.
type Symbol uint16

const (
	// BlockComment is a complete, possibly nested, block comment.
	BlockComment Symbol = iota

	symbolCount
)

// String returns the grammar name of the symbol.
func (s Symbol) String() string {
	switch s {
	case BlockComment:
		return "block_comment"
	default:
		return "unknown"
	}
}

// Lexer is the cursor the scanner reads from. It is owned by the caller for
// the duration of a Scan call.
type Lexer interface {
	// Lookahead returns the next unconsumed rune, or EOF.
	Lookahead() rune

	// Advance consumes the lookahead rune. When skip is true the rune is
	// treated as insignificant whitespace and excluded from the token.
	Advance(skip bool)

	// SetResultSymbol records the token kind matched by a successful scan.
	SetResultSymbol(sym Symbol)
}

// ValidSymbols returns a valid symbols slice with only the given symbols set.
func ValidSymbols(syms ...Symbol) []bool {
	valid := make([]bool, symbolCount)
	for _, s := range syms {
		if s < symbolCount {
			valid[s] = true
		}
	}
	return valid
}

// Scan tries to match a nested block comment at the lexer's position.
//
// Leading whitespace is skipped first. If the input does not start with
// "/*", or a comment is still open at EOF, Scan returns false. Consumed
// runes are never given back: on failure the lexer stays wherever the scan
// stopped. validSymbols is not consulted; use ScanRequested to honor it.
func Scan(lexer Lexer, validSymbols []bool) bool {
	for isSpace(lexer.Lookahead()) {
		lexer.Advance(true)
	}

	if lexer.Lookahead() != '/' {
		return false
	}
	lexer.Advance(false)
	if lexer.Lookahead() != '*' {
		return false
	}
	lexer.Advance(false)

	afterStar := false
	depth := uint(1)
	for {
		switch lexer.Lookahead() {
		case EOF:
			// Still inside a comment. Block comments must be closed.
			return false
		case '*':
			lexer.Advance(false)
			afterStar = true
		case '/':
			lexer.Advance(false)
			if afterStar {
				afterStar = false
				depth--
				if depth == 0 {
					lexer.SetResultSymbol(BlockComment)
					return true
				}
				continue
			}
			afterStar = false
			if lexer.Lookahead() == '*' {
				lexer.Advance(false)
				depth++
			}
		default:
			lexer.Advance(false)
			afterStar = false
		}
	}
}

// ScanRequested is Scan with an early exit: it returns false without
// touching the lexer unless validSymbols requests BlockComment. A nil
// validSymbols requests every symbol.
func ScanRequested(lexer Lexer, validSymbols []bool) bool {
	if !requested(validSymbols, BlockComment) {
		return false
	}
	return Scan(lexer, validSymbols)
}

func requested(validSymbols []bool, sym Symbol) bool {
	if validSymbols == nil {
		return true
	}
	return int(sym) < len(validSymbols) && validSymbols[sym]
}
