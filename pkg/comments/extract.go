// Package comments finds and strips nested block comments in whole source
// files by driving the external scanner over every position where a comment
// can start.
//
// The driver is lexical only. It knows about line comments, because "//"
// hides a "/*" for the rest of the line, but not about string literals, so
// a "/*" inside a string is reported as a comment.
package comments

import (
	"fmt"

	"github.com/albertocavalcante/nestscan/pkg/scanner"
)

// Options configures the driver.
type Options struct {
	// SkipLineComments makes "//" hide openers up to the next line break.
	SkipLineComments bool

	// Guarded routes scans through scanner.ScanRequested.
	Guarded bool
}

// DefaultOptions returns the options used by the CLI when nothing is configured.
func DefaultOptions() Options {
	return Options{SkipLineComments: true}
}

// Comment is one complete top-level block comment.
type Comment struct {
	Start      int           `json:"start"`
	End        int           `json:"end"`
	StartPoint scanner.Point `json:"start_point"`
	EndPoint   scanner.Point `json:"end_point"`

	// Depth is the deepest nesting level reached inside the comment. A
	// comment without nested comments has depth 1.
	Depth int `json:"depth"`

	Text string `json:"text"`
}

// UnterminatedError reports a block comment still open at end of input.
type UnterminatedError struct {
	// Offset and Point locate the opening "/*".
	Offset int
	Point  scanner.Point

	// Depth is how many comments were still open.
	Depth int
}

func (e *UnterminatedError) Error() string {
	return fmt.Sprintf("unterminated block comment at %d:%d", e.Point.Row+1, e.Point.Column+1)
}

// Extract returns every top-level block comment in src, in order.
//
// If a comment is never closed, Extract returns the comments before it and
// an *UnterminatedError.
func Extract(src []byte, opts Options) ([]Comment, error) {
	var found []Comment
	err := walk(src, opts, func(c Comment) {
		found = append(found, c)
	})
	return found, err
}

// walk calls fn for every top-level block comment in src.
func walk(src []byte, opts Options, fn func(Comment)) error {
	ext := scanner.NestedComment{Guarded: opts.Guarded}
	valid := scanner.ValidSymbols(scanner.BlockComment)
	lx := scanner.NewSourceLexer(src)

	for !lx.AtEOF() {
		lx.Begin()

		switch {
		case opts.SkipLineComments && lx.HasPrefix("//"):
			skipLine(lx)
			continue
		case !lx.HasPrefix("/*"):
			lx.Advance(true)
			continue
		}

		matched := ext.Scan(nil, lx, valid)
		tok := lx.Token()
		if matched && tok.Symbol == scanner.BlockComment {
			text := string(src[tok.Start:tok.End])
			fn(Comment{
				Start:      tok.Start,
				End:        tok.End,
				StartPoint: tok.StartPoint,
				EndPoint:   tok.EndPoint,
				Depth:      MaxDepth(text),
				Text:       text,
			})
			continue
		}

		if tok.Len() >= 2 {
			// The opener was committed, so the scan ran into the end of
			// input (or a NUL) before closing every level.
			return &UnterminatedError{
				Offset: tok.Start,
				Point:  tok.StartPoint,
				Depth:  openDepth(string(src[tok.Start:tok.End])),
			}
		}
		if tok.Len() == 0 {
			lx.Advance(true)
		}
	}
	return nil
}

// skipLine consumes a line comment up to, not including, the line break.
func skipLine(lx *scanner.SourceLexer) {
	for !lx.AtEOF() && !isLineBreak(lx.Lookahead()) {
		lx.Advance(true)
	}
}

// isLineBreak reports whether r ends a WGSL line-ending comment.
func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\v', '\f', '\r', '\u0085', '\u2028', '\u2029':
		return true
	}
	return false
}

// MaxDepth returns the deepest nesting level reached in text, which should
// start with a block comment opener. It returns 0 if text does not start
// with "/*".
func MaxDepth(text string) int {
	deepest, _ := depths(text)
	return deepest
}

// openDepth returns the number of comments left open at the end of text.
func openDepth(text string) int {
	_, open := depths(text)
	return open
}

// depths follows the scanner's rules over text and returns the deepest
// level reached and the level left open at the end.
func depths(text string) (deepest, open int) {
	if len(text) < 2 || text[0] != '/' || text[1] != '*' {
		return 0, 0
	}
	open, deepest = 1, 1
	afterStar := false
	for i := 2; i < len(text); i++ {
		switch text[i] {
		case '*':
			afterStar = true
		case '/':
			if afterStar {
				afterStar = false
				open--
				if open == 0 {
					return deepest, 0
				}
				continue
			}
			if i+1 < len(text) && text[i+1] == '*' {
				i++
				open++
				deepest = max(deepest, open)
			}
		default:
			afterStar = false
		}
	}
	return deepest, open
}
