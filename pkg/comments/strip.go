package comments

import (
	"errors"
	"unicode/utf8"
)

// Strip returns a copy of src with every block comment replaced by spaces.
//
// Line breaks inside comments (every rune that ends a line comment,
// including NEL, LS and PS) are kept and every other byte becomes a space,
// so the result has the same length and each remaining byte keeps
// its offset and line. Unlike a line-by-line stripper this handles nested
// comments spanning any number of lines.
//
// If a comment is never closed, everything from its opener to the end of
// input is blanked and the *UnterminatedError is returned with the result.
func Strip(src []byte, opts Options) ([]byte, error) {
	out := make([]byte, len(src))
	copy(out, src)

	err := walk(src, opts, func(c Comment) {
		blank(out[c.Start:c.End])
	})

	var unterminated *UnterminatedError
	if errors.As(err, &unterminated) {
		blank(out[unterminated.Offset:])
	}
	return out, err
}

// blank overwrites b with spaces rune by rune, leaving line breaks intact.
func blank(b []byte) {
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if !isLineBreak(r) {
			for j := i; j < i+size; j++ {
				b[j] = ' '
			}
		}
		i += size
	}
}
