package scanner

import (
	"os"
	"os/exec"
	"runtime/debug"
	"strings"
	"testing"
)

// scanString runs Scan on a fresh SourceLexer and returns the result with
// the lexer for inspection.
func scanString(t *testing.T, input string) (bool, *SourceLexer) {
	t.Helper()
	lx := NewSourceLexer([]byte(input))
	return Scan(lx, ValidSymbols(BlockComment)), lx
}

func TestScan(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantOK    bool
		wantStart int
		wantEnd   int // lexer offset after the call
	}{
		{
			name:    "simple comment followed by text",
			input:   "/* hello */x",
			wantOK:  true,
			wantEnd: len("/* hello */"),
		},
		{
			name:    "nested depth two",
			input:   "/* a /* b */ c */",
			wantOK:  true,
			wantEnd: len("/* a /* b */ c */"),
		},
		{
			name:    "unterminated",
			input:   "/* never closes",
			wantOK:  false,
			wantEnd: len("/* never closes"),
		},
		{
			name:    "slash not followed by star",
			input:   "/ not a comment",
			wantOK:  false,
			wantEnd: 1,
		},
		{
			name:      "leading whitespace",
			input:     "   \n\t/* x */",
			wantOK:    true,
			wantStart: 5,
			wantEnd:   len("   \n\t/* x */"),
		},
		{
			name:    "star run before close",
			input:   "/* x ***/",
			wantOK:  true,
			wantEnd: len("/* x ***/"),
		},
		{
			name:    "empty comment",
			input:   "/**/",
			wantOK:  true,
			wantEnd: 4,
		},
		{
			name:    "opener star does not close",
			input:   "/*/ */",
			wantOK:  true,
			wantEnd: 6,
		},
		{
			name:    "slash star slash nests",
			input:   "/* /*/ */ */",
			wantOK:  true,
			wantEnd: len("/* /*/ */ */"),
		},
		{
			name:    "stops at first outer close",
			input:   "/* a */ */",
			wantOK:  true,
			wantEnd: len("/* a */"),
		},
		{
			name:    "unbalanced nesting runs off the end",
			input:   "/* a /* b */",
			wantOK:  false,
			wantEnd: len("/* a /* b */"),
		},
		{
			name:    "star then other char resets",
			input:   "/* * / */",
			wantOK:  true,
			wantEnd: len("/* * / */"),
		},
		{
			name:    "not a slash",
			input:   "x /* */",
			wantOK:  false,
			wantEnd: 0,
		},
		{
			name:      "whitespace only",
			input:     " \t\n",
			wantOK:    false,
			wantStart: 3,
			wantEnd:   3,
		},
		{
			name:    "empty input",
			input:   "",
			wantOK:  false,
			wantEnd: 0,
		},
		{
			name:    "lone slash at end",
			input:   "/",
			wantOK:  false,
			wantEnd: 1,
		},
		{
			name:    "multibyte content",
			input:   "/* héllo /* 世界 */ */",
			wantOK:  true,
			wantEnd: len("/* héllo /* 世界 */ */"),
		},
		{
			name:    "close split by newline is not a close",
			input:   "/* *\n/",
			wantOK:  false,
			wantEnd: len("/* *\n/"),
		},
		{
			name:    "nul reads as end of input",
			input:   "/* a \x00 */",
			wantOK:  false,
			wantEnd: len("/* a "),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, lx := scanString(t, tt.input)
			if ok != tt.wantOK {
				t.Fatalf("Scan(%q) = %v, want %v", tt.input, ok, tt.wantOK)
			}
			tok := lx.Token()
			if tok.End != tt.wantEnd {
				t.Errorf("Scan(%q) stopped at %d, want %d", tt.input, tok.End, tt.wantEnd)
			}
			if tok.Start != tt.wantStart {
				t.Errorf("Scan(%q) token start = %d, want %d", tt.input, tok.Start, tt.wantStart)
			}
			if tok.Matched != tt.wantOK {
				t.Errorf("Scan(%q) matched = %v, want %v", tt.input, tok.Matched, tt.wantOK)
			}
			if ok && tok.Symbol != BlockComment {
				t.Errorf("Scan(%q) symbol = %v, want %v", tt.input, tok.Symbol, BlockComment)
			}
		})
	}
}

func TestScanLeadingWhitespaceIsSkipped(t *testing.T) {
	input := "   \n\t/* x */"
	ok, lx := scanString(t, input)
	if !ok {
		t.Fatal("expected a match")
	}

	tok := lx.Token()
	if got := input[tok.Start:tok.End]; got != "/* x */" {
		t.Errorf("token text = %q, want %q", got, "/* x */")
	}
	want := Point{Row: 1, Column: 1}
	if tok.StartPoint != want {
		t.Errorf("StartPoint = %+v, want %+v", tok.StartPoint, want)
	}
}

func TestScanUnicodeWhitespace(t *testing.T) {
	// NEL and the ideographic space are Unicode whitespace.
	input := "\u0085 　/* x */"
	ok, lx := scanString(t, input)
	if !ok {
		t.Fatal("expected a match after Unicode whitespace")
	}
	if got := input[lx.Token().Start:]; got != "/* x */" {
		t.Errorf("token text = %q", got)
	}
}

func TestScanConsumesExactlyBalancedComment(t *testing.T) {
	for depth := 1; depth <= 64; depth++ {
		comment := strings.Repeat("/* x ", depth) + strings.Repeat("*/ ", depth-1) + "*/"
		input := comment + " trailing */ text"

		ok, lx := scanString(t, input)
		if !ok {
			t.Fatalf("depth %d: Scan failed", depth)
		}
		if got := lx.Token().End; got != len(comment) {
			t.Fatalf("depth %d: consumed %d bytes, want %d", depth, got, len(comment))
		}
	}
}

func TestScanStarRunsOfAnyLength(t *testing.T) {
	for n := 1; n <= 16; n++ {
		input := "/* x " + strings.Repeat("*", n) + "/"
		ok, lx := scanString(t, input)
		if !ok {
			t.Fatalf("%d stars: Scan failed", n)
		}
		if lx.Token().End != len(input) {
			t.Fatalf("%d stars: consumed %d, want %d", n, lx.Token().End, len(input))
		}
	}
}

func TestScanDeepNesting(t *testing.T) {
	const depth = 100000
	input := strings.Repeat("/*", depth) + strings.Repeat("*/", depth)

	ok, lx := scanString(t, input)
	if !ok {
		t.Fatal("Scan failed on deep nesting")
	}
	if lx.Token().End != len(input) {
		t.Errorf("consumed %d, want %d", lx.Token().End, len(input))
	}
}

func TestScanDoesNotGrowStackWithDepth(t *testing.T) {
	if os.Getenv("NESTSCAN_DEEP_COMMENT_HELPER") == "1" {
		runDeepCommentHelper()
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestScanDoesNotGrowStackWithDepth")
	cmd.Env = append(os.Environ(), "NESTSCAN_DEEP_COMMENT_HELPER=1")
	if err := cmd.Run(); err != nil {
		t.Fatalf("scanner ran out of stack on a deeply nested comment: %v", err)
	}
}

func runDeepCommentHelper() {
	// A small stack limit turns any per-level recursion into a crash.
	debug.SetMaxStack(1 << 15)

	const depth = 1 << 16
	input := strings.Repeat("/*", depth) + strings.Repeat("*/", depth)
	if !Scan(NewSourceLexer([]byte(input)), nil) {
		os.Exit(3)
	}
	os.Exit(0)
}

// recordingLexer records the skip flag of every Advance call.
type recordingLexer struct {
	input  []rune
	pos    int
	skips  []bool
	result *Symbol
}

func (r *recordingLexer) Lookahead() rune {
	if r.pos >= len(r.input) {
		return EOF
	}
	return r.input[r.pos]
}

func (r *recordingLexer) Advance(skip bool) {
	if r.pos < len(r.input) {
		r.pos++
	}
	r.skips = append(r.skips, skip)
}

func (r *recordingLexer) SetResultSymbol(sym Symbol) {
	r.result = &sym
}

func TestScanMarksOnlyLeadingWhitespaceInsignificant(t *testing.T) {
	lx := &recordingLexer{input: []rune(" \t/* a */")}
	if !Scan(lx, nil) {
		t.Fatal("expected a match")
	}

	want := []bool{true, true, false, false, false, false, false, false, false}
	if len(lx.skips) != len(want) {
		t.Fatalf("advanced %d times, want %d", len(lx.skips), len(want))
	}
	for i := range want {
		if lx.skips[i] != want[i] {
			t.Errorf("advance %d skip = %v, want %v", i, lx.skips[i], want[i])
		}
	}
	if lx.result == nil || *lx.result != BlockComment {
		t.Errorf("result symbol = %v, want %v", lx.result, BlockComment)
	}
}

func TestScanFailureLeavesResultUnset(t *testing.T) {
	for _, input := range []string{"", "x", "/x", "/* open", "  "} {
		lx := &recordingLexer{input: []rune(input)}
		if Scan(lx, nil) {
			t.Errorf("Scan(%q) = true, want false", input)
		}
		if lx.result != nil {
			t.Errorf("Scan(%q) set result symbol on failure", input)
		}
	}
}

func TestScanWhitespaceNotRolledBack(t *testing.T) {
	ok, lx := scanString(t, "   x")
	if ok {
		t.Fatal("expected failure")
	}
	if lx.Offset() != 3 {
		t.Errorf("offset after failure = %d, want 3 (whitespace stays consumed)", lx.Offset())
	}
	if lx.Lookahead() != 'x' {
		t.Errorf("lookahead = %q, want 'x'", lx.Lookahead())
	}
}

func TestScanIgnoresValidSymbols(t *testing.T) {
	lx := NewSourceLexer([]byte("/* x */"))
	if !Scan(lx, ValidSymbols()) {
		t.Error("Scan should match even when BlockComment is not requested")
	}
}

func TestScanRequested(t *testing.T) {
	tests := []struct {
		name       string
		valid      []bool
		wantOK     bool
		wantOffset int
	}{
		{"requested", ValidSymbols(BlockComment), true, 9},
		{"nil requests everything", nil, true, 9},
		{"not requested", ValidSymbols(), false, 0},
		{"empty slice", []bool{}, false, 0},
		{"explicit false", []bool{false}, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lx := NewSourceLexer([]byte("  /* x */"))
			if got := ScanRequested(lx, tt.valid); got != tt.wantOK {
				t.Fatalf("ScanRequested() = %v, want %v", got, tt.wantOK)
			}
			if lx.Offset() != tt.wantOffset {
				t.Errorf("offset = %d, want %d", lx.Offset(), tt.wantOffset)
			}
		})
	}
}

func TestSymbol(t *testing.T) {
	if BlockComment.String() != "block_comment" {
		t.Errorf("BlockComment.String() = %q", BlockComment.String())
	}
	if Symbol(42).String() != "unknown" {
		t.Errorf("Symbol(42).String() = %q", Symbol(42).String())
	}
}

func TestValidSymbols(t *testing.T) {
	valid := ValidSymbols(BlockComment, Symbol(99))
	if len(valid) != 1 || !valid[BlockComment] {
		t.Errorf("ValidSymbols() = %v", valid)
	}
	if none := ValidSymbols(); none[BlockComment] {
		t.Error("ValidSymbols() with no args should request nothing")
	}
}
