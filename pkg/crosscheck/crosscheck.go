// Package crosscheck compares the spans found by the nested comment scanner
// with the block comments a tree-sitter grammar reports for the same source.
//
// The reference grammar decides whether the input is usable: when its tree
// contains syntax errors the comparison is skipped rather than failed. For
// grammars that do not nest block comments (see treesitter.NestsBlockComments)
// disagreement on nested input is expected; Report.Nests records which kind
// of reference was used.
package crosscheck

import (
	"context"
	"errors"
	"fmt"

	"github.com/albertocavalcante/nestscan/internal/log"
	"github.com/albertocavalcante/nestscan/pkg/comments"
	"github.com/albertocavalcante/nestscan/pkg/treesitter"
)

// Side names the checker that found a span the other did not.
type Side string

const (
	SideReference Side = "tree-sitter"
	SideScanner   Side = "scanner"
)

// Mismatch is a span found by only one side.
type Mismatch struct {
	Start int  `json:"start"`
	End   int  `json:"end"`
	Side  Side `json:"side"`
}

// Report is the outcome of one comparison.
type Report struct {
	Language treesitter.Language `json:"language"`

	// Nests reports whether the reference grammar nests block comments.
	Nests bool `json:"nests"`

	// Skipped is set when the reference parser rejected the input.
	Skipped bool   `json:"skipped"`
	Reason  string `json:"reason,omitempty"`

	Agree      bool               `json:"agree"`
	Reference  []treesitter.Span  `json:"reference,omitempty"`
	Scanned    []comments.Comment `json:"scanned,omitempty"`
	Mismatches []Mismatch         `json:"mismatches,omitempty"`
}

// Checker runs comparisons against one backend. A Checker is safe for
// concurrent use when its backend is; each Check creates its own parser.
type Checker struct {
	backend treesitter.Backend
	opts    comments.Options
}

// New returns a Checker that extracts comments with opts and compares them
// against grammars loaded from backend.
func New(backend treesitter.Backend, opts comments.Options) *Checker {
	return &Checker{backend: backend, opts: opts}
}

// Check compares the two views of src for lang.
func (c *Checker) Check(ctx context.Context, lang treesitter.Language, src []byte) (*Report, error) {
	if !c.backend.SupportsLanguage(lang) {
		return nil, treesitter.ErrLanguageNotSupported{Language: lang, Backend: c.backend.Name()}
	}

	parser, err := c.backend.NewParser(lang)
	if err != nil {
		return nil, fmt.Errorf("creating %s parser: %w", lang, err)
	}
	defer parser.Close()

	tree, err := parser.Parse(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", lang, err)
	}
	defer tree.Close()

	report := &Report{
		Language: lang,
		Nests:    treesitter.NestsBlockComments(lang),
	}

	if tree.HasError() {
		report.Skipped = true
		report.Reason = "reference parser reported syntax errors"
		log.Debug("crosscheck skipped", "language", lang, "reason", report.Reason)
		log.V(log.VerbosityTrace).Debug("reference tree", "language", lang, "sexp", tree.RootNode().String())
		return report, nil
	}

	report.Reference = treesitter.CommentSpans(tree, lang)

	scanned, err := comments.Extract(src, c.opts)
	report.Scanned = scanned

	var unterminated *comments.UnterminatedError
	switch {
	case errors.As(err, &unterminated):
		// Unclosed in a file the reference accepted.
		report.Mismatches = append(report.Mismatches, Mismatch{
			Start: unterminated.Offset,
			End:   len(src),
			Side:  SideScanner,
		})
	case err != nil:
		return nil, fmt.Errorf("extracting comments: %w", err)
	}

	report.Mismatches = append(report.Mismatches, diff(report.Reference, scanned)...)
	report.Agree = len(report.Mismatches) == 0

	trace := log.V(log.VerbosityTrace)
	for _, m := range report.Mismatches {
		trace.Debug("mismatch", "language", lang, "side", m.Side, "start", m.Start, "end", m.End)
	}

	log.Debug("crosscheck",
		"language", lang,
		"reference", len(report.Reference),
		"scanned", len(scanned),
		"mismatches", len(report.Mismatches))
	return report, nil
}

// diff merges two start-ordered span lists and returns the spans that
// appear on only one side.
func diff(ref []treesitter.Span, scanned []comments.Comment) []Mismatch {
	var out []Mismatch
	i, j := 0, 0
	for i < len(ref) || j < len(scanned) {
		switch {
		case j == len(scanned):
			out = append(out, refMismatch(ref[i]))
			i++
		case i == len(ref):
			out = append(out, scanMismatch(scanned[j]))
			j++
		case int(ref[i].Start) == scanned[j].Start && int(ref[i].End) == scanned[j].End:
			i++
			j++
		case int(ref[i].Start) < scanned[j].Start ||
			(int(ref[i].Start) == scanned[j].Start && int(ref[i].End) < scanned[j].End):
			out = append(out, refMismatch(ref[i]))
			i++
		default:
			out = append(out, scanMismatch(scanned[j]))
			j++
		}
	}
	return out
}

func refMismatch(s treesitter.Span) Mismatch {
	return Mismatch{Start: int(s.Start), End: int(s.End), Side: SideReference}
}

func scanMismatch(c comments.Comment) Mismatch {
	return Mismatch{Start: c.Start, End: c.End, Side: SideScanner}
}
