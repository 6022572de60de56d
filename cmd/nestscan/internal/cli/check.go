package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/albertocavalcante/nestscan/cmd/nestscan/internal/langs"
	"github.com/albertocavalcante/nestscan/internal/log"
	"github.com/albertocavalcante/nestscan/pkg/config"
	"github.com/albertocavalcante/nestscan/pkg/crosscheck"
	"github.com/albertocavalcante/nestscan/pkg/treesitter"
	"github.com/spf13/cobra"
)

var checkFlags struct {
	language string
	backend  string
	json     bool
}

var checkCmd = &cobra.Command{
	Use:   "check [file...|-]",
	Short: "Compare block comments against a tree-sitter grammar",
	Long: `Parses each file with a tree-sitter grammar and compares the block
comments it reports with the ones nestscan finds.

The grammar is chosen by --language, or by file extension when the
language is "auto". Grammars that nest block comments (rust, scala,
swift, kotlin) make the best reference. Files the grammar cannot parse
are skipped. With the auto backend, NESTSCAN_TREESITTER_BACKEND picks a
specific one. Run 'nestscan backends' to see which grammars each serves.

Exits non-zero if any file disagrees.`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkFlags.language, "language", "",
		`Reference grammar, or "auto" to choose by extension (default from config)`)
	checkCmd.Flags().StringVar(&checkFlags.backend, "backend", "",
		"Tree-sitter backend: auto, cgo, wazero (default from config)")
	checkCmd.Flags().BoolVar(&checkFlags.json, "json", false,
		"Output one JSON report per file")

	rootCmd.AddCommand(checkCmd)
}

// CheckOutput is the JSON output format for one file.
type CheckOutput struct {
	Path   string             `json:"path"`
	Report *crosscheck.Report `json:"report,omitempty"`
	Error  string             `json:"error,omitempty"`
}

var errDisagree = errors.New("scanner and tree-sitter disagree")

func runCheck(cmd *cobra.Command, args []string) error {
	language := cfg.Check.Language
	if checkFlags.language != "" {
		language = checkFlags.language
	}

	backendName := cfg.Check.Backend
	if checkFlags.backend != "" {
		backendName = checkFlags.backend
	}
	typ, err := treesitter.ParseBackendType(backendName)
	if err != nil {
		return err
	}

	backend, err := newBackend(typ)
	if err != nil {
		return fmt.Errorf("creating %s backend: %w", typ, err)
	}
	defer backend.Close()
	log.Component("check").Debug("backend ready", "backend", backend.Name(), "experimental", backend.IsExperimental())

	checker := crosscheck.New(backend, cfg.ScanOptions())
	out := cmd.OutOrStdout()
	enc := newJSONLines(out)

	disagree := 0
	warned := make(map[treesitter.Language]bool)
	paths, err := expandInputs(cmd, args)
	if err != nil {
		return err
	}

	for _, path := range paths {
		src, name, err := readInput(cmd, path)
		if err != nil {
			return err
		}

		lang, err := resolveLanguage(language, path)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if !treesitter.NestsBlockComments(lang) && !warned[lang] {
			warned[lang] = true
			log.Warn("reference grammar does not nest block comments; nested input will disagree", "language", lang)
		}

		report, err := checker.Check(cmd.Context(), lang, src)
		var unsupported treesitter.ErrLanguageNotSupported
		if errors.As(err, &unsupported) {
			return fmt.Errorf("checking %s: %w (%s supports: %s)",
				name, err, backend.Name(), joinLanguages(backend.SupportedLanguages()))
		}
		if err != nil {
			return fmt.Errorf("checking %s: %w", name, err)
		}
		if !report.Skipped && !report.Agree {
			disagree++
		}

		if checkFlags.json {
			if err := enc.write(CheckOutput{Path: name, Report: report}); err != nil {
				return err
			}
			continue
		}
		printReport(out, name, report)
	}

	if disagree > 0 {
		return fmt.Errorf("%w in %d file(s)", errDisagree, disagree)
	}
	return nil
}

// newBackend creates the backend for typ. Auto defers to
// NESTSCAN_TREESITTER_BACKEND when it is set.
func newBackend(typ treesitter.BackendType) (treesitter.Backend, error) {
	if typ == treesitter.BackendAuto {
		return treesitter.NewBackendFromEnv()
	}
	return treesitter.NewBackend(typ)
}

func joinLanguages(languages []treesitter.Language) string {
	names := make([]string, len(languages))
	for i, lang := range languages {
		names[i] = string(lang)
	}
	return strings.Join(names, ", ")
}

// resolveLanguage maps the configured language to a grammar for path.
func resolveLanguage(language, path string) (treesitter.Language, error) {
	if language != config.LanguageAuto {
		lang, ok := treesitter.ParseLanguage(language)
		if !ok {
			return "", fmt.Errorf("unknown language %q", language)
		}
		return lang, nil
	}

	if path == "-" {
		return "", errors.New(`cannot choose a grammar for stdin; pass --language`)
	}
	lang, ok := langs.GrammarFor(path)
	if !ok {
		return "", errors.New("no tree-sitter grammar for this file type; pass --language")
	}
	return lang, nil
}

func printReport(w io.Writer, name string, r *crosscheck.Report) {
	switch {
	case r.Skipped:
		fmt.Fprintf(w, "%s: skipped (%s)\n", name, r.Reason)
	case r.Agree:
		fmt.Fprintf(w, "%s: agree (%s, %d comments)\n", name, r.Language, len(r.Scanned))
	default:
		fmt.Fprintf(w, "%s: disagree (%s)\n", name, r.Language)
		for _, m := range r.Mismatches {
			fmt.Fprintf(w, "  %s only: %d-%d\n", m.Side, m.Start, m.End)
		}
	}
}
