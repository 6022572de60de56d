package cli

import (
	"errors"
	"fmt"
	"io"
	"runtime"

	"github.com/albertocavalcante/nestscan/cmd/nestscan/internal/digest"
	"github.com/albertocavalcante/nestscan/internal/log"
	"github.com/albertocavalcante/nestscan/pkg/comments"
	"github.com/albertocavalcante/nestscan/pkg/scanner"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var scanFlags struct {
	json bool
	text bool
}

var scanCmd = &cobra.Command{
	Use:   "scan [file...|-]",
	Short: "List nested block comments",
	Long: `Lists every top-level block comment in each file, one per line:

  path:row:col-row:col depth=N

Positions are 1-based; columns count bytes. With no files, or "-",
standard input is read. Directories are walked for files with the
watch.extensions from config, skipping hidden and build directories and
anything matching watch.exclude.

The --json flag prints one object per file with its xxhash digest:

  {"path":"a.wgsl","digest":"...","comments":[...]}

Exits non-zero if any file has a block comment that is never closed.`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().BoolVar(&scanFlags.json, "json", false,
		"Output one JSON object per file")
	scanCmd.Flags().BoolVar(&scanFlags.text, "text", false,
		"Include the comment text in line output")

	rootCmd.AddCommand(scanCmd)
}

// ScanComment is one comment in JSON output. Rows and columns are 1-based.
type ScanComment struct {
	Start       int    `json:"start"`
	End         int    `json:"end"`
	StartRow    int    `json:"start_row"`
	StartColumn int    `json:"start_column"`
	EndRow      int    `json:"end_row"`
	EndColumn   int    `json:"end_column"`
	Depth       int    `json:"depth"`
	Text        string `json:"text"`
}

// ScanOutput is the JSON output format for one file.
type ScanOutput struct {
	Path     string        `json:"path"`
	Digest   string        `json:"digest,omitempty"`
	Comments []ScanComment `json:"comments"`
	Error    string        `json:"error,omitempty"`
}

var errUnterminated = errors.New("unterminated block comments found")

// scanResult is the outcome for one input, kept in argument order.
type scanResult struct {
	name         string
	digest       string
	found        []comments.Comment
	unterminated *comments.UnterminatedError
}

func runScan(cmd *cobra.Command, args []string) error {
	paths, err := expandInputs(cmd, args)
	if err != nil {
		return err
	}

	results := make([]scanResult, len(paths))
	opts := cfg.ScanOptions()

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			result, err := scanOne(cmd, path, opts)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	enc := newJSONLines(out)

	failed := 0
	for _, r := range results {
		if r.unterminated != nil {
			failed++
		}

		if scanFlags.json {
			output := ScanOutput{
				Path:     r.name,
				Digest:   r.digest,
				Comments: toScanComments(r.found),
			}
			if r.unterminated != nil {
				output.Error = r.unterminated.Error()
			}
			if err := enc.write(output); err != nil {
				return err
			}
			continue
		}

		printComments(out, r.name, r.found)
		if r.unterminated != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v (%d open)\n", r.name, r.unterminated, r.unterminated.Depth)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%w in %d file(s)", errUnterminated, failed)
	}
	return nil
}

func scanOne(cmd *cobra.Command, path string, opts comments.Options) (scanResult, error) {
	src, name, err := readInput(cmd, path)
	if err != nil {
		return scanResult{}, err
	}

	found, err := comments.Extract(src, opts)
	log.Debug("scanned", "path", name, "comments", len(found), "bytes", len(src))

	result := scanResult{name: name, digest: digest.Bytes(src), found: found}
	if err != nil && !errors.As(err, &result.unterminated) {
		return scanResult{}, fmt.Errorf("scanning %s: %w", name, err)
	}
	return result, nil
}

func printComments(w io.Writer, name string, found []comments.Comment) {
	for _, c := range found {
		fmt.Fprintf(w, "%s:%s-%s depth=%d", name, pos(c.StartPoint), pos(c.EndPoint), c.Depth)
		if scanFlags.text {
			fmt.Fprintf(w, " %q", c.Text)
		}
		fmt.Fprintln(w)
	}
}

func pos(p scanner.Point) string {
	return fmt.Sprintf("%d:%d", p.Row+1, p.Column+1)
}

func toScanComments(found []comments.Comment) []ScanComment {
	out := make([]ScanComment, 0, len(found))
	for _, c := range found {
		out = append(out, ScanComment{
			Start:       c.Start,
			End:         c.End,
			StartRow:    int(c.StartPoint.Row) + 1,
			StartColumn: int(c.StartPoint.Column) + 1,
			EndRow:      int(c.EndPoint.Row) + 1,
			EndColumn:   int(c.EndPoint.Column) + 1,
			Depth:       c.Depth,
			Text:        c.Text,
		})
	}
	return out
}
