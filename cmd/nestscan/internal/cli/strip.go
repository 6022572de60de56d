package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/albertocavalcante/nestscan/pkg/comments"
	"github.com/spf13/cobra"
)

var stripFlags struct {
	output string
}

var stripCmd = &cobra.Command{
	Use:   "strip [file|-]",
	Short: "Blank out block comments",
	Long: `Writes the input with every block comment replaced by spaces.
Line breaks inside comments are kept, so byte offsets and line numbers
of the remaining code do not change.

If a comment is never closed, everything from its opener to the end of
the input is blanked and the command exits non-zero.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStrip,
}

func init() {
	stripCmd.Flags().StringVarP(&stripFlags.output, "output", "o", "",
		"Write to file instead of stdout")

	rootCmd.AddCommand(stripCmd)
}

func runStrip(cmd *cobra.Command, args []string) error {
	src, name, err := readInput(cmd, inputsOrStdin(args)[0])
	if err != nil {
		return err
	}

	stripped, stripErr := comments.Strip(src, cfg.ScanOptions())
	var unterminated *comments.UnterminatedError
	if stripErr != nil && !errors.As(stripErr, &unterminated) {
		return fmt.Errorf("stripping %s: %w", name, stripErr)
	}

	if stripFlags.output != "" {
		if err := os.WriteFile(stripFlags.output, stripped, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", stripFlags.output, err)
		}
	} else if _, err := cmd.OutOrStdout().Write(stripped); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	if unterminated != nil {
		return fmt.Errorf("%s: %w", name, unterminated)
	}
	return nil
}
