package cli

import (
	"fmt"
	"slices"

	"github.com/albertocavalcante/nestscan/pkg/treesitter"
	"github.com/spf13/cobra"
)

var backendsFlags struct {
	json bool
}

var backendsCmd = &cobra.Command{
	Use:   "backends",
	Short: "List tree-sitter backends for the check command",
	Long: `Lists each tree-sitter backend, whether it can be created in this
build, and the grammars it serves. Grammars that nest block comments are
marked with *.

Example output:

  cgo     available      go, java, kotlin*, scala*, rust*, ...
  wazero  experimental   c, cpp`,
	Args: cobra.NoArgs,
	RunE: runBackends,
}

func init() {
	backendsCmd.Flags().BoolVar(&backendsFlags.json, "json", false,
		"Output one JSON object per backend")

	rootCmd.AddCommand(backendsCmd)
}

// BackendOutput is the JSON output format for one backend.
type BackendOutput struct {
	Type         treesitter.BackendType `json:"type"`
	Name         string                 `json:"name"`
	Description  string                 `json:"description"`
	Available    bool                   `json:"available"`
	Experimental bool                   `json:"experimental"`
	Languages    []treesitter.Language  `json:"languages"`
}

func runBackends(cmd *cobra.Command, _ []string) error {
	available := treesitter.AvailableBackends()
	out := cmd.OutOrStdout()
	enc := newJSONLines(out)

	for _, typ := range []treesitter.BackendType{treesitter.BackendCGO, treesitter.BackendWazero} {
		info := treesitter.GetBackendInfo(typ)
		result := BackendOutput{
			Type:         info.Type,
			Name:         info.Name,
			Description:  info.Description,
			Available:    slices.Contains(available, typ),
			Experimental: info.IsExperimental,
			Languages:    info.SupportedLanguages,
		}

		if backendsFlags.json {
			if err := enc.write(result); err != nil {
				return err
			}
			continue
		}

		status := "unavailable"
		switch {
		case result.Available && result.Experimental:
			status = "experimental"
		case result.Available:
			status = "available"
		}
		fmt.Fprintf(out, "%-7s %-14s %s\n", typ, status, markNesting(result.Languages))
	}
	return nil
}

// markNesting lists languages, starring those whose block comments nest.
func markNesting(languages []treesitter.Language) string {
	marked := make([]treesitter.Language, len(languages))
	for i, lang := range languages {
		marked[i] = lang
		if treesitter.NestsBlockComments(lang) {
			marked[i] += "*"
		}
	}
	return joinLanguages(marked)
}
