package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/albertocavalcante/nestscan/cmd/nestscan/internal/walk"
	"github.com/albertocavalcante/nestscan/internal/log"
	"github.com/spf13/cobra"
)

// stdinName is how standard input is shown in output.
const stdinName = "<stdin>"

// readInput reads path, or standard input for "-".
func readInput(cmd *cobra.Command, path string) (data []byte, name string, err error) {
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, stdinName, fmt.Errorf("reading stdin: %w", err)
		}
		return data, stdinName, nil
	}

	data, err = os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, path, nil
}

// inputsOrStdin returns args, or "-" when no files were given.
func inputsOrStdin(args []string) []string {
	if len(args) == 0 {
		return []string{"-"}
	}
	return args
}

// expandInputs is inputsOrStdin with each directory replaced by the files
// under it selected by the watch extensions and exclude patterns. Standard
// input is read once, so repeated "-" arguments collapse to the first.
func expandInputs(cmd *cobra.Command, args []string) ([]string, error) {
	args = inputsOrStdin(args)
	walker := walk.New(walk.Config{
		Extensions: cfg.Watch.Extensions,
		Exclude:    cfg.Watch.Exclude,
	})

	paths := make([]string, 0, len(args))
	stdin := false
	for _, arg := range args {
		if arg == "-" {
			if !stdin {
				stdin = true
				paths = append(paths, arg)
			}
			continue
		}

		info, err := os.Stat(arg)
		if err != nil || !info.IsDir() {
			paths = append(paths, arg)
			continue
		}

		files, err := walker.Files(cmd.Context(), arg)
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", arg, err)
		}
		log.Debug("expanded directory", "path", arg, "files", len(files))
		paths = append(paths, files...)
	}
	return paths, nil
}

// jsonLines writes one compact JSON object per line.
type jsonLines struct {
	enc *json.Encoder
}

func newJSONLines(w io.Writer) *jsonLines {
	return &jsonLines{enc: json.NewEncoder(w)}
}

func (j *jsonLines) write(v any) error {
	if err := j.enc.Encode(v); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}
