package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/albertocavalcante/nestscan/cmd/nestscan/internal/watch"
	"github.com/albertocavalcante/nestscan/internal/log"
	"github.com/spf13/cobra"
)

var watchFlags struct {
	debounce   int
	extensions string
	verbose    bool
	json       bool
	noColor    bool
}

var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Rescan files for block comment errors as they change",
	Long: `Watches a directory tree and rescans each changed file, reporting
how many block comments it has or where an unclosed comment starts.
Files whose content did not change since the last scan are skipped.

Example output:

  $ nestscan watch shaders

  nestscan: watching 42 files in shaders
  nestscan: extensions: .wesl, .wgsl
  nestscan: ready

  [14:32:15] ✓ lighting.wgsl ok 3 comments (max depth 2)
  [14:32:40] ✗ post.wgsl unterminated at 12:5 (1 open)

Press Ctrl+C to stop watching.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().IntVar(&watchFlags.debounce, "debounce", 0,
		"Debounce window in milliseconds (default from config)")
	watchCmd.Flags().StringVar(&watchFlags.extensions, "extensions", "",
		"Comma-separated extensions to watch (default from config)")
	watchCmd.Flags().BoolVar(&watchFlags.verbose, "verbose", false,
		"Show file-level changes (implied by -v=2 and above)")
	watchCmd.Flags().BoolVar(&watchFlags.json, "json", false,
		"Stream JSON events (for tooling integration)")
	watchCmd.Flags().BoolVar(&watchFlags.noColor, "no-color", false,
		"Disable colored output")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("invalid path %s: %w", root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path must be a directory: %s", root)
	}

	debounce := cfg.Debounce()
	if watchFlags.debounce > 0 {
		debounce = time.Duration(watchFlags.debounce) * time.Millisecond
	}

	extensions := cfg.Watch.Extensions
	if watchFlags.extensions != "" {
		extensions = nil
		for _, ext := range strings.Split(watchFlags.extensions, ",") {
			ext = strings.TrimSpace(ext)
			if ext == "" {
				continue
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			extensions = append(extensions, ext)
		}
	}

	// SIGHUP covers terminal hangup.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	w, err := watch.New(watch.Config{
		Root:       root,
		Extensions: extensions,
		Exclude:    cfg.Watch.Exclude,
		Debounce:   debounce,
		Options:    cfg.ScanOptions(),
		Verbose:    watchFlags.verbose || log.Verbosity() >= log.VerbosityInfo,
		NoColor:    watchFlags.noColor,
		JSON:       watchFlags.json,
		Writer:     cmd.OutOrStdout(),
	})
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	return w.Run(ctx)
}
