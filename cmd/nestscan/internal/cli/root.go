// Package cli implements the nestscan command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/albertocavalcante/nestscan/internal/log"
	"github.com/albertocavalcante/nestscan/pkg/config"
	"github.com/spf13/cobra"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	GitCommit = "unknown"
)

// globalFlags holds persistent flags that apply to all commands
var globalFlags struct {
	verbosity           int
	logFormat           string
	configPath          string
	respectValidSymbols bool
	skipLineComments    bool
}

// cfg is the configuration for the running command, loaded in setup.
var cfg = config.NewConfig()

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "nestscan",
	Short: "Find and check nested block comments",
	Long: `Nestscan scans source files for nested /* ... */ block comments using
the same rules as a tree-sitter external scanner: every "/*" opens a level,
every "*/" closes one, and the comment ends when the outermost level closes.

Use 'nestscan check' to compare the result against a tree-sitter grammar.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// versionCmd shows version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "nestscan %s (%s)\n", Version, GitCommit)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)

	flags := rootCmd.PersistentFlags()
	flags.IntVarP(&globalFlags.verbosity, "verbosity", "v", 1,
		"Verbosity level (0=error, 1=warn, 2=info, 3=debug, 4=trace)")
	flags.StringVar(&globalFlags.logFormat, "log-format", "text",
		"Log format (text, json)")
	flags.StringVar(&globalFlags.configPath, "config", "",
		"Config file to use instead of the project config")
	flags.BoolVar(&globalFlags.respectValidSymbols, "respect-valid-symbols", false,
		"Only match when the parser asks for a block comment")
	flags.BoolVar(&globalFlags.skipLineComments, "skip-line-comments", true,
		`Treat "//" as hiding "/*" until the end of the line`)
}

// setup initializes logging and loads configuration before any command
// runs. CLI flags override every config layer.
func setup(cmd *cobra.Command, _ []string) error {
	format, err := log.ParseFormat(globalFlags.logFormat)
	if err != nil {
		return err
	}
	log.InitWriter(cmd.ErrOrStderr(), globalFlags.verbosity, format)

	loaded, err := loadConfig()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("respect-valid-symbols") {
		v := globalFlags.respectValidSymbols
		loaded.Scanner.RespectValidSymbols = &v
	}
	if flags.Changed("skip-line-comments") {
		v := globalFlags.skipLineComments
		loaded.Scanner.SkipLineComments = &v
	}

	if err := loaded.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	cfg = loaded

	log.Component("cli").Info("configuration loaded",
		"backend", cfg.Check.Backend,
		"language", cfg.Check.Language,
		"guarded", cfg.ScanOptions().Guarded)
	return nil
}

func loadConfig() (*config.Config, error) {
	if globalFlags.configPath != "" {
		loaded, err := config.LoadFile(globalFlags.configPath)
		if err != nil {
			return nil, fmt.Errorf("loading --config: %w", err)
		}
		return loaded, nil
	}
	return config.Load(), nil
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// RootCmd returns the root command for testing.
func RootCmd() *cobra.Command {
	return rootCmd
}
