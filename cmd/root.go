// Package cmd contains all CLI commands for the sheetagent binary.
package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/sheetagent/cmd/ask"
	"github.com/klytics/sheetagent/cmd/completion"
	cmdconfig "github.com/klytics/sheetagent/cmd/config"
	"github.com/klytics/sheetagent/cmd/dict"
	"github.com/klytics/sheetagent/cmd/doctor"
	"github.com/klytics/sheetagent/cmd/history"
	"github.com/klytics/sheetagent/cmd/preview"
	"github.com/klytics/sheetagent/cmd/profile"
	"github.com/klytics/sheetagent/cmd/run"
	cmdshell "github.com/klytics/sheetagent/cmd/shell"
	"github.com/klytics/sheetagent/cmd/version"
	cmdwatch "github.com/klytics/sheetagent/cmd/watch"
)

var (
	jsonOutput bool
	verbose    bool
	provider   string
	modelName  string
	apiKey     string
	noColor    bool
)

// NewRootCommand creates and returns the root cobra command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sheetagent",
		Short: "Remote-agent spreadsheet analysis from your terminal",
		Long: `sheetagent — hand your spreadsheets to an AI analyst.

Uploads a workbook to a remote AI agent with a code execution sandbox,
asks it to profile every sheet, build a data dictionary, plan an analysis,
and answer your question — then downloads everything the agent produced.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				color.NoColor = true
			}
		},
	}

	// Global persistent flags
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as machine-readable JSON")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&provider, "provider", defaultProvider(), "Agent provider: openai | anthropic")
	rootCmd.PersistentFlags().StringVar(&modelName, "model", defaultModel(), "Agent model name override")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "API key (overrides environment and config)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable ANSI color output")

	// Register subcommands
	rootCmd.AddCommand(run.NewCommand())
	rootCmd.AddCommand(profile.NewCommand())
	rootCmd.AddCommand(ask.NewCommand())
	rootCmd.AddCommand(preview.NewCommand())
	rootCmd.AddCommand(dict.NewCommand())
	rootCmd.AddCommand(cmdwatch.NewCommand())
	rootCmd.AddCommand(cmdshell.NewCommand())
	rootCmd.AddCommand(history.NewCommand())
	rootCmd.AddCommand(cmdconfig.NewCommand())
	rootCmd.AddCommand(doctor.NewCommand())
	rootCmd.AddCommand(completion.NewCommand(rootCmd))
	rootCmd.AddCommand(version.NewCommand())

	return rootCmd
}

// Execute runs the root command and handles any returned errors.
func Execute() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func defaultProvider() string {
	if p := os.Getenv("SHEETAGENT_PROVIDER"); p != "" {
		return p
	}
	return "openai"
}

func defaultModel() string {
	return os.Getenv("SHEETAGENT_MODEL")
}
