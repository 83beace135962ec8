// Package run provides the primary sheetagent command: the full
// profile → plan → answer pipeline against a remote agent.
package run

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/klytics/sheetagent/internal/analysis"
	"github.com/klytics/sheetagent/internal/cmdutil"
	"github.com/klytics/sheetagent/internal/output"
	"github.com/klytics/sheetagent/internal/prompt"
)

// NewCommand creates the "run" command.
func NewCommand() *cobra.Command {
	var (
		question     string
		outDir       string
		pollInterval time.Duration
		timeout      time.Duration
		noArtifacts  bool
	)

	cmd := &cobra.Command{
		Use:   "run <workbook.xlsx>",
		Short: "Upload a workbook and run the full agent analysis",
		Long: `Uploads the workbook to the agent's code execution sandbox and asks it to:
profile every sheet, save a structured data_dictionary.json, draft an
analysis plan, and answer your question — charts included when they help.
Every file the agent produces is downloaded to the output directory.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonFlag, _ := cmd.Flags().GetBool("json")

			runner, _, err := cmdutil.NewRunner(cmd, cmdutil.RunnerOpts{
				OutDir:       outDir,
				PollInterval: pollInterval,
				Timeout:      timeout,
			})
			if err != nil {
				return err
			}

			outcome, err := runner.Run(context.Background(), analysis.Request{
				Workbook:      args[0],
				Question:      prompt.Question(question),
				Instructions:  prompt.Analyst(),
				SkipArtifacts: noArtifacts,
				Command:       "run",
			})
			if err != nil {
				return err
			}

			w := output.NewWriter()
			if jsonFlag {
				return w.WriteJSON(outcome)
			}

			if err := w.WriteLn(outcome.Text); err != nil {
				return err
			}
			for _, path := range outcome.SavedFiles {
				output.Success("Saved %s", path)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&question, "question", "q", "", fmt.Sprintf("Question guiding the analysis (default %q)", prompt.DefaultQuestion))
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Directory for downloaded artifacts (default from config)")
	cmd.Flags().DurationVar(&pollInterval, "poll-interval", 0, "Delay between run status checks")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Maximum time to wait for the agent run")
	cmd.Flags().BoolVar(&noArtifacts, "no-artifacts", false, "Print the answer but skip artifact downloads")

	return cmd
}
