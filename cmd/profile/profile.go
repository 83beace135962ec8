// Package profile provides the command that builds only the data dictionary.
package profile

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/klytics/sheetagent/internal/analysis"
	"github.com/klytics/sheetagent/internal/cmdutil"
	"github.com/klytics/sheetagent/internal/output"
	"github.com/klytics/sheetagent/internal/prompt"
)

// NewCommand creates the "profile" command.
func NewCommand() *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "profile <workbook.xlsx>",
		Short: "Profile a workbook and save its data dictionary",
		Long: `Runs only the profiling step: the agent inspects every sheet, infers
column types and missing-value rates, and saves a structured
data_dictionary.json artifact. No analysis plan, no question answering.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonFlag, _ := cmd.Flags().GetBool("json")

			runner, _, err := cmdutil.NewRunner(cmd, cmdutil.RunnerOpts{OutDir: outDir})
			if err != nil {
				return err
			}

			outcome, err := runner.Run(context.Background(), analysis.Request{
				Workbook:     args[0],
				Question:     "Profile this workbook and produce the data dictionary.",
				Instructions: prompt.ProfileOnly(),
				Command:      "profile",
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

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Directory for the data dictionary (default from config)")

	return cmd
}
