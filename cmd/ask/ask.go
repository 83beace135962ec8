// Package ask provides the question-only analysis command.
package ask

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/klytics/sheetagent/internal/analysis"
	"github.com/klytics/sheetagent/internal/cmdutil"
	"github.com/klytics/sheetagent/internal/output"
	"github.com/klytics/sheetagent/internal/prompt"
)

// NewCommand creates the "ask" command.
func NewCommand() *cobra.Command {
	var (
		outDir   string
		dictPath string
	)

	cmd := &cobra.Command{
		Use:   "ask <workbook.xlsx> <question>",
		Short: "Ask one question about a workbook",
		Long: `Skips the full profiling pipeline and asks the agent a single question.
If a data_dictionary.json from an earlier 'profile' run is found (or passed
via --dict), it is attached so the agent does not re-profile the workbook.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonFlag, _ := cmd.Flags().GetBool("json")
			workbookPath, question := args[0], args[1]

			dictionary := loadDictionary(dictPath, workbookPath)

			runner, _, err := cmdutil.NewRunner(cmd, cmdutil.RunnerOpts{OutDir: outDir})
			if err != nil {
				return err
			}

			outcome, err := runner.Run(context.Background(), analysis.Request{
				Workbook:     workbookPath,
				Question:     prompt.Question(question),
				Instructions: prompt.AskOnly(dictionary),
				Command:      "ask",
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

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Directory for downloaded artifacts (default from config)")
	cmd.Flags().StringVar(&dictPath, "dict", "", fmt.Sprintf("Path to an existing %s", prompt.DictionaryFilename))

	return cmd
}

// loadDictionary returns the contents of a previously generated dictionary,
// or "" when none is available. Explicit paths win; otherwise look next to
// the workbook and in the working directory.
func loadDictionary(explicit, workbookPath string) string {
	candidates := []string{explicit}
	if explicit == "" {
		candidates = []string{
			filepath.Join(filepath.Dir(workbookPath), prompt.DictionaryFilename),
			prompt.DictionaryFilename,
		}
	}
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if data, err := os.ReadFile(c); err == nil {
			return string(data)
		}
	}
	return ""
}
