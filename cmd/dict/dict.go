// Package dict provides inspection of data dictionary artifacts.
package dict

import (
	"github.com/spf13/cobra"

	"github.com/klytics/sheetagent/internal/artifacts"
	"github.com/klytics/sheetagent/internal/output"
	"github.com/klytics/sheetagent/internal/prompt"
)

// NewCommand creates the "dict" command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dict [data_dictionary.json]",
		Short: "Validate and summarize a data dictionary artifact",
		Long:  "Parses a data_dictionary.json produced by 'run' or 'profile', validates its structure, and prints a per-sheet summary.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonFlag, _ := cmd.Flags().GetBool("json")

			path := prompt.DictionaryFilename
			if len(args) > 0 {
				path = args[0]
			}

			d, err := artifacts.LoadDictionary(path)
			if err != nil {
				return err
			}

			w := output.NewWriter()
			if jsonFlag {
				return w.WriteJSON(d)
			}
			return w.WriteText(d.Summary())
		},
	}
	return cmd
}
