// Package preview provides a purely local look at a workbook.
package preview

import (
	"github.com/spf13/cobra"

	"github.com/klytics/sheetagent/internal/output"
	"github.com/klytics/sheetagent/internal/workbook"
)

// NewCommand creates the "preview" command.
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "preview <workbook.xlsx>",
		Short: "Show sheet names, dimensions, and head rows without uploading",
		Long:  "Opens the workbook locally and prints each sheet's name, size, and first rows. Nothing leaves your machine.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonFlag, _ := cmd.Flags().GetBool("json")

			p, err := workbook.Read(args[0])
			if err != nil {
				return err
			}

			w := output.NewWriter()
			if jsonFlag {
				return w.WriteJSON(p)
			}
			return w.WriteText(p.Text())
		},
	}
}
