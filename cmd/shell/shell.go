// Package shell provides the interactive analysis REPL command.
package shell

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/klytics/sheetagent/internal/artifacts"
	"github.com/klytics/sheetagent/internal/cmdutil"
	"github.com/klytics/sheetagent/internal/shell"
	"github.com/klytics/sheetagent/internal/workbook"
)

// NewCommand creates the "shell" command.
func NewCommand() *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "shell <workbook.xlsx>",
		Short: "Interactive session: upload once, ask many questions",
		Long: `Starts a REPL bound to one workbook. The first question uploads the file
and starts an agent conversation; follow-up questions stay in the same
conversation so the agent keeps its context.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := workbook.Check(args[0]); err != nil {
				return err
			}

			client, cfg, err := cmdutil.NewClient(cmd, cmdutil.RunnerOpts{})
			if err != nil {
				return err
			}

			if outDir == "" {
				outDir = cfg.Run.OutputDir
			}

			session := shell.NewSession(client, args[0], artifacts.NewStore(outDir))
			return session.Start(context.Background())
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Directory for saved artifacts (default from config)")

	return cmd
}
