// Package watch provides unattended analysis of arriving workbooks.
package watch

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/klytics/sheetagent/internal/analysis"
	"github.com/klytics/sheetagent/internal/cmdutil"
	"github.com/klytics/sheetagent/internal/prompt"
	"github.com/klytics/sheetagent/internal/watch"
)

// NewCommand creates the "watch" command.
func NewCommand() *cobra.Command {
	var (
		outDir    string
		recursive bool
		debounce  int
	)

	cmd := &cobra.Command{
		Use:   "watch <dir> [dir...]",
		Short: "Watch directories and analyze workbooks as they arrive",
		Long: `Monitors the given directories for new or modified spreadsheets and runs
the full agent analysis on each one. Artifacts land in the output
directory. Stop with Ctrl+C.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, cfg, err := cmdutil.NewRunner(cmd, cmdutil.RunnerOpts{OutDir: outDir, Quiet: true})
			if err != nil {
				return err
			}

			if debounce <= 0 {
				debounce = cfg.Watch.DebounceMs
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			handler := func(path string) error {
				_, err := runner.Run(ctx, analysis.Request{
					Workbook:     path,
					Question:     prompt.WatchQuestion(path),
					Instructions: prompt.Analyst(),
					Command:      "watch",
				})
				return err
			}

			w, err := watch.New(watch.Config{
				Directories: args,
				Recursive:   recursive,
				Debounce:    debounce,
			}, handler)
			if err != nil {
				return err
			}

			return w.Start(ctx)
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Directory for downloaded artifacts (default from config)")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Watch subdirectories too")
	cmd.Flags().IntVar(&debounce, "debounce", 0, "Milliseconds to wait for a file to settle (default from config)")

	return cmd
}
