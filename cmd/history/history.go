// Package history lists past agent runs from the local run log.
package history

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/sheetagent/internal/config"
	"github.com/klytics/sheetagent/internal/output"
	"github.com/klytics/sheetagent/internal/runlog"
)

// NewCommand creates the "history" command.
func NewCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past agent runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonFlag, _ := cmd.Flags().GetBool("json")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			entries, err := runlog.Tail(cfg.History.Path, limit)
			if err != nil {
				return fmt.Errorf("could not read run history: %w", err)
			}

			w := output.NewWriter()
			if jsonFlag {
				if entries == nil {
					entries = []runlog.Entry{}
				}
				return w.WriteJSON(entries)
			}

			if len(entries) == 0 {
				return w.WriteLn("No runs recorded yet.")
			}

			green := color.New(color.FgGreen).SprintFunc()
			red := color.New(color.FgRed).SprintFunc()

			for _, e := range entries {
				status := green("ok")
				if e.Status != "ok" {
					status = red("error")
				}
				line := fmt.Sprintf("%s  %-7s %-5s %s",
					e.Timestamp.Format(time.RFC3339), e.Command, status, e.Workbook)
				if e.Question != "" {
					line += fmt.Sprintf("  %q", truncate(e.Question, 48))
				}
				if len(e.Artifacts) > 0 {
					line += fmt.Sprintf("  → %s", strings.Join(e.Artifacts, ", "))
				}
				if err := w.WriteLn(line); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show")

	return cmd
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
