// Package doctor provides the "sheetagent doctor" command for checking setup.
package doctor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/sheetagent/internal/config"
)

// Check represents a single health check result.
type Check struct {
	Name    string `json:"name"`
	Status  string `json:"status"` // "ok", "warning", "error"
	Message string `json:"message"`
}

// NewCommand creates the "doctor" command.
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check credentials, config, and environment",
		Long:  "Run diagnostic checks to verify sheetagent can reach an agent provider.",
		RunE: func(cmd *cobra.Command, args []string) error {
			checks := runChecks()

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(checks)
			}

			green := color.New(color.FgGreen).SprintFunc()
			yellow := color.New(color.FgYellow).SprintFunc()
			red := color.New(color.FgRed).SprintFunc()

			fmt.Println("sheetagent doctor")
			fmt.Println("=================")
			fmt.Println()

			okCount, warnCount, errCount := 0, 0, 0
			for _, c := range checks {
				var icon string
				switch c.Status {
				case "ok":
					icon = green("✓")
					okCount++
				case "warning":
					icon = yellow("!")
					warnCount++
				case "error":
					icon = red("✗")
					errCount++
				}
				fmt.Printf("  %s %s: %s\n", icon, c.Name, c.Message)
			}

			fmt.Println()
			fmt.Printf("  %d passed, %d warnings, %d errors\n", okCount, warnCount, errCount)

			if errCount > 0 {
				return fmt.Errorf("%d check(s) failed", errCount)
			}
			return nil
		},
	}
}

func runChecks() []Check {
	var checks []Check

	checks = append(checks, Check{
		Name:    "Go Runtime",
		Status:  "ok",
		Message: fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH),
	})

	dir := config.Dir()
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		checks = append(checks, Check{Name: "Config Directory", Status: "ok", Message: dir})
	} else {
		checks = append(checks, Check{
			Name:    "Config Directory",
			Status:  "warning",
			Message: fmt.Sprintf("%s not found — run 'sheetagent config init'", dir),
		})
	}

	configFile := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(configFile); err == nil {
		checks = append(checks, Check{Name: "Config File", Status: "ok", Message: configFile})
	} else {
		checks = append(checks, Check{
			Name:    "Config File",
			Status:  "warning",
			Message: "Not found — run 'sheetagent config init'",
		})
	}

	for _, issue := range config.Validate() {
		checks = append(checks, Check{Name: issue.Key, Status: issue.Severity, Message: issue.Message})
	}

	cwd, err := os.Getwd()
	if err == nil {
		probe := filepath.Join(cwd, ".sheetagent-doctor-probe")
		if f, err := os.Create(probe); err == nil {
			f.Close()
			os.Remove(probe)
			checks = append(checks, Check{Name: "Output Directory", Status: "ok", Message: cwd + " is writable"})
		} else {
			checks = append(checks, Check{Name: "Output Directory", Status: "error", Message: cwd + " is not writable"})
		}
	}

	return checks
}
