// Package config provides CLI commands for configuration management.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/sheetagent/internal/config"
	"github.com/klytics/sheetagent/internal/output"
)

// NewCommand returns the config command group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage sheetagent configuration",
	}

	cmd.AddCommand(newInitCommand())
	cmd.AddCommand(newShowCommand())
	cmd.AddCommand(newPathCommand())
	cmd.AddCommand(newValidateCommand())

	return cmd
}

func newInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a starter config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.WriteStarter()
			if err != nil {
				return err
			}
			output.Success("Wrote %s", path)
			return nil
		},
	}
}

func newShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonFlag, _ := cmd.Flags().GetBool("json")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			w := output.NewWriter()
			if jsonFlag {
				return w.WriteJSON(redacted(cfg))
			}

			var sb strings.Builder
			fmt.Fprintf(&sb, "provider:          %s\n", cfg.Provider)
			fmt.Fprintf(&sb, "model:             %s\n", orDefault(cfg.Model, "(provider default)"))
			fmt.Fprintf(&sb, "api_keys.openai:   %s\n", mask(cfg.APIKeys.OpenAI))
			fmt.Fprintf(&sb, "api_keys.anthropic: %s\n", mask(cfg.APIKeys.Anthropic))
			fmt.Fprintf(&sb, "run.output_dir:    %s\n", cfg.Run.OutputDir)
			fmt.Fprintf(&sb, "run.poll_interval: %ds\n", cfg.Run.PollIntervalSec)
			fmt.Fprintf(&sb, "run.timeout:       %ds\n", cfg.Run.TimeoutSec)
			fmt.Fprintf(&sb, "history.enabled:   %v\n", cfg.History.Enabled)
			fmt.Fprintf(&sb, "history.path:      %s\n", cfg.History.Path)
			return w.WriteText(sb.String())
		},
	}
}

func newPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(filepath.Join(config.Dir(), "config.yaml"))
		},
	}
}

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration for problems",
		RunE: func(cmd *cobra.Command, args []string) error {
			issues := config.Validate()
			if len(issues) == 0 {
				output.Success("Configuration looks good")
				return nil
			}

			yellow := color.New(color.FgYellow).SprintFunc()
			red := color.New(color.FgRed).SprintFunc()
			errCount := 0
			for _, issue := range issues {
				icon := yellow("!")
				if issue.Severity == "error" {
					icon = red("✗")
					errCount++
				}
				fmt.Printf("  %s %s: %s\n", icon, issue.Key, issue.Message)
			}
			if errCount > 0 {
				return fmt.Errorf("%d configuration error(s)", errCount)
			}
			return nil
		},
	}
}

// redacted returns a copy of the config safe for JSON output.
func redacted(cfg *config.Config) *config.Config {
	out := *cfg
	out.APIKeys.OpenAI = mask(cfg.APIKeys.OpenAI)
	out.APIKeys.Anthropic = mask(cfg.APIKeys.Anthropic)
	return &out
}

func mask(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "…" + key[len(key)-4:]
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
