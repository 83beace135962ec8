// Package completion provides shell completion generation commands.
package completion

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewCommand returns the completion command.
func NewCommand(rootCmd *cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completions",
		Long: `Generate shell completion scripts for sheetagent.

Install instructions:
  Bash:       sheetagent completion bash > /etc/bash_completion.d/sheetagent
              echo 'source <(sheetagent completion bash)' >> ~/.bashrc
  Zsh:        sheetagent completion zsh > ~/.zsh/completions/_sheetagent
  Fish:       sheetagent completion fish > ~/.config/fish/completions/sheetagent.fish
  PowerShell: sheetagent completion powershell >> $PROFILE`,
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		Args:      cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return rootCmd.GenBashCompletion(os.Stdout)
			case "zsh":
				return rootCmd.GenZshCompletion(os.Stdout)
			case "fish":
				return rootCmd.GenFishCompletion(os.Stdout, true)
			case "powershell":
				return rootCmd.GenPowerShellCompletionWithDesc(os.Stdout)
			default:
				return fmt.Errorf("unsupported shell: %s (supported: bash, zsh, fish, powershell)", args[0])
			}
		},
	}
	return cmd
}
