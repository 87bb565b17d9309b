package controllers

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// isInteractive reports whether prompts can be shown: --yes was not given and
// stdin is a terminal.
func isInteractive(cmd *cobra.Command) bool {
	if yes, _ := cmd.Flags().GetBool("yes"); yes {
		return false
	}
	return term.IsTerminal(int(os.Stdin.Fd()))
}
