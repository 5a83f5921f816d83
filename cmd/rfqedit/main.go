// Rfqedit is a terminal editor for one RFQ record and its tabbed line
// table.
//
// It talks to the RFQ service over HTTP. Fields and line cells are written
// back when an inline editor is left, and edit mode is toggled with "e".
//
// Usage:
//
//	rfqedit [command] [flags]
//
// Running without arguments opens the interactive view when stdout is a
// terminal, and prints the record otherwise.
// See 'rfqedit --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/muurk/rfqedit/internal/logging"
	"github.com/muurk/rfqedit/internal/version"
)

func main() {
	err := rootCmd.Execute()
	logging.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "rfqedit",
	Short: "RFQ record and line table editor",
	Long: `A terminal editor for one RFQ record and its Scope Order Lines Table.

Record fields are laid out in sections, lines are grouped in named tabs.
Press "e" to toggle edit mode; changes are saved when an editor is left.

If no command is specified and stdout is a terminal, the interactive view
opens. Otherwise the record is printed as with 'rfqedit show'.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			return runTUI(cmd, args)
		}
		return runShow(cmd, args)
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "rfqedit %s\n", version.Full())
	},
}
