// Command boardwiz checks board profiles and generates the board package's
// build-time profile constants from them.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "boardwiz",
	Short:        "Board configuration wizard",
	Long:         "Validate board profiles and generate the constants the board package compiles against.",
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(checkCmd, genCmd, listCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
