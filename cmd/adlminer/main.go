// Command adlminer mines a Git repository's history for architecture
// description language changes and emits training records.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "adlminer",
		Short: "Mine a git repository for ADL-diff training records",
	}

	root.AddCommand(mineCmd())

	// Flag parse errors are invalid arguments; cobra hands them to this
	// function for every subcommand.
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return invalidArgsError(err)
	})

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCodeOf(err))
	}
}
