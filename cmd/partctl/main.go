package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// NewRootCommand builds the partctl command tree
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "partctl",
		Short: "Inspect and edit content item JSON files",
		Long: `partctl reads and writes content item documents on disk.

Parts are addressed by name. weld only attaches a part that is absent,
apply replaces it, alter merges top-level fields into it.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(NewNewCommand())
	rootCmd.AddCommand(NewShowCommand())
	rootCmd.AddCommand(NewPartsCommand())
	rootCmd.AddCommand(NewGetCommand())
	rootCmd.AddCommand(NewWeldCommand())
	rootCmd.AddCommand(NewApplyCommand())
	rootCmd.AddCommand(NewAlterCommand())
	rootCmd.AddCommand(NewRemoveCommand())

	return rootCmd
}
