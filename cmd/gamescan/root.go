package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for gamescan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gamescan",
		Short: "Import installed games into a local library",
		Long: `Gamescan scans desktop game launchers for installed games and imports
them into a local SQLite library with cover art and metadata.

Supported sources: Steam libraries, XDG desktop entries, and
hand-maintained YAML catalogs. Sources are scanned concurrently and
duplicates across sources are imported once.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewImportCmd())
	cmd.AddCommand(NewListCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
