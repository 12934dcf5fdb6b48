package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ludokit/gamescan/internal/config"
	"github.com/ludokit/gamescan/internal/database"
	"github.com/ludokit/gamescan/internal/log"
	"github.com/ludokit/gamescan/internal/model"
)

// NewListCmd creates the list command.
func NewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the games in the library",
		Long: `List prints the games currently in the library, ordered by name.

By default only imported games are shown. Use --all to include games
that were excluded by pattern or removed from the library.

Examples:
  # List imported games
  gamescan list

  # Include excluded and removed games
  gamescan list --all

  # Machine-readable output
  gamescan list --json`,
		RunE: runListCmd,
	}

	cmd.Flags().BoolP("all", "a", false,
		"Include excluded and removed games")
	cmd.Flags().BoolP("json", "j", false,
		"Output the library as JSON")

	return cmd
}

// runListCmd executes the list command.
func runListCmd(cmd *cobra.Command, _ []string) error {
	all, err := cmd.Flags().GetBool("all")
	if err != nil {
		return err
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	logger := log.NewLogger(os.Stderr, getVerboseFlag(cmd))
	slog.SetDefault(logger)

	db, err := database.Open(config.XDGDataDir(), database.Options{
		CreateIfNotExists: false,
		EnableWAL:         true,
	})
	if err != nil {
		return fmt.Errorf("no library found (run `gamescan import` first): %w", err)
	}
	defer db.Close()

	games, err := db.ListGames(cmd.Context())
	if err != nil {
		return err
	}

	if !all {
		imported := games[:0]
		for _, g := range games {
			if g.Imported() {
				imported = append(imported, g)
			}
		}
		games = imported
	}

	if asJSON {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(games)
	}

	return printGames(cmd, games, all)
}

// printGames renders the library as an aligned text table.
func printGames(cmd *cobra.Command, games []*model.Game, all bool) error {
	if len(games) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Library is empty.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	if all {
		fmt.Fprintln(w, "NAME\tSOURCE\tID\tSTATUS")
	} else {
		fmt.Fprintln(w, "NAME\tSOURCE\tID")
	}

	for _, g := range games {
		if all {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", g.Name, g.SourceID, g.ID, gameStatus(g))
		} else {
			fmt.Fprintf(w, "%s\t%s\t%s\n", g.Name, g.SourceID, g.ID)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	switch len(games) {
	case 1:
		fmt.Fprintln(cmd.OutOrStdout(), "\n1 game")
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "\n%d games\n", len(games))
	}
	return nil
}

// gameStatus describes a game's library state for the --all listing.
func gameStatus(g *model.Game) string {
	switch {
	case g.Removed:
		return "removed"
	case g.Excluded:
		return "excluded"
	default:
		return "imported"
	}
}
