package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cli-senpei/Lerni-sub000/internal/adaptive"
)

func newClassifyCmd() *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "classify [game...]",
		Short: "Show the category each game type maps to",
		RunE: func(cmd *cobra.Command, args []string) error {
			games := args
			if list {
				games = adaptive.KnownGames()
			}
			if len(games) == 0 {
				return fmt.Errorf("no games given (use --list to show all known games)")
			}
			for _, g := range games {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", g, adaptive.ClassifyGame(g))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "List every known game type")
	return cmd
}
