package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cli-senpei/Lerni-sub000/internal/adaptive"
)

func newRecordCmd(opts *rootOptions) *cobra.Command {
	var (
		game       string
		category   string
		difficulty int
		correct    bool
		reaction   float64
	)

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record one answered question",
		Example: "  lerni record --game letter-jump --difficulty 3 --correct --reaction 850\n" +
			"  lerni record --category rhyming --difficulty 2 --reaction 2400",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if game == "" && category == "" {
				return fmt.Errorf("one of --game or --category is required")
			}
			if category == "" {
				category = adaptive.ClassifyGame(game)
			}

			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			a.session.RecordPerformance(cmd.Context(), adaptive.Sample{
				Category:   category,
				Difficulty: difficulty,
				Correct:    correct,
				ReactionMs: reaction,
			})

			p := a.session.GetRecommendation(adaptive.Query{RecentCorrect: correct, ReactionMs: reaction})
			return printPrediction(cmd.OutOrStdout(), p, false)
		},
	}

	cmd.Flags().StringVar(&game, "game", "", "Game type identifier (category is derived from it)")
	cmd.Flags().StringVar(&category, "category", "", "Category, overriding the one derived from --game")
	cmd.Flags().IntVar(&difficulty, "difficulty", 3, "Difficulty level the question was posed at (1-5)")
	cmd.Flags().BoolVar(&correct, "correct", false, "The answer was correct")
	cmd.Flags().Float64Var(&reaction, "reaction", 2000, "Reaction time in milliseconds")
	return cmd
}
