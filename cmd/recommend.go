package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cli-senpei/Lerni-sub000/internal/adaptive"
	"github.com/cli-senpei/Lerni-sub000/internal/ui/theme"
)

// predictionJSON is the machine-readable form printed with --json.
type predictionJSON struct {
	Difficulty int    `json:"difficulty"`
	Label      string `json:"label"`
	Focus      string `json:"focus"`
}

func newRecommendCmd(opts *rootOptions) *cobra.Command {
	var (
		recentCorrect bool
		reaction      float64
		asJSON        bool
	)

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Recommend difficulty and focus for the next question",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			p := a.session.GetRecommendation(adaptive.Query{RecentCorrect: recentCorrect, ReactionMs: reaction})
			return printPrediction(cmd.OutOrStdout(), p, asJSON)
		},
	}

	cmd.Flags().BoolVar(&recentCorrect, "recent-correct", false, "The previous answer was correct (online estimator)")
	cmd.Flags().Float64Var(&reaction, "reaction", adaptive.DefaultReactionMs, "Previous reaction time in ms (online estimator)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func printPrediction(w io.Writer, p adaptive.Prediction, asJSON bool) error {
	label := string(adaptive.DifficultyLabel(float64(p.Difficulty)))
	if asJSON {
		return json.NewEncoder(w).Encode(predictionJSON{
			Difficulty: p.Difficulty,
			Label:      label,
			Focus:      p.Focus,
		})
	}

	fmt.Fprintln(w, theme.Label.Render("difficulty")+
		theme.Value.Render(fmt.Sprint(p.Difficulty))+" "+
		theme.Band(label).Render("("+label+")"))
	fmt.Fprintln(w, theme.Label.Render("focus")+theme.Focus.Render(p.Focus))
	return nil
}
