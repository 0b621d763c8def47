package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cli-senpei/Lerni-sub000/internal/adaptive"
	"github.com/cli-senpei/Lerni-sub000/internal/store"
	"github.com/cli-senpei/Lerni-sub000/internal/ui/components"
	"github.com/cli-senpei/Lerni-sub000/internal/ui/theme"
)

func newStatsCmd(opts *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show the learner's estimator state and recent answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			id := a.session.LearnerID()
			total, err := a.backend.CountSamples(ctx, id)
			if err != nil {
				return err
			}
			recent, err := a.backend.RecentSamples(ctx, id, limit)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderStats(id, a.session.State(), total, recent))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Number of recent answers to show")
	return cmd
}

func renderStats(learnerID string, st adaptive.StateView, total int, recent []store.SampleRecord) string {
	var b strings.Builder
	row := func(label, value string) {
		b.WriteString(theme.Label.Render(label) + value + "\n")
	}

	b.WriteString(theme.Title.Render("Learner "+learnerID) + "\n\n")
	row("estimator", st.Variant)
	row("difficulty", components.Meter{Value: st.Difficulty, Max: adaptive.MaxDifficulty, Width: 20, Format: "%.2f"}.View()+
		fmt.Sprintf("  → %d", st.ExposedDifficulty()))
	row("avg reaction", fmt.Sprintf("%.0f ms", st.AverageReactionMs))
	if st.Variant == adaptive.VariantRules {
		row("accuracy", components.Meter{Value: st.CorrectRate(), Max: 1, Width: 20}.View()+
			fmt.Sprintf("  (last %d)", len(st.RecentCorrect)))
	}
	if st.Degraded {
		row("model", theme.Incorrect.Render("degraded, using fixed steps"))
	}
	row("answers", fmt.Sprint(total))

	if len(st.CategoryErrors) > 0 {
		b.WriteString("\n" + theme.Title.Render("Error memory") + "\n")
		for _, e := range st.CategoryErrors {
			row(e.Category, fmt.Sprintf("%+.1f", e.Score))
		}
	}

	if len(recent) > 0 {
		b.WriteString("\n" + theme.Title.Render("Recent answers") + "\n")
		for _, r := range recent {
			mark := theme.Correct.Render("✓")
			if !r.Correct {
				mark = theme.Incorrect.Render("✗")
			}
			b.WriteString(fmt.Sprintf("%s %-18s d%d  %5.0f ms  %s\n",
				mark, r.Category, r.Difficulty, r.ReactionMs,
				theme.Hint.Render(r.RecordedAt.Local().Format("Jan 2 15:04"))))
		}
	}

	return theme.Card.Render(strings.TrimRight(b.String(), "\n"))
}
