package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/tutorly/internal/diagnosis"
	"github.com/abhisek/tutorly/internal/render"
)

var weakCmd = &cobra.Command{
	Use:   "weak <student>",
	Short: "Show subjects where answers were not helpful",
	Long: "By default every subject with at least one not-helpful answer is listed\n" +
		"together with those exchanges. --threshold switches to the teacher view:\n" +
		"per-subject counts, flagging subjects whose not-helpful share exceeds --ratio.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		grade, _ := cmd.Flags().GetString("grade")
		threshold, _ := cmd.Flags().GetBool("threshold")
		ratio, _ := cmd.Flags().GetFloat64("ratio")
		if ratio < 0 || ratio >= 1 {
			return fmt.Errorf("--ratio must be in [0, 1), got %v", ratio)
		}

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer closeApp(a)

		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		if threshold {
			analyzer := a.Analyzer.WithRatio(ratio)
			stats, weak, err := analyzer.ThresholdWeakTopics(ctx, args[0], grade)
			if err != nil {
				return fmt.Errorf("analyze: %w", err)
			}
			return render.SubjectStats(out, args[0], stats, weak, analyzer.Ratio())
		}

		wt, err := a.Analyzer.StudentWeakTopics(ctx, args[0], grade)
		if err != nil {
			return fmt.Errorf("analyze: %w", err)
		}
		return render.WeakTopics(out, args[0], wt)
	},
}

func init() {
	weakCmd.Flags().StringP("grade", "g", "", "Only this grade (default all grades)")
	weakCmd.Flags().Bool("threshold", false, "Use the ratio view instead of any-negative")
	weakCmd.Flags().Float64("ratio", diagnosis.DefaultWeakRatio, "Not-helpful share above which a subject is weak")
}
