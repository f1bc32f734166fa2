package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/tutorly/internal/gamification"
	"github.com/abhisek/tutorly/internal/render"
)

var progressCmd = &cobra.Command{
	Use:   "progress <student>",
	Short: "Show a student's mastery per subject and topic",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		subject, _ := cmd.Flags().GetString("subject")

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer closeApp(a)

		records, err := a.Tracker.History(cmd.Context(), args[0], subject)
		if err != nil {
			return fmt.Errorf("load progress: %w", err)
		}
		return render.Progress(cmd.OutOrStdout(), args[0], records)
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats <student>",
	Short: "Show XP, streak and badges",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		touch, _ := cmd.Flags().GetBool("touch")

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer closeApp(a)

		var sum gamification.Summary
		if touch {
			sum, err = a.Pipeline.Touch(cmd.Context(), args[0])
		} else {
			sum, err = a.Gamification.Get(cmd.Context(), args[0])
		}
		if err != nil {
			return fmt.Errorf("load stats: %w", err)
		}
		return render.Gamification(cmd.OutOrStdout(), args[0], sum)
	},
}

func init() {
	progressCmd.Flags().String("subject", "", "Only this subject (default all subjects)")
	statsCmd.Flags().Bool("touch", false, "Count this visit as activity for the streak")
}
