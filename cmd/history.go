package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/tutorly/internal/interactions"
	"github.com/abhisek/tutorly/internal/render"
)

var historyCmd = &cobra.Command{
	Use:   "history <student>",
	Short: "Show a student's recent questions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		grade, _ := cmd.Flags().GetString("grade")
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer closeApp(a)

		ctx := cmd.Context()
		var items []interactions.Interaction
		if cmd.Flags().Changed("grade") {
			items, err = a.Interactions.Recent(ctx, args[0], grade, limit)
		} else {
			items, err = a.Interactions.Latest(ctx, args[0], limit)
		}
		if err != nil {
			return fmt.Errorf("load history: %w", err)
		}
		return render.History(cmd.OutOrStdout(), args[0], items)
	},
}

func init() {
	historyCmd.Flags().StringP("grade", "g", "", "Only this grade (default all grades)")
	historyCmd.Flags().IntP("limit", "n", interactions.DefaultRecentLimit, "Number of interactions to show")
}
