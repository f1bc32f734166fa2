package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/tutorly/internal/render"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Teacher and parent reports",
}

var reportWeeklyCmd = &cobra.Command{
	Use:   "weekly <student>",
	Short: "Questions and feedback per subject over the last seven days",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		grade, _ := cmd.Flags().GetString("grade")

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer closeApp(a)

		w, err := a.Reports.Weekly(cmd.Context(), args[0], grade)
		if err != nil {
			return fmt.Errorf("weekly report: %w", err)
		}
		return render.Weekly(cmd.OutOrStdout(), w)
	},
}

var reportDashboardCmd = &cobra.Command{
	Use:   "dashboard <student>",
	Short: "Activity, feedback, weak subjects and recent questions for one student",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		grade, _ := cmd.Flags().GetString("grade")

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer closeApp(a)

		d, err := a.Reports.Dashboard(cmd.Context(), args[0], grade)
		if err != nil {
			return fmt.Errorf("dashboard: %w", err)
		}
		return render.Dashboard(cmd.OutOrStdout(), d)
	},
}

var studentsCmd = &cobra.Command{
	Use:   "students",
	Short: "List every student and grade seen so far",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer closeApp(a)

		refs, err := a.Interactions.Students(cmd.Context())
		if err != nil {
			return fmt.Errorf("list students: %w", err)
		}
		return render.Students(cmd.OutOrStdout(), refs)
	},
}

func init() {
	for _, c := range []*cobra.Command{reportWeeklyCmd, reportDashboardCmd} {
		c.Flags().StringP("grade", "g", "", "Only this grade (default all grades)")
		reportCmd.AddCommand(c)
	}
}
