package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/tutorly/internal/render"
	"github.com/abhisek/tutorly/internal/tutor"
)

var askCmd = &cobra.Command{
	Use:   "ask <question...>",
	Short: "Ask the tutor a question",
	Example: `  tutorly ask --student ana --grade "Grade 5" --subject Math "How do I add fractions?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		student, _ := cmd.Flags().GetString("student")
		grade, _ := cmd.Flags().GetString("grade")
		subject, _ := cmd.Flags().GetString("subject")

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer closeApp(a)

		res, err := a.Pipeline.Exchange(cmd.Context(), tutor.Question{
			Student: student,
			Grade:   grade,
			Subject: subject,
			Text:    strings.Join(args, " "),
		})
		if err != nil {
			return fmt.Errorf("ask: %w", err)
		}
		return render.Exchange(cmd.OutOrStdout(), res)
	},
}

func init() {
	askCmd.Flags().StringP("student", "s", "", "Student name (default Anonymous)")
	askCmd.Flags().StringP("grade", "g", "", "Grade level, e.g. \"Grade 5\"")
	askCmd.Flags().String("subject", "", "Subject of the question")
	_ = askCmd.MarkFlagRequired("subject")
}
