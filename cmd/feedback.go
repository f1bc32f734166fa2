package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/abhisek/tutorly/internal/interactions"
	"github.com/abhisek/tutorly/internal/render"
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback <interaction-id> <helpful|not-helpful|unset>",
	Short: "Rate an answer",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid ID %q: %w", args[0], err)
		}
		fb, err := parseFeedbackArg(args[1])
		if err != nil {
			return err
		}
		comment, _ := cmd.Flags().GetString("comment")

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer closeApp(a)

		if err := a.Feedback.SetFeedback(cmd.Context(), id, fb, comment); err != nil {
			if errors.Is(err, interactions.ErrNotFound) {
				return fmt.Errorf("interaction %d not found", id)
			}
			return fmt.Errorf("set feedback: %w", err)
		}
		_, err = lipgloss.Fprintln(cmd.OutOrStdout(), render.Good.Render(fmt.Sprintf("Marked #%d as %s.", id, fb)))
		return err
	},
}

// parseFeedbackArg accepts the label names and their numeric encodings.
func parseFeedbackArg(s string) (interactions.Feedback, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "helpful", "yes", "up":
		return interactions.FeedbackHelpful, nil
	case "not-helpful", "not_helpful", "no", "down":
		return interactions.FeedbackNotHelpful, nil
	case "unset", "clear":
		return interactions.FeedbackUnset, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return interactions.FeedbackUnset, fmt.Errorf("%w: got %q", interactions.ErrInvalidFeedback, s)
	}
	return interactions.ParseFeedback(n)
}

func init() {
	feedbackCmd.Flags().StringP("comment", "c", "", "Optional comment")
}
