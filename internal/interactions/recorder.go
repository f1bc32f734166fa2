package interactions

import (
	"context"
	"strings"

	"github.com/abhisek/tutorly/internal/logger"
)

// Recorder sets the feedback label on an existing interaction.
type Recorder struct {
	repo Repo
	log  *logger.Logger
}

func NewRecorder(repo Repo, log *logger.Logger) *Recorder {
	if log == nil {
		log = logger.Nop()
	}
	return &Recorder{repo: repo, log: log.With("component", "feedback")}
}

// SetFeedback overwrites the label and comment of interaction id in one
// statement, so readers see either the old pair or the new one. An empty
// comment clears any previous comment. Returns ErrNotFound for a missing id.
func (r *Recorder) SetFeedback(ctx context.Context, id int64, fb Feedback, comment string) error {
	if !fb.Valid() {
		return ErrInvalidFeedback
	}
	var c *string
	if trimmed := strings.TrimSpace(comment); trimmed != "" {
		c = &trimmed
	}
	if err := r.repo.SetFeedback(ctx, id, fb.Int(), c); err != nil {
		return err
	}
	r.log.Debug("feedback recorded", "interaction_id", id, "feedback", fb.String())
	return nil
}
