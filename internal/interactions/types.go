package interactions

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/abhisek/tutorly/internal/store"
)

var (
	// ErrNotFound is returned when feedback targets a missing interaction.
	ErrNotFound = store.ErrNotFound

	// ErrInvalidFeedback is returned for labels outside {-1, 0, 1}.
	ErrInvalidFeedback = errors.New("interactions: feedback must be -1, 0 or 1")

	// ErrMissingStudent is returned by student-scoped reads given no student.
	ErrMissingStudent = errors.New("interactions: student is required")
)

// Feedback is the tri-state label a student gives an answer.
type Feedback int

const (
	FeedbackNotHelpful Feedback = -1
	FeedbackUnset      Feedback = 0
	FeedbackHelpful    Feedback = 1
)

// ParseFeedback converts a stored or submitted integer into a Feedback.
func ParseFeedback(v int) (Feedback, error) {
	switch Feedback(v) {
	case FeedbackNotHelpful, FeedbackUnset, FeedbackHelpful:
		return Feedback(v), nil
	}
	return FeedbackUnset, fmt.Errorf("%w: got %d", ErrInvalidFeedback, v)
}

// Int returns the storage encoding.
func (f Feedback) Int() int { return int(f) }

func (f Feedback) String() string {
	switch f {
	case FeedbackHelpful:
		return "helpful"
	case FeedbackNotHelpful:
		return "not_helpful"
	case FeedbackUnset:
		return "unset"
	default:
		return fmt.Sprintf("Feedback(%d)", int(f))
	}
}

// Valid reports whether f is one of the three labels.
func (f Feedback) Valid() bool {
	_, err := ParseFeedback(int(f))
	return err == nil
}

// Resource is a study link attached to an answer.
type Resource struct {
	Title string `json:"title"`
	Link  string `json:"link"`
}

// Interaction is one question/answer exchange.
type Interaction struct {
	ID        int64      `json:"id"`
	Student   string     `json:"student"`
	Grade     string     `json:"grade"`
	Subject   string     `json:"subject"`
	Question  string     `json:"question"`
	Answer    string     `json:"answer"`
	Resources []Resource `json:"resources"`
	Feedback  Feedback   `json:"feedback"`
	Comment   string     `json:"comment,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// EncodeResources renders resources for storage.
func EncodeResources(rs []Resource) (string, error) {
	if len(rs) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(rs)
	if err != nil {
		return "", fmt.Errorf("encode resources: %w", err)
	}
	return string(b), nil
}

// DecodeResources parses a stored resource list. Empty input is an empty
// list.
func DecodeResources(s string) ([]Resource, error) {
	if s == "" {
		return []Resource{}, nil
	}
	var rs []Resource
	if err := json.Unmarshal([]byte(s), &rs); err != nil {
		return []Resource{}, fmt.Errorf("decode resources: %w", err)
	}
	if rs == nil {
		rs = []Resource{}
	}
	return rs, nil
}
