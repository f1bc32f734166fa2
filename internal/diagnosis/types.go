package diagnosis

import "github.com/abhisek/tutorly/internal/interactions"

// DefaultWeakRatio is the share of not-helpful answers above which the
// threshold view flags a subject.
const DefaultWeakRatio = 0.3

// Example is a negatively rated exchange shown as evidence for a weak subject.
type Example struct {
	InteractionID int64                   `json:"interaction_id"`
	Question      string                  `json:"question"`
	Answer        string                  `json:"answer"`
	Resources     []interactions.Resource `json:"resources"`
}

// WeakTopics is the student-facing view: every subject with at least one
// not-helpful answer, plus the offending exchanges.
type WeakTopics struct {
	Subjects []string             `json:"subjects"`
	Details  map[string][]Example `json:"details"`
}

// SubjectStat counts rated interactions for one subject.
type SubjectStat struct {
	Subject    string `json:"subject"`
	Total      int    `json:"total"`
	Helpful    int    `json:"helpful"`
	NotHelpful int    `json:"not_helpful"`
}

// NegativeRatio is NotHelpful/Total, or 0 for an empty subject.
func (s SubjectStat) NegativeRatio() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.NotHelpful) / float64(s.Total)
}
