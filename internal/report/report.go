// Package report builds the read-only summaries shown to teachers and
// parents.
package report

import (
	"context"
	"time"

	"github.com/abhisek/tutorly/internal/diagnosis"
	"github.com/abhisek/tutorly/internal/gamification"
	"github.com/abhisek/tutorly/internal/interactions"
)

const (
	WeeklyWindow        = 7 * 24 * time.Hour
	DashboardRecentSize = 5
)

// WeeklyRow is one subject's activity in the window.
type WeeklyRow struct {
	Subject    string `json:"subject"`
	Questions  int    `json:"questions"`
	Helpful    int    `json:"helpful"`
	NotHelpful int    `json:"not_helpful"`
}

// Weekly summarizes a student's last seven days. Rows is empty when the
// student asked nothing in the window.
type Weekly struct {
	Student string      `json:"student"`
	Grade   string      `json:"grade,omitempty"`
	From    time.Time   `json:"from"`
	To      time.Time   `json:"to"`
	Rows    []WeeklyRow `json:"rows"`
}

// Total is the number of questions in the window.
func (w Weekly) Total() int {
	n := 0
	for _, r := range w.Rows {
		n += r.Questions
	}
	return n
}

// FeedbackDistribution counts feedback labels.
type FeedbackDistribution struct {
	Helpful    int `json:"helpful"`
	NotHelpful int `json:"not_helpful"`
	Unset      int `json:"unset"`
}

// Dashboard is the teacher's view of one student.
type Dashboard struct {
	Student      string                     `json:"student"`
	Grade        string                     `json:"grade,omitempty"`
	Subjects     []diagnosis.SubjectStat    `json:"subjects"`
	Feedback     FeedbackDistribution       `json:"feedback"`
	WeakSubjects []string                   `json:"weak_subjects"`
	WeakRatio    float64                    `json:"weak_ratio"`
	Recent       []interactions.Interaction `json:"recent"`
	Gamification gamification.Summary       `json:"gamification"`
}

// Service assembles reports from the interaction log.
type Service struct {
	ix       *interactions.Store
	analyzer *diagnosis.Analyzer
	game     *gamification.Engine
	now      func() time.Time
}

// NewService wires the report sources. game may be nil, in which case
// dashboards carry an empty gamification summary.
func NewService(ix *interactions.Store, analyzer *diagnosis.Analyzer, game *gamification.Engine) *Service {
	return &Service{ix: ix, analyzer: analyzer, game: game, now: time.Now}
}

// Weekly counts questions and feedback per subject over the seven days
// ending now. An empty grade covers every grade.
func (s *Service) Weekly(ctx context.Context, student, grade string) (*Weekly, error) {
	return s.WeeklyAt(ctx, student, grade, s.now())
}

func (s *Service) WeeklyAt(ctx context.Context, student, grade string, now time.Time) (*Weekly, error) {
	if student == "" {
		return nil, interactions.ErrMissingStudent
	}
	from := now.Add(-WeeklyWindow)
	counts, err := s.ix.SubjectCounts(ctx, interactions.Query{Student: student, Grade: grade, Since: from})
	if err != nil {
		return nil, err
	}
	w := &Weekly{Student: student, Grade: grade, From: from, To: now, Rows: make([]WeeklyRow, 0, len(counts))}
	for _, c := range counts {
		w.Rows = append(w.Rows, WeeklyRow{
			Subject:    c.Subject,
			Questions:  c.Total,
			Helpful:    c.Helpful,
			NotHelpful: c.NotHelpful,
		})
	}
	return w, nil
}

// Dashboard gathers activity by subject, the feedback distribution,
// threshold weak subjects and the latest interactions.
func (s *Service) Dashboard(ctx context.Context, student, grade string) (*Dashboard, error) {
	if student == "" {
		return nil, interactions.ErrMissingStudent
	}
	stats, weak, err := s.analyzer.ThresholdWeakTopics(ctx, student, grade)
	if err != nil {
		return nil, err
	}
	recent, err := s.recent(ctx, student, grade)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		Student:      student,
		Grade:        grade,
		Subjects:     stats,
		WeakSubjects: weak,
		WeakRatio:    s.analyzer.Ratio(),
		Recent:       recent,
		Gamification: gamification.Summary{Badges: []string{}},
	}
	for _, st := range stats {
		d.Feedback.Helpful += st.Helpful
		d.Feedback.NotHelpful += st.NotHelpful
		d.Feedback.Unset += st.Total - st.Helpful - st.NotHelpful
	}
	if s.game != nil {
		if d.Gamification, err = s.game.Get(ctx, student); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// recent returns the latest interactions, newest first. Without a grade
// it spans every grade the student has used.
func (s *Service) recent(ctx context.Context, student, grade string) ([]interactions.Interaction, error) {
	if grade != "" {
		return s.ix.Recent(ctx, student, grade, DashboardRecentSize)
	}
	return s.ix.Latest(ctx, student, DashboardRecentSize)
}
