package mastery

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/abhisek/tutorly/internal/store"
)

const (
	// DefaultTopic is recorded when the caller has no finer topic than the subject.
	DefaultTopic = "current_topic"

	DefaultDifficulty = 5

	// DefaultMastery seeds the first record of a student with no history.
	DefaultMastery = 0.7
)

var ErrMissingKey = errors.New("mastery: student, subject and topic are required")

// Repo is the storage the tracker needs.
type Repo interface {
	Upsert(ctx context.Context, d store.ProgressData) (*store.ProgressRecord, error)
	List(ctx context.Context, student, subject string) ([]store.ProgressRecord, error)
}

// Update is one observation of a student's mastery of a topic.
type Update struct {
	Student       string
	Subject       string
	Topic         string
	Difficulty    int
	Mastery       float64
	StruggleAreas string
	Style         LearningStyle
}

// Record is a student's standing on one (subject, topic).
type Record struct {
	Student       string        `json:"student"`
	Subject       string        `json:"subject"`
	Topic         string        `json:"topic"`
	Difficulty    int           `json:"difficulty"`
	Mastery       float64       `json:"mastery"`
	StruggleAreas string        `json:"struggle_areas"`
	LearningStyle LearningStyle `json:"learning_style"`
	LastSession   time.Time     `json:"last_session"`
	TotalSessions int           `json:"total_sessions"`
}

// Tracker keeps one record per (student, subject, topic).
type Tracker struct {
	repo Repo
	now  func() time.Time
}

func NewTracker(repo Repo) *Tracker {
	return &Tracker{repo: repo, now: time.Now}
}

// Update inserts the record with one session, or overwrites its fields and
// counts another session. Mastery is stored as given, without clamping.
func (t *Tracker) Update(ctx context.Context, u Update) (*Record, error) {
	if strings.TrimSpace(u.Student) == "" || strings.TrimSpace(u.Subject) == "" {
		return nil, ErrMissingKey
	}
	if u.Topic == "" {
		u.Topic = DefaultTopic
	}
	style := ParseLearningStyle(string(u.Style))
	rec, err := t.repo.Upsert(ctx, store.ProgressData{
		Student:       u.Student,
		Subject:       u.Subject,
		Topic:         u.Topic,
		Difficulty:    u.Difficulty,
		Mastery:       u.Mastery,
		StruggleAreas: u.StruggleAreas,
		LearningStyle: string(style),
		At:            t.now(),
	})
	if err != nil {
		return nil, err
	}
	out := fromStore(*rec)
	return &out, nil
}

// History returns the student's records for subject, most recent first.
// An empty subject returns every subject.
func (t *Tracker) History(ctx context.Context, student, subject string) ([]Record, error) {
	recs, err := t.repo.List(ctx, student, subject)
	if err != nil {
		return nil, err
	}
	out := make([]Record, len(recs))
	for i, r := range recs {
		out[i] = fromStore(r)
	}
	return out, nil
}

func fromStore(r store.ProgressRecord) Record {
	return Record{
		Student:       r.Student,
		Subject:       r.Subject,
		Topic:         r.Topic,
		Difficulty:    r.Difficulty,
		Mastery:       r.Mastery,
		StruggleAreas: r.StruggleAreas,
		LearningStyle: ParseLearningStyle(r.LearningStyle),
		LastSession:   r.LastSession,
		TotalSessions: r.TotalSessions,
	}
}
