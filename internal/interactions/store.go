package interactions

import (
	"context"
	"time"

	"github.com/abhisek/tutorly/internal/logger"
	"github.com/abhisek/tutorly/internal/store"
)

const (
	DefaultRecentLimit = 10
	MaxRecentLimit     = 100
)

// Repo is the storage the interaction log needs.
type Repo interface {
	Append(ctx context.Context, data store.InteractionData) (int64, error)
	Recent(ctx context.Context, student, grade string, limit int) ([]store.InteractionRecord, error)
	List(ctx context.Context, f store.InteractionFilter) ([]store.InteractionRecord, error)
	Get(ctx context.Context, id int64) (*store.InteractionRecord, error)
	SetFeedback(ctx context.Context, id int64, value int, comment *string) error
	Students(ctx context.Context) ([]store.StudentRef, error)
	SubjectCounts(ctx context.Context, f store.InteractionFilter) ([]store.SubjectCount, error)
}

// LogRequest is a new exchange to record.
type LogRequest struct {
	Student   string
	Grade     string
	Subject   string
	Question  string
	Answer    string
	Resources []Resource
}

// Query selects one student's interactions. Student is required and
// matched exactly; empty Grade matches every grade.
type Query struct {
	Student string
	Grade   string
	Since   time.Time
}

// Store is the append-only interaction log.
type Store struct {
	repo Repo
	log  *logger.Logger
	now  func() time.Time
}

// NewStore wraps repo. A nil logger discards output.
func NewStore(repo Repo, log *logger.Logger) *Store {
	if log == nil {
		log = logger.Nop()
	}
	return &Store{repo: repo, log: log.With("component", "interactions"), now: time.Now}
}

// Log appends an interaction with feedback unset and returns its id.
func (s *Store) Log(ctx context.Context, req LogRequest) (int64, error) {
	res, err := EncodeResources(req.Resources)
	if err != nil {
		return 0, err
	}
	return s.repo.Append(ctx, store.InteractionData{
		Student:   req.Student,
		Grade:     req.Grade,
		Subject:   req.Subject,
		Question:  req.Question,
		Answer:    req.Answer,
		Resources: res,
		CreatedAt: s.now(),
	})
}

// Recent returns up to limit interactions for (student, grade), newest
// first. limit <= 0 means DefaultRecentLimit; it is capped at MaxRecentLimit.
func (s *Store) Recent(ctx context.Context, student, grade string, limit int) ([]Interaction, error) {
	switch {
	case limit <= 0:
		limit = DefaultRecentLimit
	case limit > MaxRecentLimit:
		limit = MaxRecentLimit
	}
	recs, err := s.repo.Recent(ctx, student, grade, limit)
	if err != nil {
		return nil, err
	}
	return s.convert(recs), nil
}

// List returns matching interactions, oldest first.
func (s *Store) List(ctx context.Context, q Query) ([]Interaction, error) {
	if q.Student == "" {
		return nil, ErrMissingStudent
	}
	recs, err := s.repo.List(ctx, store.InteractionFilter{Student: q.Student, Grade: q.Grade, Since: q.Since})
	if err != nil {
		return nil, err
	}
	return s.convert(recs), nil
}

// ForStudent returns every interaction of the student, oldest first. An
// empty grade covers all grades.
func (s *Store) ForStudent(ctx context.Context, student, grade string) ([]Interaction, error) {
	return s.List(ctx, Query{Student: student, Grade: grade})
}

// Latest returns up to limit interactions of the student across every
// grade, newest first. limit follows the same rules as Recent.
func (s *Store) Latest(ctx context.Context, student string, limit int) ([]Interaction, error) {
	switch {
	case limit <= 0:
		limit = DefaultRecentLimit
	case limit > MaxRecentLimit:
		limit = MaxRecentLimit
	}
	all, err := s.ForStudent(ctx, student, "")
	if err != nil {
		return nil, err
	}
	out := make([]Interaction, 0, min(limit, len(all)))
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

// Negative returns the interactions labelled not helpful, oldest first.
func (s *Store) Negative(ctx context.Context, q Query) ([]Interaction, error) {
	if q.Student == "" {
		return nil, ErrMissingStudent
	}
	neg := FeedbackNotHelpful.Int()
	recs, err := s.repo.List(ctx, store.InteractionFilter{Student: q.Student, Grade: q.Grade, Since: q.Since, Feedback: &neg})
	if err != nil {
		return nil, err
	}
	return s.convert(recs), nil
}

// Get returns one interaction, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id int64) (*Interaction, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrNotFound
	}
	out := s.convert([]store.InteractionRecord{*rec})
	return &out[0], nil
}

// Students lists (student, grade) pairs that have interactions.
func (s *Store) Students(ctx context.Context) ([]store.StudentRef, error) {
	return s.repo.Students(ctx)
}

// SubjectCounts aggregates feedback per subject for q.
func (s *Store) SubjectCounts(ctx context.Context, q Query) ([]store.SubjectCount, error) {
	if q.Student == "" {
		return nil, ErrMissingStudent
	}
	return s.repo.SubjectCounts(ctx, store.InteractionFilter{Student: q.Student, Grade: q.Grade, Since: q.Since})
}

func (s *Store) convert(recs []store.InteractionRecord) []Interaction {
	out := make([]Interaction, 0, len(recs))
	for _, r := range recs {
		resources, err := DecodeResources(r.Resources)
		if err != nil {
			s.log.Warn("malformed resources", "interaction_id", r.ID, "error", err)
		}
		fb, err := ParseFeedback(r.Feedback)
		if err != nil {
			s.log.Warn("unknown feedback value", "interaction_id", r.ID, "value", r.Feedback)
		}
		out = append(out, Interaction{
			ID:        r.ID,
			Student:   r.Student,
			Grade:     r.Grade,
			Subject:   r.Subject,
			Question:  r.Question,
			Answer:    r.Answer,
			Resources: resources,
			Feedback:  fb,
			Comment:   r.FeedbackComment,
			CreatedAt: r.CreatedAt,
		})
	}
	return out
}
