package gamification

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/abhisek/tutorly/internal/logger"
	"github.com/abhisek/tutorly/internal/store"
)

var (
	// ErrConflict means another writer updated the student's state between
	// our read and write. Nothing was written; the caller may retry.
	ErrConflict = store.ErrConflict

	ErrNegativeXP     = errors.New("gamification: xp delta must not be negative")
	ErrMissingStudent = errors.New("gamification: student is required")
)

// Repo is the storage the engine needs.
type Repo interface {
	Get(ctx context.Context, student string) (*store.GamificationRecord, error)
	Insert(ctx context.Context, rec store.GamificationRecord) error
	CompareAndSwap(ctx context.Context, rec store.GamificationRecord, expected int64) error
}

// Engine applies activity to per-student gamification state.
//
// Each Update is a read-modify-write guarded by the record's version: the
// write only lands if nobody else wrote since the read. Conflicts are
// returned, not retried.
type Engine struct {
	repo       Repo
	log        *logger.Logger
	now        func() time.Time
	loc        *time.Location
	milestones []Milestone
}

type Option func(*Engine)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLocation sets the time zone that decides calendar days.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// WithMilestones enables automatic milestone badges.
func WithMilestones(ms []Milestone) Option {
	return func(e *Engine) { e.milestones = ms }
}

func WithLogger(l *logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

func NewEngine(repo Repo, opts ...Option) *Engine {
	e := &Engine{
		repo: repo,
		log:  logger.Nop(),
		now:  time.Now,
		loc:  time.Local,
	}
	for _, o := range opts {
		o(e)
	}
	e.log = e.log.With("component", "gamification")
	return e
}

// Location reports the calendar time zone in use.
func (e *Engine) Location() *time.Location { return e.loc }

// Update records one activity worth xpDelta (zero is allowed) and awards
// badges. It returns the new state, ErrConflict if a concurrent writer won,
// or a storage error.
func (e *Engine) Update(ctx context.Context, student string, xpDelta int64, badges ...string) (State, error) {
	if strings.TrimSpace(student) == "" {
		return State{}, ErrMissingStudent
	}
	if xpDelta < 0 {
		return State{}, ErrNegativeXP
	}

	rec, err := e.repo.Get(ctx, student)
	if err != nil {
		return State{}, err
	}

	var prev *State
	if rec != nil {
		p := e.decode(rec)
		prev = &p
	}

	now := e.now()
	next := Transition(prev, Input{Now: now, XPDelta: xpDelta, Badges: badges}, e.loc)
	next.Student = student
	next.Badges = mergeBadges(next.Badges, e.reached(prev, next))

	out := store.GamificationRecord{
		Student:           student,
		XP:                next.XP,
		Streak:            next.Streak,
		Badges:            next.Badges,
		LastActivity:      store.FormatTime(now),
		DailyInteractions: next.DailyInteractions,
	}
	if rec == nil {
		err = e.repo.Insert(ctx, out)
	} else {
		err = e.repo.CompareAndSwap(ctx, out, rec.Version)
	}
	if errors.Is(err, store.ErrConflict) {
		e.log.Info("gamification update conflict", "student", student)
		return State{}, ErrConflict
	}
	if err != nil {
		return State{}, err
	}
	return next, nil
}

// Get returns the student's summary, or zero values for an unknown student.
// It never creates a record.
func (e *Engine) Get(ctx context.Context, student string) (Summary, error) {
	st, err := e.State(ctx, student)
	if err != nil {
		return Summary{}, err
	}
	return st.Summary(), nil
}

// State returns the full stored state; the zero State for unknown students.
func (e *Engine) State(ctx context.Context, student string) (State, error) {
	rec, err := e.repo.Get(ctx, student)
	if err != nil {
		return State{}, err
	}
	if rec == nil {
		return State{Student: student, Badges: []string{}}, nil
	}
	return e.decode(rec), nil
}

// decode converts a stored record. An unreadable last_activity is logged
// and comes back as the zero time.
func (e *Engine) decode(rec *store.GamificationRecord) State {
	st := State{
		Student:           rec.Student,
		XP:                rec.XP,
		Streak:            rec.Streak,
		Badges:            rec.Badges,
		DailyInteractions: rec.DailyInteractions,
	}
	if st.Badges == nil {
		st.Badges = []string{}
	}
	if rec.LastActivity == "" {
		e.log.Warn("missing last_activity, restarting streak", "student", rec.Student)
		return st
	}
	t, err := store.ParseTime(rec.LastActivity)
	if err != nil {
		e.log.Warn("malformed last_activity, restarting streak", "student", rec.Student, "value", rec.LastActivity, "error", err)
		return st
	}
	st.LastActivity = t
	return st
}

func (e *Engine) reached(prev *State, next State) []string {
	var out []string
	for _, m := range e.milestones {
		if m.Reached != nil && m.Reached(prev, next) {
			out = append(out, m.ID)
		}
	}
	return out
}
