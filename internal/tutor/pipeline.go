package tutor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/abhisek/tutorly/internal/gamification"
	"github.com/abhisek/tutorly/internal/interactions"
	"github.com/abhisek/tutorly/internal/logger"
	"github.com/abhisek/tutorly/internal/mastery"
	"github.com/abhisek/tutorly/internal/studentlock"
)

const (
	DefaultXPPerExchange   = 10
	DefaultConflictRetries = 3
)

// ExchangeResult is what one tutoring exchange produced. Recorded is
// false when the engine failed and a fallback answer was returned without
// touching storage.
type ExchangeResult struct {
	InteractionID int64                `json:"interaction_id,omitempty"`
	Answer        Answer               `json:"answer"`
	Progress      *mastery.Record      `json:"progress,omitempty"`
	Gamification  gamification.Summary `json:"gamification"`
	Recorded      bool                 `json:"recorded"`
}

// Deps are the collaborators of a Pipeline.
type Deps struct {
	Engine       AnswerEngine
	Interactions *interactions.Store
	Tracker      *mastery.Tracker
	Gamification *gamification.Engine
	// Locker serializes writes per student; defaults to an in-process lock.
	Locker studentlock.Locker
	Log    *logger.Logger
}

// Pipeline runs the exchange flow: answer the question, then under the
// student's lock log the interaction, update progress and award XP.
type Pipeline struct {
	deps            Deps
	log             *logger.Logger
	XPPerExchange   int64
	ConflictRetries int
}

func NewPipeline(deps Deps) *Pipeline {
	if deps.Locker == nil {
		deps.Locker = studentlock.NewLocal()
	}
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	return &Pipeline{
		deps:            deps,
		log:             log.With("component", "pipeline"),
		XPPerExchange:   DefaultXPPerExchange,
		ConflictRetries: DefaultConflictRetries,
	}
}

// Exchange answers q and records it. Engine failures yield a fallback
// answer and no writes; storage failures are returned as errors.
func (p *Pipeline) Exchange(ctx context.Context, q Question) (*ExchangeResult, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}
	// Names are stored as given; only a blank one falls back to Anonymous.
	if strings.TrimSpace(q.Student) == "" {
		q.Student = AnonymousStudent
	}

	history, err := p.deps.Tracker.History(ctx, q.Student, q.Subject)
	if err != nil {
		p.log.Error("load progress history failed", "student", q.Student, "error", err)
		return nil, fmt.Errorf("load progress: %w", err)
	}
	q.Pattern = mastery.Analyze(history)

	ans, err := p.deps.Engine.Ask(ctx, q)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, ErrInvalidQuestion) {
			return nil, err
		}
		p.log.Error("answer engine failed", "student", q.Student, "subject", q.Subject, "error", err)
		return &ExchangeResult{Answer: *FallbackAnswer(q.Student)}, nil
	}

	unlock, err := p.deps.Locker.Lock(ctx, q.Student)
	if err != nil {
		return nil, fmt.Errorf("lock student: %w", err)
	}
	defer unlock()

	id, err := p.deps.Interactions.Log(ctx, interactions.LogRequest{
		Student:   q.Student,
		Grade:     q.Grade,
		Subject:   q.Subject,
		Question:  q.Text,
		Answer:    ans.Text,
		Resources: ans.Resources,
	})
	if err != nil {
		p.log.Error("log interaction failed", "student", q.Student, "error", err)
		return nil, fmt.Errorf("log interaction: %w", err)
	}

	progress, err := p.deps.Tracker.Update(ctx, mastery.Update{
		Student:    q.Student,
		Subject:    q.Subject,
		Topic:      mastery.DefaultTopic,
		Difficulty: mastery.DefaultDifficulty,
		Mastery:    q.Pattern.SeedMastery(),
		Style:      q.Pattern.LearningStyle,
	})
	if err != nil {
		p.log.Error("update progress failed", "student", q.Student, "interaction_id", id, "error", err)
		return nil, fmt.Errorf("update progress: %w", err)
	}

	state, err := p.award(ctx, q.Student, p.XPPerExchange)
	if err != nil {
		p.log.Error("update gamification failed", "student", q.Student, "interaction_id", id, "error", err)
		return nil, fmt.Errorf("update gamification: %w", err)
	}

	return &ExchangeResult{
		InteractionID: id,
		Answer:        *ans,
		Progress:      progress,
		Gamification:  state.Summary(),
		Recorded:      true,
	}, nil
}

// Touch records a zero-XP activity so the streak and daily counter reflect
// a visit, then returns the summary.
func (p *Pipeline) Touch(ctx context.Context, student string) (gamification.Summary, error) {
	unlock, err := p.deps.Locker.Lock(ctx, student)
	if err != nil {
		return gamification.Summary{}, fmt.Errorf("lock student: %w", err)
	}
	defer unlock()

	state, err := p.award(ctx, student, 0)
	if err != nil {
		return gamification.Summary{}, err
	}
	return state.Summary(), nil
}

// award applies an XP update, retrying only on version conflicts. The
// student lock makes conflicts rare; they still happen when another
// process writes the same row.
func (p *Pipeline) award(ctx context.Context, student string, xp int64) (gamification.State, error) {
	for attempt := 0; ; attempt++ {
		state, err := p.deps.Gamification.Update(ctx, student, xp)
		if !errors.Is(err, gamification.ErrConflict) || attempt >= p.ConflictRetries {
			return state, err
		}
		p.log.Info("retrying gamification update after conflict", "student", student, "attempt", attempt+1)
	}
}
