package diagnosis

import (
	"context"

	"github.com/abhisek/tutorly/internal/interactions"
	"github.com/abhisek/tutorly/internal/store"
)

// Source is the read side of the interaction log.
type Source interface {
	Negative(ctx context.Context, q interactions.Query) ([]interactions.Interaction, error)
	SubjectCounts(ctx context.Context, q interactions.Query) ([]store.SubjectCount, error)
}

// Analyzer derives weak subjects from feedback history. It never writes.
type Analyzer struct {
	src   Source
	ratio float64
}

// NewAnalyzer creates an Analyzer using DefaultWeakRatio for the threshold view.
func NewAnalyzer(src Source) *Analyzer {
	return &Analyzer{src: src, ratio: DefaultWeakRatio}
}

// WithRatio returns a copy of a that uses ratio for the threshold view.
func (a *Analyzer) WithRatio(ratio float64) *Analyzer {
	cp := *a
	cp.ratio = ratio
	return &cp
}

// Ratio reports the threshold in use.
func (a *Analyzer) Ratio() float64 { return a.ratio }

// StudentWeakTopics is the student view. An empty grade covers all grades.
func (a *Analyzer) StudentWeakTopics(ctx context.Context, student, grade string) (WeakTopics, error) {
	if student == "" {
		return WeakTopics{}, interactions.ErrMissingStudent
	}
	negs, err := a.src.Negative(ctx, interactions.Query{Student: student, Grade: grade})
	if err != nil {
		return WeakTopics{}, err
	}
	return ClassifyAnyNegative(negs), nil
}

// ThresholdWeakTopics is the teacher view: per-subject counts and the
// subjects whose not-helpful share exceeds the ratio.
func (a *Analyzer) ThresholdWeakTopics(ctx context.Context, student, grade string) ([]SubjectStat, []string, error) {
	if student == "" {
		return nil, nil, interactions.ErrMissingStudent
	}
	counts, err := a.src.SubjectCounts(ctx, interactions.Query{Student: student, Grade: grade})
	if err != nil {
		return nil, nil, err
	}
	stats := make([]SubjectStat, len(counts))
	for i, c := range counts {
		stats[i] = SubjectStat{Subject: c.Subject, Total: c.Total, Helpful: c.Helpful, NotHelpful: c.NotHelpful}
	}
	return stats, ClassifyByRatio(stats, a.ratio), nil
}
