package mastery

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/tutorly/internal/store"
)

func newTestTracker(t *testing.T) *Tracker {
	t.Helper()
	st, err := store.Open("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return NewTracker(st.Progress())
}

func TestParseLearningStyle(t *testing.T) {
	tests := []struct {
		in   string
		want LearningStyle
	}{
		{"visual", StyleVisual},
		{"Auditory", StyleAuditory},
		{" kinesthetic ", StyleKinesthetic},
		{"reading", StyleReading},
		{"", StyleVisual},
		{"telepathic", StyleVisual},
	}
	for _, tt := range tests {
		if got := ParseLearningStyle(tt.in); got != tt.want {
			t.Errorf("ParseLearningStyle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLearningStyle_Instruction(t *testing.T) {
	for _, s := range AllStyles() {
		if s.Instruction() == "" {
			t.Errorf("%s has no instruction", s)
		}
	}
	if got := LearningStyle("other").Instruction(); got != "Use visual metaphors" {
		t.Errorf("fallback instruction = %q", got)
	}
}

func TestAnalyze_NewStudent(t *testing.T) {
	p := Analyze(nil)
	if !p.IsNew {
		t.Error("IsNew = false, want true")
	}
	if p.LearningStyle != StyleVisual {
		t.Errorf("LearningStyle = %q, want visual", p.LearningStyle)
	}
	if p.Approach() != "friendly intro, simple steps" {
		t.Errorf("Approach() = %q", p.Approach())
	}
	if p.SeedMastery() != DefaultMastery {
		t.Errorf("SeedMastery() = %v, want %v", p.SeedMastery(), DefaultMastery)
	}
}

func TestAnalyze_Approach(t *testing.T) {
	tests := []struct {
		masteries []float64
		want      string
	}{
		{[]float64{0.5}, "step-by-step, scaffolded guidance"},
		{[]float64{0.6}, "balanced explanation"},
		{[]float64{0.8}, "balanced explanation"},
		{[]float64{0.9, 0.85}, "advanced challenge with deeper concepts"},
		{[]float64{0.9, 0.1}, "step-by-step, scaffolded guidance"},
	}
	for _, tt := range tests {
		var hist []Record
		for _, m := range tt.masteries {
			hist = append(hist, Record{Mastery: m, TotalSessions: 2, LearningStyle: StyleReading})
		}
		p := Analyze(hist)
		if got := p.Approach(); got != tt.want {
			t.Errorf("Approach(%v) = %q, want %q", tt.masteries, got, tt.want)
		}
		if p.LearningStyle != StyleReading {
			t.Errorf("LearningStyle = %q, want reading", p.LearningStyle)
		}
		if p.TotalSessions != 2*len(tt.masteries) {
			t.Errorf("TotalSessions = %d, want %d", p.TotalSessions, 2*len(tt.masteries))
		}
	}
}

func TestTracker_UpsertTwice(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()
	tr.now = func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) }

	_, err := tr.Update(ctx, Update{
		Student: "Ana", Subject: "Math", Topic: "fractions",
		Difficulty: 3, Mastery: 0.4, StruggleAreas: "denominators", Style: StyleVisual,
	})
	require.NoError(t, err)

	later := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return later }
	rec, err := tr.Update(ctx, Update{
		Student: "Ana", Subject: "Math", Topic: "fractions",
		Difficulty: 7, Mastery: 0.9, StruggleAreas: "", Style: StyleKinesthetic,
	})
	require.NoError(t, err)

	hist, err := tr.History(ctx, "Ana", "Math")
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, 2, hist[0].TotalSessions)
	assert.Equal(t, 7, hist[0].Difficulty)
	assert.InDelta(t, 0.9, hist[0].Mastery, 1e-9)
	assert.Equal(t, "", hist[0].StruggleAreas)
	assert.Equal(t, StyleKinesthetic, hist[0].LearningStyle)
	assert.True(t, hist[0].LastSession.Equal(later))
	assert.Equal(t, hist[0], *rec)
}

func TestTracker_Defaults(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()

	rec, err := tr.Update(ctx, Update{Student: "Ana", Subject: "Math", Style: "unknown"})
	require.NoError(t, err)
	assert.Equal(t, DefaultTopic, rec.Topic)
	assert.Equal(t, StyleVisual, rec.LearningStyle)

	_, err = tr.Update(ctx, Update{Subject: "Math"})
	assert.ErrorIs(t, err, ErrMissingKey)
}

func TestTracker_HistoryEmpty(t *testing.T) {
	tr := newTestTracker(t)
	hist, err := tr.History(context.Background(), "Nobody", "Math")
	require.NoError(t, err)
	assert.Empty(t, hist)
}
