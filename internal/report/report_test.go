package report

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/tutorly/internal/diagnosis"
	"github.com/abhisek/tutorly/internal/gamification"
	"github.com/abhisek/tutorly/internal/interactions"
	"github.com/abhisek/tutorly/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

var now = time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

type seed struct {
	grade    string
	subject  string
	age      time.Duration
	feedback int
}

func seedLog(t *testing.T, s *store.Store, student string, rows []seed) {
	t.Helper()
	ctx := context.Background()
	for i, r := range rows {
		id, err := s.Interactions().Append(ctx, store.InteractionData{
			Student:   student,
			Grade:     r.grade,
			Subject:   r.subject,
			Question:  "q",
			Answer:    "a",
			CreatedAt: now.Add(-r.age).Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
		if r.feedback != 0 {
			require.NoError(t, s.Interactions().SetFeedback(ctx, id, r.feedback, nil))
		}
	}
}

func newService(s *store.Store, game *gamification.Engine) *Service {
	ix := interactions.NewStore(s.Interactions(), nil)
	return NewService(ix, diagnosis.NewAnalyzer(ix), game)
}

func TestWeekly(t *testing.T) {
	s := openTestStore(t)
	day := 24 * time.Hour
	seedLog(t, s, "alice", []seed{
		{"Grade 6", "Math", 10 * day, -1}, // outside the window
		{"Grade 6", "Math", 3 * day, 1},
		{"Grade 6", "Science", 2 * day, -1},
		{"Grade 6", "Math", day, -1},
		{"Grade 7", "Math", day, 0},
	})

	w, err := newService(s, nil).WeeklyAt(context.Background(), "alice", "Grade 6", now)
	require.NoError(t, err)
	assert.Equal(t, []WeeklyRow{
		{Subject: "Math", Questions: 2, Helpful: 1, NotHelpful: 1},
		{Subject: "Science", Questions: 1, Helpful: 0, NotHelpful: 1},
	}, w.Rows)
	assert.Equal(t, 3, w.Total())
	assert.Equal(t, now.Add(-WeeklyWindow), w.From)

	all, err := newService(s, nil).WeeklyAt(context.Background(), "alice", "", now)
	require.NoError(t, err)
	assert.Equal(t, 4, all.Total())
}

func TestWeekly_Empty(t *testing.T) {
	s := openTestStore(t)
	w, err := newService(s, nil).WeeklyAt(context.Background(), "nobody", "", now)
	require.NoError(t, err)
	assert.NotNil(t, w.Rows)
	assert.Empty(t, w.Rows)
	assert.Equal(t, 0, w.Total())
}

func TestDashboard(t *testing.T) {
	s := openTestStore(t)
	hour := time.Hour
	seedLog(t, s, "bob", []seed{
		{"Grade 5", "Math", 6 * hour, 1},
		{"Grade 5", "Math", 5 * hour, 1},
		{"Grade 5", "Math", 4 * hour, -1},
		{"Grade 5", "Reading", 3 * hour, -1},
		{"Grade 5", "Reading", 2 * hour, 0},
		{"Grade 5", "Art", hour, 0},
		{"Grade 5", "Art", 0, 0},
	})

	game := gamification.NewEngine(s.Gamification())
	_, err := game.Update(context.Background(), "bob", 30, "first_question")
	require.NoError(t, err)

	d, err := newService(s, game).Dashboard(context.Background(), "bob", "Grade 5")
	require.NoError(t, err)

	require.Len(t, d.Subjects, 3)
	assert.Equal(t, "Math", d.Subjects[0].Subject)
	assert.Equal(t, FeedbackDistribution{Helpful: 2, NotHelpful: 2, Unset: 3}, d.Feedback)
	// Math 1/3 > 0.3, Reading 1/2 > 0.3, Art 0/2.
	assert.Equal(t, []string{"Math", "Reading"}, d.WeakSubjects)
	assert.Equal(t, diagnosis.DefaultWeakRatio, d.WeakRatio)
	require.Len(t, d.Recent, DashboardRecentSize)
	assert.Equal(t, "Art", d.Recent[0].Subject)
	assert.Equal(t, int64(30), d.Gamification.XP)
}

func TestDashboard_AllGrades(t *testing.T) {
	s := openTestStore(t)
	seedLog(t, s, "cy", []seed{
		{"Grade 5", "Math", 2 * time.Hour, 0},
		{"Grade 6", "Math", time.Hour, -1},
	})

	d, err := newService(s, nil).Dashboard(context.Background(), "cy", "")
	require.NoError(t, err)
	require.Len(t, d.Recent, 2)
	assert.Equal(t, "Grade 6", d.Recent[0].Grade)
	assert.Equal(t, []string{"Math"}, d.WeakSubjects)
	assert.Equal(t, []string{}, d.Gamification.Badges)
}

func TestReports_RequireStudent(t *testing.T) {
	s := openTestStore(t)
	seedLog(t, s, "alice", []seed{{"Grade 6", "Math", time.Hour, -1}})
	svc := newService(s, nil)
	ctx := context.Background()

	_, err := svc.WeeklyAt(ctx, "", "", now)
	assert.ErrorIs(t, err, interactions.ErrMissingStudent)
	_, err = svc.Dashboard(ctx, "", "")
	assert.ErrorIs(t, err, interactions.ErrMissingStudent)
}
