package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenClose(t *testing.T) {
	s := openTestStore(t)
	if s.Driver() == nil {
		t.Fatal("expected non-nil driver")
	}
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestOpen_FileReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tutorly.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.Interactions().Append(ctx, InteractionData{Student: "Ana", Grade: "5", Subject: "Math"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// Migration is idempotent and data survives.
	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	recs, err := s.Interactions().Recent(ctx, "Ana", "5", 10)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases,
		// so we skip journal_mode here.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestClosedStore_Unavailable(t *testing.T) {
	s, err := Open("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = s.Interactions().Append(context.Background(), InteractionData{Student: "Ana"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable), "err = %v, want ErrUnavailable", err)
}

func TestTimeRoundTrip(t *testing.T) {
	in := time.Date(2024, 3, 10, 23, 59, 58, 123456789, time.FixedZone("X", 3600))
	got, err := ParseTime(FormatTime(in))
	require.NoError(t, err)
	assert.True(t, got.Equal(in), "got %v, want %v", got, in)

	for _, s := range []string{"2024-03-10 12:00:00", "2024-03-10 12:00:00.5", "2024-03-10T12:00:00Z", "2024-03-10"} {
		_, err := ParseTime(s)
		assert.NoError(t, err, s)
	}
	_, err = ParseTime("yesterday-ish")
	assert.Error(t, err)
}

func TestFormatTime_SortsLexically(t *testing.T) {
	a := time.Date(2024, 1, 1, 9, 0, 0, 5, time.UTC)
	b := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	if !(FormatTime(a) < FormatTime(b)) {
		t.Errorf("FormatTime(%v) >= FormatTime(%v)", a, b)
	}
}

func TestInteractions_AppendAndRecent(t *testing.T) {
	s := openTestStore(t)
	repo := s.Interactions()
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	var ids []int64
	for i := 0; i < 5; i++ {
		id, err := repo.Append(ctx, InteractionData{
			Student: "Ana", Grade: "5", Subject: "Math",
			Question: "q", Answer: "a", CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	// Other student and other grade must not leak in.
	_, err := repo.Append(ctx, InteractionData{Student: "Ana", Grade: "6", Subject: "Math", CreatedAt: base.Add(time.Hour)})
	require.NoError(t, err)
	_, err = repo.Append(ctx, InteractionData{Student: "Ben", Grade: "5", Subject: "Math", CreatedAt: base.Add(time.Hour)})
	require.NoError(t, err)

	for i := 1; i < len(ids); i++ {
		assert.Greater(t, ids[i], ids[i-1], "ids must increase")
	}

	recs, err := repo.Recent(ctx, "Ana", "5", 3)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, []int64{ids[4], ids[3], ids[2]}, []int64{recs[0].ID, recs[1].ID, recs[2].ID})
	for _, r := range recs {
		assert.Equal(t, 0, r.Feedback)
		assert.Equal(t, "[]", r.Resources)
		assert.Equal(t, "Ana", r.Student)
		assert.Equal(t, "5", r.Grade)
	}
	assert.True(t, recs[0].CreatedAt.Equal(base.Add(4*time.Minute)))
}

func TestInteractions_RecentTieBreaksOnID(t *testing.T) {
	s := openTestStore(t)
	repo := s.Interactions()
	ctx := context.Background()
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	first, err := repo.Append(ctx, InteractionData{Student: "Ana", Grade: "5", CreatedAt: at})
	require.NoError(t, err)
	second, err := repo.Append(ctx, InteractionData{Student: "Ana", Grade: "5", CreatedAt: at})
	require.NoError(t, err)

	recs, err := repo.Recent(ctx, "Ana", "5", 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, second, recs[0].ID)
	assert.Equal(t, first, recs[1].ID)
}

func TestInteractions_SetFeedback(t *testing.T) {
	s := openTestStore(t)
	repo := s.Interactions()
	ctx := context.Background()

	id, err := repo.Append(ctx, InteractionData{Student: "Ana", Grade: "5", Subject: "Math"})
	require.NoError(t, err)

	comment := "confusing"
	require.NoError(t, repo.SetFeedback(ctx, id, -1, &comment))
	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, -1, got.Feedback)
	assert.Equal(t, "confusing", got.FeedbackComment)

	// Last write wins, including clearing the comment.
	require.NoError(t, repo.SetFeedback(ctx, id, 1, nil))
	got, err = repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Feedback)
	assert.Equal(t, "", got.FeedbackComment)

	// Same value again still finds the row.
	require.NoError(t, repo.SetFeedback(ctx, id, 1, nil))

	err = repo.SetFeedback(ctx, id+100, 1, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInteractions_GetMissing(t *testing.T) {
	s := openTestStore(t)
	got, err := s.Interactions().Get(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestInteractions_ListFilter(t *testing.T) {
	s := openTestStore(t)
	repo := s.Interactions()
	ctx := context.Background()
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	old, _ := repo.Append(ctx, InteractionData{Student: "Ana", Grade: "5", Subject: "Math", CreatedAt: now.AddDate(0, 0, -10)})
	m, _ := repo.Append(ctx, InteractionData{Student: "Ana", Grade: "5", Subject: "Math", CreatedAt: now.AddDate(0, 0, -1)})
	sc, _ := repo.Append(ctx, InteractionData{Student: "Ana", Grade: "6", Subject: "Science", CreatedAt: now})
	require.NoError(t, repo.SetFeedback(ctx, m, -1, nil))

	all, err := repo.List(ctx, InteractionFilter{Student: "Ana"})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{old, m, sc}, []int64{all[0].ID, all[1].ID, all[2].ID})

	recent, err := repo.List(ctx, InteractionFilter{Student: "Ana", Since: now.AddDate(0, 0, -7)})
	require.NoError(t, err)
	assert.Len(t, recent, 2)

	neg := -1
	negs, err := repo.List(ctx, InteractionFilter{Student: "Ana", Feedback: &neg})
	require.NoError(t, err)
	require.Len(t, negs, 1)
	assert.Equal(t, m, negs[0].ID)

	grade6, err := repo.List(ctx, InteractionFilter{Student: "Ana", Grade: "6"})
	require.NoError(t, err)
	require.Len(t, grade6, 1)
	assert.Equal(t, "Science", grade6[0].Subject)

	none, err := repo.List(ctx, InteractionFilter{Student: "Nobody"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestInteractions_SubjectCounts(t *testing.T) {
	s := openTestStore(t)
	repo := s.Interactions()
	ctx := context.Background()

	add := func(subject string, feedback int) {
		id, err := repo.Append(ctx, InteractionData{Student: "Ana", Grade: "5", Subject: subject})
		require.NoError(t, err)
		if feedback != 0 {
			require.NoError(t, repo.SetFeedback(ctx, id, feedback, nil))
		}
	}
	add("Science", 1)
	add("Math", -1)
	add("Math", -1)
	add("Math", 1)
	add("Science", 0)

	counts, err := repo.SubjectCounts(ctx, InteractionFilter{Student: "Ana", Grade: "5"})
	require.NoError(t, err)
	require.Len(t, counts, 2)

	assert.Equal(t, "Science", counts[0].Subject) // first seen
	assert.Equal(t, 2, counts[0].Total)
	assert.Equal(t, 1, counts[0].Helpful)
	assert.Equal(t, 0, counts[0].NotHelpful)

	assert.Equal(t, "Math", counts[1].Subject)
	assert.Equal(t, 3, counts[1].Total)
	assert.Equal(t, 1, counts[1].Helpful)
	assert.Equal(t, 2, counts[1].NotHelpful)
}

func TestInteractions_Students(t *testing.T) {
	s := openTestStore(t)
	repo := s.Interactions()
	ctx := context.Background()

	for _, d := range []InteractionData{
		{Student: "Cara", Grade: "4"},
		{Student: "Ana", Grade: "5"},
		{Student: "Ana", Grade: "5"},
		{Student: "Ana", Grade: "6"},
	} {
		_, err := repo.Append(ctx, d)
		require.NoError(t, err)
	}

	refs, err := repo.Students(ctx)
	require.NoError(t, err)
	assert.Equal(t, []StudentRef{
		{Student: "Ana", Grade: "5"},
		{Student: "Ana", Grade: "6"},
		{Student: "Cara", Grade: "4"},
	}, refs)
}

func TestProgress_Upsert(t *testing.T) {
	s := openTestStore(t)
	repo := s.Progress()
	ctx := context.Background()
	t1 := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	rec, err := repo.Upsert(ctx, ProgressData{
		Student: "Ana", Subject: "Math", Topic: "fractions",
		Difficulty: 3, Mastery: 0.5, StruggleAreas: "denominators", LearningStyle: "visual", At: t1,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, rec.TotalSessions)

	rec, err = repo.Upsert(ctx, ProgressData{
		Student: "Ana", Subject: "Math", Topic: "fractions",
		Difficulty: 6, Mastery: 1.4, StruggleAreas: "", LearningStyle: "auditory", At: t2,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, rec.TotalSessions)
	assert.Equal(t, 6, rec.Difficulty)
	assert.InDelta(t, 1.4, rec.Mastery, 1e-9) // not clamped
	assert.Equal(t, "", rec.StruggleAreas)
	assert.Equal(t, "auditory", rec.LearningStyle)
	assert.True(t, rec.LastSession.Equal(t2))

	list, err := repo.List(ctx, "Ana", "Math")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestProgress_ListOrder(t *testing.T) {
	s := openTestStore(t)
	repo := s.Progress()
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	for i, topic := range []string{"a", "b", "c"} {
		_, err := repo.Upsert(ctx, ProgressData{Student: "Ana", Subject: "Math", Topic: topic, At: base.Add(time.Duration(i) * time.Hour)})
		require.NoError(t, err)
	}
	// Touch "a" again so it becomes the most recent.
	_, err := repo.Upsert(ctx, ProgressData{Student: "Ana", Subject: "Math", Topic: "a", At: base.Add(5 * time.Hour)})
	require.NoError(t, err)
	_, err = repo.Upsert(ctx, ProgressData{Student: "Ana", Subject: "Science", Topic: "a", At: base})
	require.NoError(t, err)

	list, err := repo.List(ctx, "Ana", "Math")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"a", "c", "b"}, []string{list[0].Topic, list[1].Topic, list[2].Topic})

	all, err := repo.List(ctx, "Ana", "")
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestProgress_ConcurrentUpsertsCountEverySession(t *testing.T) {
	s := openTestStore(t)
	repo := s.Progress()
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Upsert(ctx, ProgressData{Student: "Ana", Subject: "Math", Topic: "t"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	list, err := repo.List(ctx, "Ana", "Math")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, n, list[0].TotalSessions)
}

func TestGamification_InsertAndCAS(t *testing.T) {
	s := openTestStore(t)
	repo := s.Gamification()
	ctx := context.Background()

	got, err := repo.Get(ctx, "Ana")
	require.NoError(t, err)
	assert.Nil(t, got)

	rec := GamificationRecord{Student: "Ana", XP: 10, Streak: 1, Badges: []string{"first_question"}, LastActivity: "2024-05-01 10:00:00.000000000", DailyInteractions: 1}
	require.NoError(t, repo.Insert(ctx, rec))
	assert.ErrorIs(t, repo.Insert(ctx, rec), ErrConflict)

	got, err = repo.Get(ctx, "Ana")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(1), got.Version)
	assert.Equal(t, []string{"first_question"}, got.Badges)

	next := *got
	next.XP = 20
	require.NoError(t, repo.CompareAndSwap(ctx, next, got.Version))
	// Stale version loses.
	assert.ErrorIs(t, repo.CompareAndSwap(ctx, next, got.Version), ErrConflict)

	got, err = repo.Get(ctx, "Ana")
	require.NoError(t, err)
	assert.Equal(t, int64(20), got.XP)
	assert.Equal(t, int64(2), got.Version)
}

func TestGamification_SetLastActivity(t *testing.T) {
	s := openTestStore(t)
	repo := s.Gamification()
	ctx := context.Background()

	assert.ErrorIs(t, repo.SetLastActivity(ctx, "Ana", "garbage"), ErrNotFound)

	require.NoError(t, repo.Insert(ctx, GamificationRecord{Student: "Ana", LastActivity: "x"}))
	require.NoError(t, repo.SetLastActivity(ctx, "Ana", "not-a-date"))
	got, err := repo.Get(ctx, "Ana")
	require.NoError(t, err)
	assert.Equal(t, "not-a-date", got.LastActivity)
	assert.Equal(t, int64(2), got.Version)
}

func TestEventRepo_AppendQueryUsage(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	require.NoError(t, repo.AppendLLMRequest(ctx, LLMRequestEventData{
		Provider: "mock", Model: "m1", Purpose: "tutor-answer", InputTokens: 10, OutputTokens: 5, LatencyMs: 100, Success: true,
	}))
	require.NoError(t, repo.AppendLLMRequest(ctx, LLMRequestEventData{
		Provider: "mock", Model: "m1", Purpose: "tutor-answer", InputTokens: 20, OutputTokens: 15, LatencyMs: 300, Success: false, ErrorMessage: "boom",
	}))
	require.NoError(t, repo.AppendLLMRequest(ctx, LLMRequestEventData{
		Provider: "mock", Model: "m2", Purpose: "other", InputTokens: 1, OutputTokens: 1, Success: true,
	}))

	events, err := repo.QueryLLMEvents(ctx, QueryOpts{Limit: 2})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "m2", events[0].Model) // newest first
	assert.False(t, events[1].Success)
	assert.Equal(t, "boom", events[1].ErrorMessage)

	filtered, err := repo.QueryLLMEvents(ctx, QueryOpts{Purpose: "tutor-answer"})
	require.NoError(t, err)
	assert.Len(t, filtered, 2)

	e, err := repo.GetLLMEvent(ctx, events[0].ID)
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "other", e.Purpose)

	missing, err := repo.GetLLMEvent(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	byPurpose, err := repo.LLMUsageByPurpose(ctx)
	require.NoError(t, err)
	require.Len(t, byPurpose, 2)
	assert.Equal(t, "other", byPurpose[0].Purpose)
	assert.Equal(t, "tutor-answer", byPurpose[1].Purpose)
	assert.Equal(t, 2, byPurpose[1].Calls)
	assert.Equal(t, 30, byPurpose[1].InputTokens)
	assert.Equal(t, int64(200), byPurpose[1].AvgLatencyMs)

	byModel, err := repo.LLMUsageByModel(ctx)
	require.NoError(t, err)
	require.Len(t, byModel, 2)
	assert.Equal(t, "m1", byModel[0].Model)
}
