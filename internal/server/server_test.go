package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/tutorly/internal/diagnosis"
	"github.com/abhisek/tutorly/internal/gamification"
	"github.com/abhisek/tutorly/internal/interactions"
	"github.com/abhisek/tutorly/internal/llm"
	"github.com/abhisek/tutorly/internal/mastery"
	"github.com/abhisek/tutorly/internal/report"
	"github.com/abhisek/tutorly/internal/store"
	"github.com/abhisek/tutorly/internal/tutor"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixture struct {
	mock   *llm.MockProvider
	router *gin.Engine
	deps   Deps
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s, err := store.Open("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	mock := llm.NewMockProvider()
	ix := interactions.NewStore(s.Interactions(), nil)
	tracker := mastery.NewTracker(s.Progress())
	game := gamification.NewEngine(s.Gamification(),
		gamification.WithLocation(time.UTC),
		gamification.WithMilestones(gamification.DefaultMilestones()))
	analyzer := diagnosis.NewAnalyzer(ix)

	deps := Deps{
		Pipeline: tutor.NewPipeline(tutor.Deps{
			Engine:       tutor.NewLLMEngine(mock, nil),
			Interactions: ix,
			Tracker:      tracker,
			Gamification: game,
		}),
		Interactions: ix,
		Feedback:     interactions.NewRecorder(s.Interactions(), nil),
		Tracker:      tracker,
		Gamification: game,
		Analyzer:     analyzer,
		Reports:      report.NewService(ix, analyzer, game),
		Health:       s.Ping,
	}
	return &fixture{mock: mock, router: New(deps, nil).Router(), deps: deps}
}

type request struct {
	method  string
	path    string
	body    any
	student string
	role    string
}

func (f *fixture) do(t *testing.T, r request) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if r.body != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(r.body))
	}
	req := httptest.NewRequest(r.method, r.path, &body)
	req.Header.Set("Content-Type", "application/json")
	if r.student != "" {
		req.Header.Set(HeaderStudent, r.student)
	}
	if r.role != "" {
		req.Header.Set(HeaderRole, r.role)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

type listResponse struct {
	Interactions []interactions.Interaction `json:"interactions"`
}

type progressResponse struct {
	Progress []mastery.Record `json:"progress"`
}

type studentsResponse struct {
	Students []struct {
		Student string `json:"student"`
		Grade   string `json:"grade"`
	} `json:"students"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func answer(text string) llm.MockResponse {
	return llm.MockJSON(map[string]any{
		"answer":    text,
		"hints":     []string{"Break it into steps"},
		"resources": []map[string]string{{"title": "Practice", "link": "https://example.org/practice"}},
	})
}

// ask runs one exchange for alice and returns the interaction id.
func (f *fixture) ask(t *testing.T, subject, question string) int64 {
	t.Helper()
	f.mock.AddResponse(answer("Here is how."))
	w := f.do(t, request{method: http.MethodPost, path: "/api/exchanges", body: map[string]string{
		"student": "alice", "grade": "Grade 5", "subject": subject, "question": question,
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[tutor.ExchangeResult](t, w).InteractionID
}

func TestHealthCheck(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, request{method: http.MethodGet, path: "/healthcheck"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))

	f.deps.Health = func(context.Context) error { return errors.New("db gone") }
	f.router = New(f.deps, nil).Router()
	w = f.do(t, request{method: http.MethodGet, path: "/healthcheck"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCreateExchange(t *testing.T) {
	f := newFixture(t)
	f.mock.AddResponse(answer("Plants make food from light."))

	w := f.do(t, request{method: http.MethodPost, path: "/api/exchanges", body: map[string]string{
		"student": "alice", "grade": "Grade 5", "subject": "Science", "question": "What is photosynthesis?",
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	res := decode[tutor.ExchangeResult](t, w)
	assert.True(t, res.Recorded)
	assert.NotZero(t, res.InteractionID)
	assert.Equal(t, "Plants make food from light.", res.Answer.Text)
	assert.Equal(t, int64(10), res.Gamification.XP)
	assert.Contains(t, res.Gamification.Badges, gamification.BadgeFirstQuestion)
}

func TestCreateExchange_StudentFromSession(t *testing.T) {
	f := newFixture(t)
	f.mock.AddResponse(answer("Yes."))

	w := f.do(t, request{method: http.MethodPost, path: "/api/exchanges", student: "carol", body: map[string]string{
		"grade": "Grade 4", "subject": "Math", "question": "Is 7 prime?",
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	sum, err := f.deps.Gamification.Get(context.Background(), "carol")
	require.NoError(t, err)
	assert.Equal(t, int64(10), sum.XP)
}

func TestCreateExchange_Errors(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, request{method: http.MethodPost, path: "/api/exchanges", body: map[string]string{"student": "alice", "subject": "Math"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := decode[ErrorEnvelope](t, w)
	assert.Equal(t, "invalid_request", env.Error.Code)

	f.mock.AddResponse(llm.MockResponse{Err: errors.New("provider down")})
	w = f.do(t, request{method: http.MethodPost, path: "/api/exchanges", body: map[string]string{
		"student": "alice", "grade": "Grade 5", "subject": "Math", "question": "2+2?",
	}})
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[tutor.ExchangeResult](t, w)
	assert.False(t, res.Recorded)
	assert.True(t, res.Answer.Fallback)
}

func TestListInteractions(t *testing.T) {
	f := newFixture(t)
	first := f.ask(t, "Math", "What is a fraction?")
	second := f.ask(t, "Science", "Why is the sky blue?")

	w := f.do(t, request{method: http.MethodGet, path: "/api/students/alice/interactions?grade=Grade%205&limit=1"})
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[listResponse](t, w)
	require.Len(t, got.Interactions, 1)
	assert.Equal(t, second, got.Interactions[0].ID)

	w = f.do(t, request{method: http.MethodGet, path: "/api/students/alice/interactions"})
	require.Equal(t, http.StatusOK, w.Code)
	got = decode[listResponse](t, w)
	require.Len(t, got.Interactions, 2)
	assert.Equal(t, []int64{second, first}, []int64{got.Interactions[0].ID, got.Interactions[1].ID})

	w = f.do(t, request{method: http.MethodGet, path: "/api/students/alice/interactions?grade=Grade%206"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[listResponse](t, w).Interactions)

	w = f.do(t, request{method: http.MethodGet, path: "/api/students/alice/interactions?limit=abc"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStudentCannotReadOthers(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, request{method: http.MethodGet, path: "/api/students/alice/progress", student: "bob"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(t, request{method: http.MethodGet, path: "/api/students/alice/progress", student: "bob", role: "teacher"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSetFeedback(t *testing.T) {
	f := newFixture(t)
	id := f.ask(t, "Math", "What is a fraction?")
	path := fmt.Sprintf("/api/interactions/%d/feedback", id)

	w := f.do(t, request{method: http.MethodPut, path: path, body: map[string]any{"value": -1, "comment": "confusing"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	got, err := f.deps.Interactions.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, interactions.FeedbackNotHelpful, got.Feedback)
	assert.Equal(t, "confusing", got.Comment)

	tests := []struct {
		name string
		path string
		body any
		want int
	}{
		{"missing interaction", "/api/interactions/999999/feedback", map[string]any{"value": 1}, http.StatusNotFound},
		{"bad id", "/api/interactions/abc/feedback", map[string]any{"value": 1}, http.StatusBadRequest},
		{"out of range", path, map[string]any{"value": 5}, http.StatusBadRequest},
		{"missing value", path, map[string]any{"comment": "x"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, request{method: http.MethodPut, path: tt.path, body: tt.body})
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestWeakTopics(t *testing.T) {
	f := newFixture(t)
	bad := f.ask(t, "Math", "Long division?")
	f.ask(t, "Math", "Short division?")
	f.ask(t, "Science", "What is a cell?")

	w := f.do(t, request{method: http.MethodPut, path: fmt.Sprintf("/api/interactions/%d/feedback", bad), body: map[string]any{"value": -1}})
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, request{method: http.MethodGet, path: "/api/students/alice/weak-topics"})
	require.Equal(t, http.StatusOK, w.Code)
	wt := decode[diagnosis.WeakTopics](t, w)
	assert.Equal(t, []string{"Math"}, wt.Subjects)
	require.Len(t, wt.Details["Math"], 1)
	assert.Equal(t, bad, wt.Details["Math"][0].InteractionID)

	w = f.do(t, request{method: http.MethodGet, path: "/api/students/alice/weak-topics?view=ratio"})
	require.Equal(t, http.StatusOK, w.Code)
	tv := decode[thresholdView](t, w)
	assert.Equal(t, diagnosis.DefaultWeakRatio, tv.Ratio)
	assert.Equal(t, []string{"Math"}, tv.Weak)
}

func TestProgressAndGamification(t *testing.T) {
	f := newFixture(t)
	f.ask(t, "Math", "What is a fraction?")

	w := f.do(t, request{method: http.MethodGet, path: "/api/students/alice/progress?subject=Math"})
	require.Equal(t, http.StatusOK, w.Code)
	progress := decode[progressResponse](t, w)
	require.Len(t, progress.Progress, 1)
	assert.Equal(t, mastery.DefaultTopic, progress.Progress[0].Topic)

	w = f.do(t, request{method: http.MethodGet, path: "/api/students/alice/gamification"})
	require.Equal(t, http.StatusOK, w.Code)
	sum := decode[gamification.Summary](t, w)
	assert.Equal(t, int64(10), sum.XP)
	assert.Equal(t, 1, sum.Streak)

	w = f.do(t, request{method: http.MethodGet, path: "/api/students/nobody/gamification"})
	require.Equal(t, http.StatusOK, w.Code)
	sum = decode[gamification.Summary](t, w)
	assert.Zero(t, sum.XP)
	assert.NotNil(t, sum.Badges)

	w = f.do(t, request{method: http.MethodGet, path: "/api/students/dora/gamification?touch=1"})
	require.Equal(t, http.StatusOK, w.Code)
	sum = decode[gamification.Summary](t, w)
	assert.Zero(t, sum.XP)
	assert.Equal(t, 1, sum.Streak)
}

func TestTeacherRoutes(t *testing.T) {
	f := newFixture(t)
	f.ask(t, "Math", "What is a fraction?")

	for _, path := range []string{
		"/api/teacher/students",
		"/api/teacher/students/alice/dashboard",
		"/api/teacher/students/alice/weekly",
	} {
		w := f.do(t, request{method: http.MethodGet, path: path, student: "alice"})
		assert.Equal(t, http.StatusForbidden, w.Code, path)
	}

	w := f.do(t, request{method: http.MethodGet, path: "/api/teacher/students", role: "teacher"})
	require.Equal(t, http.StatusOK, w.Code)
	students := decode[studentsResponse](t, w)
	require.Len(t, students.Students, 1)
	assert.Equal(t, "alice", students.Students[0].Student)
	assert.Equal(t, "Grade 5", students.Students[0].Grade)

	w = f.do(t, request{method: http.MethodGet, path: "/api/teacher/students/alice/dashboard?grade=Grade%205", role: "teacher"})
	require.Equal(t, http.StatusOK, w.Code)
	d := decode[report.Dashboard](t, w)
	assert.Equal(t, 1, d.Feedback.Unset)
	assert.Equal(t, int64(10), d.Gamification.XP)
	require.Len(t, d.Recent, 1)

	w = f.do(t, request{method: http.MethodGet, path: "/api/teacher/students/alice/weekly", role: "teacher"})
	require.Equal(t, http.StatusOK, w.Code)
	wk := decode[report.Weekly](t, w)
	assert.Equal(t, 1, wk.Total())
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("wrap: %w", store.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("wrap: %w", store.ErrConflict), http.StatusConflict},
		{interactions.ErrInvalidFeedback, http.StatusBadRequest},
		{interactions.ErrMissingStudent, http.StatusBadRequest},
		{tutor.ErrInvalidQuestion, http.StatusBadRequest},
		{store.ErrUnavailable, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
		{forbidden(errors.New("no")), http.StatusForbidden},
	}
	for _, tt := range tests {
		if got := classify(tt.err).status; got != tt.want {
			t.Errorf("classify(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
