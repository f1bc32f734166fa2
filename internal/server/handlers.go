package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/tutorly/internal/diagnosis"
	"github.com/abhisek/tutorly/internal/interactions"
	"github.com/abhisek/tutorly/internal/session"
	"github.com/abhisek/tutorly/internal/tutor"
)

type exchangeRequest struct {
	Student  string `json:"student"`
	Grade    string `json:"grade"`
	Subject  string `json:"subject"`
	Question string `json:"question"`
}

type feedbackRequest struct {
	Value   *int   `json:"value"`
	Comment string `json:"comment"`
}

type thresholdView struct {
	Ratio    float64                 `json:"ratio"`
	Subjects []diagnosis.SubjectStat `json:"subjects"`
	Weak     []string                `json:"weak"`
}

// studentParam returns the :student path segment after checking that the
// caller may act for that student. Teachers and anonymous callers may read
// anyone; a named student only themselves.
func studentParam(c *gin.Context) (string, error) {
	student := c.Param("student")
	if strings.TrimSpace(student) == "" {
		return "", badRequest(errors.New("student is required"))
	}
	sc := session.From(c.Request.Context())
	if sc == nil || sc.IsTeacher() || sc.Student == "" || sc.Student == student {
		return student, nil
	}
	return "", forbidden(fmt.Errorf("not allowed to access %s", student))
}

func (s *Server) HealthCheck(c *gin.Context) {
	if s.deps.Health != nil {
		if err := s.deps.Health(c.Request.Context()); err != nil {
			_ = c.Error(err)
			c.String(http.StatusServiceUnavailable, "unavailable")
			return
		}
	}
	c.String(http.StatusOK, "ok")
}

// CreateExchange answers a question and records the exchange. The body's
// student falls back to the session's.
func (s *Server) CreateExchange(c *gin.Context) {
	var req exchangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, badRequest(fmt.Errorf("invalid body: %w", err)))
		return
	}
	if req.Student == "" {
		if sc := session.From(c.Request.Context()); sc != nil {
			req.Student = sc.Student
		}
	}
	res, err := s.deps.Pipeline.Exchange(c.Request.Context(), tutor.Question{
		Student: req.Student,
		Grade:   req.Grade,
		Subject: req.Subject,
		Text:    req.Question,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	status := http.StatusCreated
	if !res.Recorded {
		status = http.StatusOK
	}
	c.JSON(status, res)
}

// ListInteractions returns the newest interactions first. Without a grade
// every grade is included.
func (s *Server) ListInteractions(c *gin.Context) {
	student, err := studentParam(c)
	if err != nil {
		RespondError(c, err)
		return
	}
	limit := 0
	if v := c.Query("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil {
			RespondError(c, badRequest(fmt.Errorf("invalid limit %q", v)))
			return
		}
	}

	ctx := c.Request.Context()
	grade, byGrade := c.GetQuery("grade")
	var items []interactions.Interaction
	if byGrade {
		items, err = s.deps.Interactions.Recent(ctx, student, grade, limit)
	} else {
		items, err = s.deps.Interactions.Latest(ctx, student, limit)
	}
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"student": student, "interactions": items})
}

func (s *Server) SetFeedback(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		RespondError(c, badRequest(fmt.Errorf("invalid interaction id %q", c.Param("id"))))
		return
	}
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, badRequest(fmt.Errorf("invalid body: %w", err)))
		return
	}
	if req.Value == nil {
		RespondError(c, badRequest(errors.New("value is required")))
		return
	}
	fb, err := interactions.ParseFeedback(*req.Value)
	if err != nil {
		RespondError(c, err)
		return
	}
	if err := s.deps.Feedback.SetFeedback(c.Request.Context(), id, fb, req.Comment); err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"id": id, "feedback": fb})
}

func (s *Server) GetProgress(c *gin.Context) {
	student, err := studentParam(c)
	if err != nil {
		RespondError(c, err)
		return
	}
	records, err := s.deps.Tracker.History(c.Request.Context(), student, c.Query("subject"))
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"student": student, "progress": records})
}

// GetGamification returns XP, streak and badges. With touch=1 the visit
// counts as activity first.
func (s *Server) GetGamification(c *gin.Context) {
	student, err := studentParam(c)
	if err != nil {
		RespondError(c, err)
		return
	}
	ctx := c.Request.Context()
	if touch, _ := strconv.ParseBool(c.Query("touch")); touch {
		sum, err := s.deps.Pipeline.Touch(ctx, student)
		if err != nil {
			RespondError(c, err)
			return
		}
		RespondOK(c, sum)
		return
	}
	sum, err := s.deps.Gamification.Get(ctx, student)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, sum)
}

// GetWeakTopics returns the any-negative view, or the ratio view with
// view=ratio.
func (s *Server) GetWeakTopics(c *gin.Context) {
	student, err := studentParam(c)
	if err != nil {
		RespondError(c, err)
		return
	}
	ctx := c.Request.Context()
	grade := c.Query("grade")
	if c.Query("view") == "ratio" {
		stats, weak, err := s.deps.Analyzer.ThresholdWeakTopics(ctx, student, grade)
		if err != nil {
			RespondError(c, err)
			return
		}
		RespondOK(c, thresholdView{Ratio: s.deps.Analyzer.Ratio(), Subjects: stats, Weak: weak})
		return
	}
	wt, err := s.deps.Analyzer.StudentWeakTopics(ctx, student, grade)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, wt)
}

func (s *Server) ListStudents(c *gin.Context) {
	refs, err := s.deps.Interactions.Students(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	type student struct {
		Student string `json:"student"`
		Grade   string `json:"grade"`
	}
	out := make([]student, len(refs))
	for i, r := range refs {
		out[i] = student{Student: r.Student, Grade: r.Grade}
	}
	RespondOK(c, gin.H{"students": out})
}

func (s *Server) GetDashboard(c *gin.Context) {
	student, err := studentParam(c)
	if err != nil {
		RespondError(c, err)
		return
	}
	d, err := s.deps.Reports.Dashboard(c.Request.Context(), student, c.Query("grade"))
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, d)
}

func (s *Server) GetWeekly(c *gin.Context) {
	student, err := studentParam(c)
	if err != nil {
		RespondError(c, err)
		return
	}
	w, err := s.deps.Reports.Weekly(c.Request.Context(), student, c.Query("grade"))
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, w)
}
