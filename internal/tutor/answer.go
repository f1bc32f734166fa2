// Package tutor answers student questions and records each exchange.
package tutor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/abhisek/tutorly/internal/interactions"
	"github.com/abhisek/tutorly/internal/mastery"
)

const (
	MaxHints         = 5
	AnonymousStudent = "Anonymous"
)

var ErrInvalidQuestion = errors.New("tutor: subject and question are required")

// Question is what a student asked. Pattern is the student's learning
// history in the subject; the pipeline fills it before asking.
type Question struct {
	Student string          `json:"student"`
	Grade   string          `json:"grade"`
	Subject string          `json:"subject"`
	Text    string          `json:"question"`
	Pattern mastery.Pattern `json:"-"`
}

func (q Question) validate() error {
	if strings.TrimSpace(q.Subject) == "" || strings.TrimSpace(q.Text) == "" {
		return ErrInvalidQuestion
	}
	return nil
}

// Answer is the tutor's reply.
type Answer struct {
	Text      string                  `json:"answer"`
	Hints     []string                `json:"hints"`
	Resources []interactions.Resource `json:"resources"`
	// Fallback marks a canned reply given because the engine failed.
	Fallback bool `json:"fallback,omitempty"`
}

// AnswerEngine produces an answer for a question.
type AnswerEngine interface {
	Ask(ctx context.Context, q Question) (*Answer, error)
}

var (
	DefaultHints = []string{
		"Practice with more similar problems",
		"Ask if you need clarification on any step",
		"Try explaining the concept back in your own words",
	}
	FallbackHints = []string{
		"Check your internet connection",
		"Try rephrasing your question",
		"Contact your teacher if issues persist",
	}
)

var hintKeywords = []string{"try", "practice", "exercise", "next", "suggestion", "activity"}

// ExtractHints pulls suggestion-like lines out of free text: lines longer
// than ten characters mentioning a practice keyword, bullets stripped, at
// most MaxHints.
func ExtractHints(text string) []string {
	var hints []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) <= 10 || !containsAny(strings.ToLower(line), hintKeywords) {
			continue
		}
		line = strings.ReplaceAll(line, "- ", "")
		line = strings.ReplaceAll(line, "* ", "")
		hints = append(hints, line)
		if len(hints) == MaxHints {
			break
		}
	}
	return hints
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// DefaultResources are the links offered when the engine suggests none.
func DefaultResources(subject string) []interactions.Resource {
	return []interactions.Resource{
		{Title: subject + " Practice Problems", Link: "https://www.khanacademy.org"},
		{Title: subject + " Video Tutorials", Link: "https://www.youtube.com"},
	}
}

// FallbackAnswer is shown when no answer could be produced.
func FallbackAnswer(student string) *Answer {
	if student == "" {
		student = AnonymousStudent
	}
	return &Answer{
		Text:      fmt.Sprintf("Hi %s! 👋\n\nI ran into a technical issue answering that.\n\nPlease try again in a moment.", student),
		Hints:     append([]string(nil), FallbackHints...),
		Resources: []interactions.Resource{},
		Fallback:  true,
	}
}

// normalize fills in hints and resources the engine left empty.
func (a *Answer) normalize(subject string) {
	hints := make([]string, 0, MaxHints)
	for _, h := range a.Hints {
		if h = strings.TrimSpace(h); h != "" && len(hints) < MaxHints {
			hints = append(hints, h)
		}
	}
	if len(hints) == 0 {
		hints = ExtractHints(a.Text)
	}
	if len(hints) == 0 {
		hints = append(hints, DefaultHints...)
	}
	a.Hints = hints

	res := make([]interactions.Resource, 0, len(a.Resources))
	for _, r := range a.Resources {
		if strings.TrimSpace(r.Title) != "" && strings.TrimSpace(r.Link) != "" {
			res = append(res, r)
		}
	}
	if len(res) == 0 {
		res = DefaultResources(subject)
	}
	a.Resources = res
}
