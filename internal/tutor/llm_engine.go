package tutor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/abhisek/tutorly/internal/interactions"
	"github.com/abhisek/tutorly/internal/llm"
	"github.com/abhisek/tutorly/internal/logger"
)

const (
	answerTemperature = 0.7
	answerMaxTokens   = 1200
)

var ErrNoProvider = errors.New("tutor: no LLM provider configured")

const systemPrompt = `You are an expert tutor with strong pedagogical knowledge.
Give clear, engaging, educational answers organized in short sections with emoji headers.
Adapt to the student's level and learning style as instructed.`

// answerSchema is the structured reply the model must return.
var answerSchema = &llm.Schema{
	Name:        "tutor-answer",
	Description: "A tutoring answer with practice hints and learning resources",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"answer": map[string]any{
				"type":        "string",
				"description": "The full explanation addressed to the student",
			},
			"hints": map[string]any{
				"type":        "array",
				"description": "Short practice suggestions or next steps",
				"items":       map[string]any{"type": "string"},
				"maxItems":    MaxHints,
			},
			"resources": map[string]any{
				"type":        "array",
				"description": "Helpful links for further study",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"title": map[string]any{"type": "string"},
						"link":  map[string]any{"type": "string"},
					},
					"required":             []any{"title", "link"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"answer", "hints", "resources"},
		"additionalProperties": false,
	},
}

type answerOutput struct {
	Answer    string                  `json:"answer"`
	Hints     []string                `json:"hints"`
	Resources []interactions.Resource `json:"resources"`
}

// LLMEngine answers with a language model, shaping the prompt to the
// student's learning pattern.
type LLMEngine struct {
	provider llm.Provider
	log      *logger.Logger
}

func NewLLMEngine(p llm.Provider, log *logger.Logger) *LLMEngine {
	if log == nil {
		log = logger.Nop()
	}
	return &LLMEngine{provider: p, log: log.With("component", "tutor")}
}

func (e *LLMEngine) Ask(ctx context.Context, q Question) (*Answer, error) {
	if e.provider == nil {
		return nil, ErrNoProvider
	}
	if err := q.validate(); err != nil {
		return nil, err
	}

	req := llm.UserPrompt(systemPrompt, buildPrompt(q))
	req.Schema = answerSchema
	req.Temperature = answerTemperature
	req.MaxTokens = answerMaxTokens

	resp, err := e.provider.Generate(llm.WithPurpose(ctx, llm.PurposeTutorAnswer), req)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}
	var out answerOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, &llm.ErrInvalidResponse{Content: resp.Content, Err: err}
	}

	ans := &Answer{
		Text:      strings.TrimSpace(out.Answer),
		Hints:     out.Hints,
		Resources: out.Resources,
	}
	ans.normalize(q.Subject)
	e.log.Debug("answer generated", "student", q.Student, "subject", q.Subject, "hints", len(ans.Hints))
	return ans, nil
}

func buildPrompt(q Question) string {
	p := q.Pattern
	grade := q.Grade
	if grade == "" {
		grade = "school"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are tutoring a %s student studying %s.\n", grade, q.Subject)
	if p.IsNew {
		b.WriteString("STUDENT CONTEXT: first session in this subject.\n")
	} else {
		fmt.Fprintf(&b, "STUDENT CONTEXT: %d previous sessions, average mastery %.2f.\n", p.TotalSessions, p.AverageMastery)
	}
	fmt.Fprintf(&b, "QUESTION: %s\n", strings.TrimSpace(q.Text))
	fmt.Fprintf(&b, "TEACHING APPROACH: %s\n", p.Approach())
	fmt.Fprintf(&b, "LEARNING STYLE: %s\n\n", p.LearningStyle.Instruction())
	b.WriteString(`In "answer", write a friendly, well-organized reply that includes:
1. A short greeting
2. A clear explanation of the concept with examples
3. A description of a helpful diagram or visual, if one applies
4. An interactive activity
5. Encouragement and next steps
6. One question to check understanding

In "hints", give up to five short practice suggestions.
In "resources", suggest up to three reputable links for further study.`)
	return b.String()
}
