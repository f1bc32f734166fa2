package llm

import (
	"context"
	"encoding/json"
)

// Provider generates a single completion. Implementations translate a
// Request into their SDK's call and return normalized output.
type Provider interface {
	// Generate runs the request. When req.Schema is set the returned
	// Content is JSON that has already been validated against it.
	Generate(ctx context.Context, req Request) (*Response, error)

	// Name is the provider family, e.g. "anthropic" or "mock".
	Name() string

	// ModelID is the model requests are sent to.
	ModelID() string
}

// Request is one prompt. Tutorly only sends single-turn prompts, but the
// message list keeps multi-turn possible.
type Request struct {
	System    string
	Messages  []Message
	Schema    *Schema
	MaxTokens int

	// Temperature in [0, 1]. Zero leaves the provider default.
	Temperature float64
}

// Message is one conversation turn.
type Message struct {
	Role    Role
	Content string
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// UserPrompt builds a request with a system prompt and a single user turn.
func UserPrompt(system, user string) Request {
	return Request{
		System:   system,
		Messages: []Message{{Role: RoleUser, Content: user}},
	}
}

// Schema is a JSON Schema the response must satisfy. Name is kebab-case
// and doubles as the cache key for the compiled schema.
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

// Normalized stop reasons.
const (
	StopEnd       = "end"
	StopMaxTokens = "max_tokens"
)

// Response is a normalized completion.
type Response struct {
	// Content is the validated JSON object when a schema was requested,
	// otherwise the raw model text.
	Content    json.RawMessage
	Usage      Usage
	Model      string
	StopReason string
}

type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// finish turns raw provider output into a Response: truncated output is an
// ErrMaxTokensExceeded, and schema-bound output must validate.
func finish(req Request, content json.RawMessage, usage Usage, model, stop string) (*Response, error) {
	if stop == StopMaxTokens && req.Schema != nil {
		return nil, &ErrMaxTokensExceeded{Content: content}
	}
	if err := validateResponse(req.Schema, content); err != nil {
		return nil, err
	}
	if usage.TotalTokens == 0 {
		usage.TotalTokens = usage.InputTokens + usage.OutputTokens
	}
	return &Response{
		Content:    content,
		Usage:      usage,
		Model:      model,
		StopReason: stop,
	}, nil
}

// resolveModel maps a friendly alias to a model ID; unknown names pass
// through so full model IDs work too.
func resolveModel(name string, aliases map[string]string) string {
	if id, ok := aliases[name]; ok {
		return id
	}
	return name
}
