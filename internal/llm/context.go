package llm

import "context"

type purposeKey struct{}

// Purposes used by tutorly when tagging LLM calls.
const (
	PurposeTutorAnswer = "tutor-answer"
	PurposeUnknown     = "unknown"
)

// WithPurpose tags ctx so the event log can attribute the call.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey{}, purpose)
}

// PurposeFrom returns the tag set by WithPurpose, or "unknown".
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey{}).(string); ok && v != "" {
		return v
	}
	return PurposeUnknown
}
