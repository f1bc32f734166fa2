package mastery

import "strings"

// LearningStyle is how a student prefers material presented.
type LearningStyle string

const (
	StyleVisual      LearningStyle = "visual"
	StyleAuditory    LearningStyle = "auditory"
	StyleKinesthetic LearningStyle = "kinesthetic"
	StyleReading     LearningStyle = "reading"
)

// AllStyles returns every learning style in display order.
func AllStyles() []LearningStyle {
	return []LearningStyle{StyleVisual, StyleAuditory, StyleKinesthetic, StyleReading}
}

// ParseLearningStyle maps s onto a known style. Unknown or empty input
// yields StyleVisual.
func ParseLearningStyle(s string) LearningStyle {
	switch LearningStyle(strings.ToLower(strings.TrimSpace(s))) {
	case StyleAuditory:
		return StyleAuditory
	case StyleKinesthetic:
		return StyleKinesthetic
	case StyleReading:
		return StyleReading
	default:
		return StyleVisual
	}
}

// Instruction is the presentation hint given to the answer engine.
func (s LearningStyle) Instruction() string {
	switch s {
	case StyleVisual:
		return "Include diagrams and visual metaphors"
	case StyleAuditory:
		return "Explain verbally and use rhythm"
	case StyleKinesthetic:
		return "Provide hands-on or real-life examples"
	case StyleReading:
		return "Text-based stepwise explanation"
	default:
		return "Use visual metaphors"
	}
}
