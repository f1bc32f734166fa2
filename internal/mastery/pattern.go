package mastery

// Pattern summarizes a student's history in one subject.
type Pattern struct {
	IsNew          bool          `json:"is_new"`
	Topics         int           `json:"topics"`
	TotalSessions  int           `json:"total_sessions"`
	AverageMastery float64       `json:"average_mastery"`
	LearningStyle  LearningStyle `json:"learning_style"`
}

// Analyze derives a Pattern from history ordered most recent first. The
// learning style comes from the most recent record.
func Analyze(history []Record) Pattern {
	if len(history) == 0 {
		return Pattern{IsNew: true, LearningStyle: StyleVisual}
	}
	var sum float64
	p := Pattern{Topics: len(history), LearningStyle: history[0].LearningStyle}
	for _, r := range history {
		sum += r.Mastery
		p.TotalSessions += r.TotalSessions
	}
	p.AverageMastery = sum / float64(len(history))
	if p.LearningStyle == "" {
		p.LearningStyle = StyleVisual
	}
	return p
}

// Approach picks the teaching approach for the next answer.
func (p Pattern) Approach() string {
	switch {
	case p.IsNew:
		return "friendly intro, simple steps"
	case p.AverageMastery < 0.6:
		return "step-by-step, scaffolded guidance"
	case p.AverageMastery > 0.8:
		return "advanced challenge with deeper concepts"
	default:
		return "balanced explanation"
	}
}

// SeedMastery is the mastery to record for the next exchange.
func (p Pattern) SeedMastery() float64 {
	if p.IsNew {
		return DefaultMastery
	}
	return p.AverageMastery
}
