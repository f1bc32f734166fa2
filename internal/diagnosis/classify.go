package diagnosis

import "github.com/abhisek/tutorly/internal/interactions"

// ClassifyAnyNegative flags a subject as weak when any of its interactions
// was rated not helpful. log is oldest first; subjects are ordered by their
// oldest not-helpful interaction.
func ClassifyAnyNegative(log []interactions.Interaction) WeakTopics {
	out := WeakTopics{Subjects: []string{}, Details: map[string][]Example{}}
	for _, it := range log {
		if it.Feedback != interactions.FeedbackNotHelpful {
			continue
		}
		if _, seen := out.Details[it.Subject]; !seen {
			out.Subjects = append(out.Subjects, it.Subject)
		}
		resources := it.Resources
		if resources == nil {
			resources = []interactions.Resource{}
		}
		out.Details[it.Subject] = append(out.Details[it.Subject], Example{
			InteractionID: it.ID,
			Question:      it.Question,
			Answer:        it.Answer,
			Resources:     resources,
		})
	}
	return out
}

// ClassifyByRatio returns the subjects whose negative ratio is strictly
// greater than ratio, in input order.
func ClassifyByRatio(stats []SubjectStat, ratio float64) []string {
	weak := []string{}
	for _, s := range stats {
		if s.Total > 0 && s.NegativeRatio() > ratio {
			weak = append(weak, s.Subject)
		}
	}
	return weak
}
