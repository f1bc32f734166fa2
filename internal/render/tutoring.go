// Package render draws tutoring data for the terminal. Every function
// writes through lipgloss, which drops colors when w is not a terminal.
package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/tutorly/internal/diagnosis"
	"github.com/abhisek/tutorly/internal/gamification"
	"github.com/abhisek/tutorly/internal/interactions"
	"github.com/abhisek/tutorly/internal/mastery"
	"github.com/abhisek/tutorly/internal/store"
	"github.com/abhisek/tutorly/internal/tutor"
)

const (
	timeLayout    = "2006-01-02 15:04"
	questionWidth = 48
	barWidth      = 20
)

func write(w io.Writer, blocks ...string) error {
	_, err := lipgloss.Fprintln(w, strings.Join(blocks, "\n"))
	return err
}

// Exchange shows the answer to a question with its hints and resources,
// followed by the student's updated standing.
func Exchange(w io.Writer, res *tutor.ExchangeResult) error {
	var b strings.Builder
	b.WriteString(Body.Render(res.Answer.Text))
	b.WriteString("\n")

	if len(res.Answer.Hints) > 0 {
		b.WriteString("\n" + Label.Render("Hints") + "\n")
		for i, h := range res.Answer.Hints {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, Hint.Render(h))
		}
	}
	if len(res.Answer.Resources) > 0 {
		b.WriteString("\n" + Label.Render("Resources") + "\n")
		for _, r := range res.Answer.Resources {
			fmt.Fprintf(&b, "  • %s %s\n", Body.Render(r.Title), Subtitle.Render(r.Link))
		}
	}

	blocks := []string{Card.Render(strings.TrimRight(b.String(), "\n"))}
	if !res.Recorded {
		blocks = append(blocks, Hint.Render("The tutor is unavailable right now, so this exchange was not saved."))
		return write(w, blocks...)
	}

	status := fmt.Sprintf("#%d  %s XP  %s day streak",
		res.InteractionID,
		Highlight.Render(strconv.FormatInt(res.Gamification.XP, 10)),
		Highlight.Render(strconv.Itoa(res.Gamification.Streak)))
	blocks = append(blocks, Subtitle.Render(status))
	if res.Progress != nil {
		blocks = append(blocks, field("Mastery", Bar(res.Progress.Mastery, barWidth)))
	}
	return write(w, blocks...)
}

// History lists interactions with their feedback labels.
func History(w io.Writer, student string, items []interactions.Interaction) error {
	if len(items) == 0 {
		return write(w, Hint.Render(fmt.Sprintf("No interactions recorded for %s.", student)))
	}
	t := newTable("ID", "When", "Grade", "Subject", "Question", "Feedback")
	for _, it := range items {
		t.Row(
			strconv.FormatInt(it.ID, 10),
			it.CreatedAt.Local().Format(timeLayout),
			it.Grade,
			it.Subject,
			truncate(it.Question, questionWidth),
			feedbackLabel(it.Feedback),
		)
	}
	return write(w, section("History", student), t.Render())
}

func feedbackLabel(f interactions.Feedback) string {
	switch f {
	case interactions.FeedbackHelpful:
		return "👍 helpful"
	case interactions.FeedbackNotHelpful:
		return "👎 not helpful"
	default:
		return "-"
	}
}

// Progress shows one row per topic with a mastery meter.
func Progress(w io.Writer, student string, records []mastery.Record) error {
	if len(records) == 0 {
		return write(w, Hint.Render(fmt.Sprintf("No progress recorded for %s yet.", student)))
	}
	t := newTable("Subject", "Topic", "Mastery", "Sessions", "Style", "Last session")
	for _, r := range records {
		t.Row(
			r.Subject,
			r.Topic,
			Bar(r.Mastery, barWidth),
			strconv.Itoa(r.TotalSessions),
			string(r.LearningStyle),
			r.LastSession.Local().Format(timeLayout),
		)
	}
	return write(w, section("Progress", student), t.Render())
}

// Gamification shows XP, streak and earned badges.
func Gamification(w io.Writer, student string, s gamification.Summary) error {
	lines := []string{
		field("XP", Highlight.Render(strconv.FormatInt(s.XP, 10))),
		field("Streak", Highlight.Render(fmt.Sprintf("%d day(s)", s.Streak))),
	}
	if next := gamification.NextStreakMilestone(s.Streak); next > 0 {
		lines = append(lines, Hint.Render(fmt.Sprintf("%d more day(s) to the next streak badge", next-s.Streak)))
	}

	if len(s.Badges) == 0 {
		lines = append(lines, "", Hint.Render("No badges yet. Ask a question to earn your first one!"))
	} else {
		lines = append(lines, "", Label.Render("Badges"))
		for _, id := range s.Badges {
			b := gamification.Lookup(id)
			line := fmt.Sprintf("  %s %s", b.Icon, Body.Render(b.Name))
			if b.Description != "" {
				line += "  " + Subtitle.Render(b.Description)
			}
			lines = append(lines, line)
		}
	}
	return write(w, section("Achievements", student), Card.Render(strings.Join(lines, "\n")))
}

// WeakTopics lists every subject with a not-helpful answer and the
// exchanges that earned it.
func WeakTopics(w io.Writer, student string, wt diagnosis.WeakTopics) error {
	if len(wt.Subjects) == 0 {
		return write(w, Good.Render(fmt.Sprintf("No weak topics for %s. Keep it up!", student)))
	}
	blocks := []string{section("Weak topics", student)}
	for _, subject := range wt.Subjects {
		var b strings.Builder
		b.WriteString(Bad.Render(subject))
		for _, ex := range wt.Details[subject] {
			fmt.Fprintf(&b, "\n  #%d %s", ex.InteractionID, Body.Render(truncate(ex.Question, questionWidth)))
			for _, r := range ex.Resources {
				fmt.Fprintf(&b, "\n     ↳ %s %s", r.Title, Subtitle.Render(r.Link))
			}
		}
		blocks = append(blocks, b.String())
	}
	return write(w, blocks...)
}

// SubjectStats shows per-subject feedback counts and marks the subjects
// above the weak ratio.
func SubjectStats(w io.Writer, student string, stats []diagnosis.SubjectStat, weak []string, ratio float64) error {
	if len(stats) == 0 {
		return write(w, Hint.Render(fmt.Sprintf("No rated interactions for %s.", student)))
	}
	flagged := make(map[string]bool, len(weak))
	for _, s := range weak {
		flagged[s] = true
	}
	t := newTable("Subject", "Total", "Helpful", "Not helpful", "Ratio", "")
	for _, st := range stats {
		mark := ""
		if flagged[st.Subject] {
			mark = Bad.Render("weak")
		}
		t.Row(
			st.Subject,
			strconv.Itoa(st.Total),
			strconv.Itoa(st.Helpful),
			strconv.Itoa(st.NotHelpful),
			fmt.Sprintf("%.0f%%", st.NegativeRatio()*100),
			mark,
		)
	}
	return write(w,
		section("Subjects", fmt.Sprintf("%s, weak above %.0f%% not helpful", student, ratio*100)),
		t.Render())
}

// Students lists every (student, grade) pair seen in the log.
func Students(w io.Writer, refs []store.StudentRef) error {
	if len(refs) == 0 {
		return write(w, Hint.Render("No students yet."))
	}
	t := newTable("Student", "Grade")
	for _, r := range refs {
		t.Row(r.Student, r.Grade)
	}
	return write(w, t.Render())
}
