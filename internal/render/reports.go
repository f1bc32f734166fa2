package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/abhisek/tutorly/internal/report"
)

const dateLayout = "Jan 2"

// Weekly renders the seven-day summary sent to parents.
func Weekly(w io.Writer, r *report.Weekly) error {
	span := fmt.Sprintf("%s, %s to %s", r.Student, r.From.Local().Format(dateLayout), r.To.Local().Format(dateLayout))
	if len(r.Rows) == 0 {
		return write(w, section("Weekly summary", span), Hint.Render("No questions asked this week."))
	}
	t := newTable("Subject", "Questions", "Helpful", "Not helpful")
	for _, row := range r.Rows {
		t.Row(row.Subject, strconv.Itoa(row.Questions), strconv.Itoa(row.Helpful), strconv.Itoa(row.NotHelpful))
	}
	return write(w,
		section("Weekly summary", span),
		t.Render(),
		field("Total", strconv.Itoa(r.Total())+" question(s)"))
}

// Dashboard renders the teacher's view of one student.
func Dashboard(w io.Writer, d *report.Dashboard) error {
	who := d.Student
	if d.Grade != "" {
		who += ", grade " + d.Grade
	}
	blocks := []string{section("Dashboard", who)}

	total := d.Feedback.Helpful + d.Feedback.NotHelpful + d.Feedback.Unset
	overview := []string{
		field("XP", Highlight.Render(strconv.FormatInt(d.Gamification.XP, 10))),
		field("Streak", fmt.Sprintf("%d day(s)", d.Gamification.Streak)),
		field("Questions", strconv.Itoa(total)),
	}
	if total > 0 {
		overview = append(overview,
			field("Helpful", Bar(float64(d.Feedback.Helpful)/float64(total), barWidth)),
			field("Unrated", strconv.Itoa(d.Feedback.Unset)))
	}
	blocks = append(blocks, Card.Render(strings.Join(overview, "\n")))

	if len(d.Subjects) > 0 {
		t := newTable("Subject", "Questions", "Helpful", "Not helpful")
		for _, s := range d.Subjects {
			t.Row(s.Subject, strconv.Itoa(s.Total), strconv.Itoa(s.Helpful), strconv.Itoa(s.NotHelpful))
		}
		blocks = append(blocks, Label.Render("Activity by subject"), t.Render())
	}

	if len(d.WeakSubjects) > 0 {
		blocks = append(blocks, Label.Render("Needs attention")+" "+
			Bad.Render(strings.Join(d.WeakSubjects, ", "))+" "+
			Subtitle.Render(fmt.Sprintf("(over %.0f%% not helpful)", d.WeakRatio*100)))
	}

	if len(d.Recent) > 0 {
		t := newTable("When", "Subject", "Question", "Feedback")
		for _, it := range d.Recent {
			t.Row(it.CreatedAt.Local().Format(timeLayout), it.Subject, truncate(it.Question, questionWidth), feedbackLabel(it.Feedback))
		}
		blocks = append(blocks, Label.Render("Recent questions"), t.Render())
	}
	return write(w, blocks...)
}
