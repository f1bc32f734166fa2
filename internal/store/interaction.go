package store

import (
	"context"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// InteractionData is what gets written for a new interaction.
type InteractionData struct {
	Student   string
	Grade     string
	Subject   string
	Question  string
	Answer    string
	Resources string // JSON-encoded list
	CreatedAt time.Time
}

// InteractionRecord is a stored interaction.
type InteractionRecord struct {
	ID              int64
	Student         string
	Grade           string
	Subject         string
	Question        string
	Answer          string
	Resources       string
	Feedback        int
	FeedbackComment string
	CreatedAt       time.Time
}

// InteractionFilter narrows interaction queries. Zero fields don't filter.
type InteractionFilter struct {
	Student string
	Grade   string
	Subject string
	Since   time.Time
	// Feedback restricts to one label when non-nil.
	Feedback *int
}

// StudentRef identifies a (student, grade) pair seen in the log.
type StudentRef struct {
	Student string `sql:"student_name"`
	Grade   string `sql:"grade"`
}

// SubjectCount aggregates interactions for one subject.
type SubjectCount struct {
	Subject    string `sql:"subject"`
	Total      int    `sql:"total"`
	Helpful    int    `sql:"helpful"`
	NotHelpful int    `sql:"not_helpful"`
	FirstID    int64  `sql:"first_id"`
}

type interactionRow struct {
	ID              int64  `sql:"id"`
	Student         string `sql:"student_name"`
	Grade           string `sql:"grade"`
	Subject         string `sql:"subject"`
	Question        string `sql:"question"`
	Answer          string `sql:"answer"`
	Resources       string `sql:"resources"`
	Feedback        int    `sql:"feedback"`
	FeedbackComment string `sql:"feedback_comment"`
	CreatedAt       string `sql:"created_at"`
}

var interactionColumns = []string{
	"id", "student_name", "grade", "subject", "question", "answer",
	"resources", "feedback", "feedback_comment", "created_at",
}

func (r interactionRow) record() InteractionRecord {
	// created_at is always written by Append; a foreign value reads as zero time.
	created, _ := ParseTime(r.CreatedAt)
	return InteractionRecord{
		ID:              r.ID,
		Student:         r.Student,
		Grade:           r.Grade,
		Subject:         r.Subject,
		Question:        r.Question,
		Answer:          r.Answer,
		Resources:       r.Resources,
		Feedback:        r.Feedback,
		FeedbackComment: r.FeedbackComment,
		CreatedAt:       created,
	}
}

// InteractionRepo is the append-only interaction log.
type InteractionRepo struct {
	drv *entsql.Driver
}

// Append inserts a new interaction with feedback 0 and returns its id.
func (r *InteractionRepo) Append(ctx context.Context, data InteractionData) (int64, error) {
	if data.CreatedAt.IsZero() {
		data.CreatedAt = time.Now()
	}
	if data.Resources == "" {
		data.Resources = "[]"
	}
	stmt := builder().Insert(tableInteractions).
		Columns("student_name", "grade", "subject", "question", "answer", "resources", "feedback", "created_at").
		Values(data.Student, data.Grade, data.Subject, data.Question, data.Answer, data.Resources, 0, FormatTime(data.CreatedAt))
	res, err := execute(ctx, r.drv, "append interaction", stmt)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, opErr("append interaction: last insert id", err)
	}
	return id, nil
}

// Recent returns up to limit interactions for the exact (student, grade)
// pair, newest first.
func (r *InteractionRepo) Recent(ctx context.Context, student, grade string, limit int) ([]InteractionRecord, error) {
	sel := builder().Select(interactionColumns...).
		From(entsql.Table(tableInteractions)).
		Where(entsql.And(entsql.EQ("student_name", student), entsql.EQ("grade", grade))).
		OrderBy(entsql.Desc("created_at"), entsql.Desc("id")).
		Limit(limit)
	return r.scan(ctx, "recent interactions", sel)
}

// List returns the interactions matching f, oldest first.
func (r *InteractionRepo) List(ctx context.Context, f InteractionFilter) ([]InteractionRecord, error) {
	sel := builder().Select(interactionColumns...).
		From(entsql.Table(tableInteractions)).
		OrderBy(entsql.Asc("id"))
	if p := f.predicate(); p != nil {
		sel.Where(p)
	}
	return r.scan(ctx, "list interactions", sel)
}

// Get returns the interaction with the given id, or nil if none exists.
func (r *InteractionRepo) Get(ctx context.Context, id int64) (*InteractionRecord, error) {
	sel := builder().Select(interactionColumns...).
		From(entsql.Table(tableInteractions)).
		Where(entsql.EQ("id", id))
	recs, err := r.scan(ctx, "get interaction", sel)
	if err != nil || len(recs) == 0 {
		return nil, err
	}
	return &recs[0], nil
}

// SetFeedback overwrites the feedback label and comment of one interaction
// in a single statement. A nil comment clears it.
func (r *InteractionRepo) SetFeedback(ctx context.Context, id int64, value int, comment *string) error {
	upd := builder().Update(tableInteractions).
		Set("feedback", value).
		Where(entsql.EQ("id", id))
	if comment != nil {
		upd.Set("feedback_comment", *comment)
	} else {
		upd.SetNull("feedback_comment")
	}
	res, err := execute(ctx, r.drv, "set feedback", upd)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return opErr("set feedback: rows affected", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Students lists every distinct (student, grade) pair, ordered by name.
func (r *InteractionRepo) Students(ctx context.Context) ([]StudentRef, error) {
	sel := builder().Select("student_name", "grade").
		From(entsql.Table(tableInteractions)).
		Distinct().
		OrderBy(entsql.Asc("student_name"), entsql.Asc("grade"))
	var out []StudentRef
	if err := selectInto(ctx, r.drv, "list students", sel, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SubjectCounts groups the interactions matching f by subject, ordered by
// each subject's first appearance.
func (r *InteractionRepo) SubjectCounts(ctx context.Context, f InteractionFilter) ([]SubjectCount, error) {
	sel := builder().Select(
		"subject",
		entsql.As(entsql.Count("*"), "total"),
		entsql.As("SUM(CASE WHEN feedback = 1 THEN 1 ELSE 0 END)", "helpful"),
		entsql.As("SUM(CASE WHEN feedback = -1 THEN 1 ELSE 0 END)", "not_helpful"),
		entsql.As("MIN(id)", "first_id"),
	).
		From(entsql.Table(tableInteractions)).
		GroupBy("subject").
		OrderBy("first_id")
	if p := f.predicate(); p != nil {
		sel.Where(p)
	}
	var out []SubjectCount
	if err := selectInto(ctx, r.drv, "subject counts", sel, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *InteractionRepo) scan(ctx context.Context, op string, sel entsql.Querier) ([]InteractionRecord, error) {
	var rows []interactionRow
	if err := selectInto(ctx, r.drv, op, sel, &rows); err != nil {
		return nil, err
	}
	out := make([]InteractionRecord, len(rows))
	for i, row := range rows {
		out[i] = row.record()
	}
	return out, nil
}

func (f InteractionFilter) predicate() *entsql.Predicate {
	var ps []*entsql.Predicate
	if f.Student != "" {
		ps = append(ps, entsql.EQ("student_name", f.Student))
	}
	if f.Grade != "" {
		ps = append(ps, entsql.EQ("grade", f.Grade))
	}
	if f.Subject != "" {
		ps = append(ps, entsql.EQ("subject", f.Subject))
	}
	if !f.Since.IsZero() {
		ps = append(ps, entsql.GTE("created_at", FormatTime(f.Since)))
	}
	if f.Feedback != nil {
		ps = append(ps, entsql.EQ("feedback", *f.Feedback))
	}
	switch len(ps) {
	case 0:
		return nil
	case 1:
		return ps[0]
	default:
		return entsql.And(ps...)
	}
}
