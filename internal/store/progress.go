package store

import (
	"context"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// ProgressData is one mastery observation for (student, subject, topic).
type ProgressData struct {
	Student       string
	Subject       string
	Topic         string
	Difficulty    int
	Mastery       float64
	StruggleAreas string
	LearningStyle string
	At            time.Time
}

// ProgressRecord is the stored mastery record.
type ProgressRecord struct {
	ID            int64
	Student       string
	Subject       string
	Topic         string
	Difficulty    int
	Mastery       float64
	StruggleAreas string
	LearningStyle string
	LastSession   time.Time
	TotalSessions int
}

type progressRow struct {
	ID            int64   `sql:"id"`
	Student       string  `sql:"student_name"`
	Subject       string  `sql:"subject"`
	Topic         string  `sql:"topic"`
	Difficulty    int     `sql:"difficulty_level"`
	Mastery       float64 `sql:"mastery_score"`
	StruggleAreas string  `sql:"struggle_areas"`
	LearningStyle string  `sql:"learning_style"`
	LastSession   string  `sql:"last_session"`
	TotalSessions int     `sql:"total_sessions"`
}

var progressColumns = []string{
	"id", "student_name", "subject", "topic", "difficulty_level", "mastery_score",
	"struggle_areas", "learning_style", "last_session", "total_sessions",
}

// ProgressRepo stores one mastery record per (student, subject, topic).
type ProgressRepo struct {
	drv *entsql.Driver
}

// Upsert inserts a record with total_sessions = 1, or overwrites the
// existing one and increments total_sessions. The statement is atomic, so
// concurrent upserts for the same key never lose a session.
func (r *ProgressRepo) Upsert(ctx context.Context, d ProgressData) (*ProgressRecord, error) {
	if d.At.IsZero() {
		d.At = time.Now()
	}
	stmt := builder().Insert(tableProgress).
		Columns("student_name", "subject", "topic", "difficulty_level", "mastery_score",
			"struggle_areas", "learning_style", "last_session", "total_sessions").
		Values(d.Student, d.Subject, d.Topic, d.Difficulty, d.Mastery,
			d.StruggleAreas, d.LearningStyle, FormatTime(d.At), 1).
		OnConflict(
			entsql.ConflictColumns("student_name", "subject", "topic"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				u.SetExcluded("difficulty_level")
				u.SetExcluded("mastery_score")
				u.SetExcluded("struggle_areas")
				u.SetExcluded("learning_style")
				u.SetExcluded("last_session")
				u.Add("total_sessions", 1)
			}),
		)
	if _, err := execute(ctx, r.drv, "upsert progress", stmt); err != nil {
		return nil, err
	}

	sel := builder().Select(progressColumns...).
		From(entsql.Table(tableProgress)).
		Where(entsql.And(
			entsql.EQ("student_name", d.Student),
			entsql.EQ("subject", d.Subject),
			entsql.EQ("topic", d.Topic),
		))
	recs, err := r.scan(ctx, "read progress", sel)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, opErr("read progress", ErrNotFound)
	}
	return &recs[0], nil
}

// List returns the student's records for subject, most recent session
// first. An empty subject lists every subject.
func (r *ProgressRepo) List(ctx context.Context, student, subject string) ([]ProgressRecord, error) {
	p := entsql.EQ("student_name", student)
	if subject != "" {
		p = entsql.And(p, entsql.EQ("subject", subject))
	}
	sel := builder().Select(progressColumns...).
		From(entsql.Table(tableProgress)).
		Where(p).
		OrderBy(entsql.Desc("last_session"), entsql.Desc("id"))
	return r.scan(ctx, "list progress", sel)
}

func (r *ProgressRepo) scan(ctx context.Context, op string, sel entsql.Querier) ([]ProgressRecord, error) {
	var rows []progressRow
	if err := selectInto(ctx, r.drv, op, sel, &rows); err != nil {
		return nil, err
	}
	out := make([]ProgressRecord, len(rows))
	for i, row := range rows {
		last, _ := ParseTime(row.LastSession)
		out[i] = ProgressRecord{
			ID:            row.ID,
			Student:       row.Student,
			Subject:       row.Subject,
			Topic:         row.Topic,
			Difficulty:    row.Difficulty,
			Mastery:       row.Mastery,
			StruggleAreas: row.StruggleAreas,
			LearningStyle: row.LearningStyle,
			LastSession:   last,
			TotalSessions: row.TotalSessions,
		}
	}
	return out, nil
}
