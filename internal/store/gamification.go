package store

import (
	"context"
	"encoding/json"

	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/sqlgraph"
)

// GamificationRecord is a student's stored gamification state.
//
// LastActivity is kept raw: it may have been written by another tool, and
// interpreting it is the engine's job.
type GamificationRecord struct {
	Student           string
	XP                int64
	Streak            int
	Badges            []string
	LastActivity      string
	DailyInteractions int
	// Version increases by one on every write and guards CompareAndSwap.
	Version int64
}

type gamificationRow struct {
	Student           string `sql:"student_name"`
	XP                int64  `sql:"xp_points"`
	Streak            int    `sql:"streak_days"`
	Badges            string `sql:"badges"`
	LastActivity      string `sql:"last_activity"`
	DailyInteractions int    `sql:"daily_interactions"`
	Version           int64  `sql:"version"`
}

// GamificationRepo persists gamification state with optimistic concurrency.
type GamificationRepo struct {
	drv *entsql.Driver
}

// Get returns the student's record, or nil if none exists.
func (r *GamificationRepo) Get(ctx context.Context, student string) (*GamificationRecord, error) {
	sel := builder().Select("student_name", "xp_points", "streak_days", "badges",
		"last_activity", "daily_interactions", "version").
		From(entsql.Table(tableGamification)).
		Where(entsql.EQ("student_name", student))
	var rows []gamificationRow
	if err := selectInto(ctx, r.drv, "get gamification", sel, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	row := rows[0]
	rec := &GamificationRecord{
		Student:           row.Student,
		XP:                row.XP,
		Streak:            row.Streak,
		Badges:            decodeBadges(row.Badges),
		LastActivity:      row.LastActivity,
		DailyInteractions: row.DailyInteractions,
		Version:           row.Version,
	}
	return rec, nil
}

// Insert creates the first record for a student at version 1. If another
// writer created it first, ErrConflict is returned.
func (r *GamificationRepo) Insert(ctx context.Context, rec GamificationRecord) error {
	stmt := builder().Insert(tableGamification).
		Columns("student_name", "xp_points", "streak_days", "badges",
			"last_activity", "daily_interactions", "version").
		Values(rec.Student, rec.XP, rec.Streak, encodeBadges(rec.Badges),
			rec.LastActivity, rec.DailyInteractions, 1)
	if _, err := execute(ctx, r.drv, "insert gamification", stmt); err != nil {
		if sqlgraph.IsUniqueConstraintError(err) {
			return ErrConflict
		}
		return err
	}
	return nil
}

// CompareAndSwap replaces the record only if its stored version still
// equals expected, bumping the version. ErrConflict means another writer
// got there first.
func (r *GamificationRepo) CompareAndSwap(ctx context.Context, rec GamificationRecord, expected int64) error {
	upd := builder().Update(tableGamification).
		Set("xp_points", rec.XP).
		Set("streak_days", rec.Streak).
		Set("badges", encodeBadges(rec.Badges)).
		Set("last_activity", rec.LastActivity).
		Set("daily_interactions", rec.DailyInteractions).
		Set("version", expected+1).
		Where(entsql.And(
			entsql.EQ("student_name", rec.Student),
			entsql.EQ("version", expected),
		))
	res, err := execute(ctx, r.drv, "update gamification", upd)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return opErr("update gamification: rows affected", err)
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

// SetLastActivity overwrites the raw last_activity value. It exists for
// imports and repair tooling.
func (r *GamificationRepo) SetLastActivity(ctx context.Context, student, raw string) error {
	upd := builder().Update(tableGamification).
		Set("last_activity", raw).
		Add("version", 1).
		Where(entsql.EQ("student_name", student))
	res, err := execute(ctx, r.drv, "set last activity", upd)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func encodeBadges(badges []string) string {
	if len(badges) == 0 {
		return "[]"
	}
	b, err := json.Marshal(badges)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// decodeBadges tolerates NULL and garbage; both read as no badges.
func decodeBadges(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil
	}
	return out
}
