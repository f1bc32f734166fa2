package store

import (
	"context"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// builder returns a statement builder for the SQLite dialect.
func builder() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.SQLite)
}

// selectInto runs sel and scans every row into dst, a pointer to a slice.
func selectInto(ctx context.Context, ex dialect.ExecQuerier, op string, sel entsql.Querier, dst any) error {
	query, args := sel.Query()
	rows := &entsql.Rows{}
	if err := ex.Query(ctx, query, args, rows); err != nil {
		return opErr(op, err)
	}
	defer rows.Close()
	if err := entsql.ScanSlice(rows, dst); err != nil {
		return opErr(op, err)
	}
	return nil
}

// execute runs a write statement and returns its result.
func execute(ctx context.Context, ex dialect.ExecQuerier, op string, stmt entsql.Querier) (entsql.Result, error) {
	query, args := stmt.Query()
	var res entsql.Result
	if err := ex.Exec(ctx, query, args, &res); err != nil {
		return nil, opErr(op, err)
	}
	return res, nil
}
