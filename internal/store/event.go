package store

import (
	"context"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit   int       // max results (0 = unlimited)
	Purpose string    // exact purpose match when set
	From    time.Time // timestamp >= From
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEvent is a stored LLM request event.
type LLMRequestEvent struct {
	ID        int64
	Timestamp time.Time
	LLMRequestEventData
}

// LLMUsage aggregates token usage for one purpose or model.
type LLMUsage struct {
	Purpose      string `sql:"purpose"`
	Model        string `sql:"model"`
	Calls        int    `sql:"calls"`
	InputTokens  int    `sql:"input_tokens"`
	OutputTokens int    `sql:"output_tokens"`
	AvgLatencyMs int64  `sql:"avg_latency_ms"`
}

// EventRepo records and reads LLM request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error)

	// GetLLMEvent returns one event, or nil if it doesn't exist.
	GetLLMEvent(ctx context.Context, id int64) (*LLMRequestEvent, error)

	LLMUsageByPurpose(ctx context.Context) ([]LLMUsage, error)
	LLMUsageByModel(ctx context.Context) ([]LLMUsage, error)
}

type llmEventRow struct {
	ID           int64  `sql:"id"`
	CreatedAt    string `sql:"created_at"`
	Provider     string `sql:"provider"`
	Model        string `sql:"model"`
	Purpose      string `sql:"purpose"`
	InputTokens  int    `sql:"input_tokens"`
	OutputTokens int    `sql:"output_tokens"`
	LatencyMs    int64  `sql:"latency_ms"`
	Success      bool   `sql:"success"`
	ErrorMessage string `sql:"error_message"`
	RequestBody  string `sql:"request_body"`
	ResponseBody string `sql:"response_body"`
}

var llmEventColumns = []string{
	"id", "created_at", "provider", "model", "purpose", "input_tokens", "output_tokens",
	"latency_ms", "success", "error_message", "request_body", "response_body",
}

type eventRepo struct {
	drv *entsql.Driver
}

func (r *eventRepo) AppendLLMRequest(ctx context.Context, d LLMRequestEventData) error {
	stmt := builder().Insert(tableLLMRequests).
		Columns("created_at", "provider", "model", "purpose", "input_tokens", "output_tokens",
			"latency_ms", "success", "error_message", "request_body", "response_body").
		Values(FormatTime(time.Now()), d.Provider, d.Model, d.Purpose, d.InputTokens, d.OutputTokens,
			d.LatencyMs, d.Success, d.ErrorMessage, d.RequestBody, d.ResponseBody)
	_, err := execute(ctx, r.drv, "save LLM request event", stmt)
	return err
}

func (r *eventRepo) QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error) {
	sel := builder().Select(llmEventColumns...).
		From(entsql.Table(tableLLMRequests)).
		OrderBy(entsql.Desc("id"))
	var ps []*entsql.Predicate
	if opts.Purpose != "" {
		ps = append(ps, entsql.EQ("purpose", opts.Purpose))
	}
	if !opts.From.IsZero() {
		ps = append(ps, entsql.GTE("created_at", FormatTime(opts.From)))
	}
	if len(ps) > 0 {
		sel.Where(entsql.And(ps...))
	}
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}
	return r.scan(ctx, "query LLM events", sel)
}

func (r *eventRepo) GetLLMEvent(ctx context.Context, id int64) (*LLMRequestEvent, error) {
	sel := builder().Select(llmEventColumns...).
		From(entsql.Table(tableLLMRequests)).
		Where(entsql.EQ("id", id))
	events, err := r.scan(ctx, "get LLM event", sel)
	if err != nil || len(events) == 0 {
		return nil, err
	}
	return &events[0], nil
}

func (r *eventRepo) LLMUsageByPurpose(ctx context.Context) ([]LLMUsage, error) {
	return r.usage(ctx, "purpose")
}

func (r *eventRepo) LLMUsageByModel(ctx context.Context) ([]LLMUsage, error) {
	return r.usage(ctx, "model")
}

func (r *eventRepo) usage(ctx context.Context, by string) ([]LLMUsage, error) {
	sel := builder().Select(
		by,
		entsql.As(entsql.Count("*"), "calls"),
		entsql.As("COALESCE(SUM(input_tokens), 0)", "input_tokens"),
		entsql.As("COALESCE(SUM(output_tokens), 0)", "output_tokens"),
		entsql.As("CAST(AVG(latency_ms) AS INTEGER)", "avg_latency_ms"),
	).
		From(entsql.Table(tableLLMRequests)).
		GroupBy(by).
		OrderBy(entsql.Asc(by))
	var out []LLMUsage
	if err := selectInto(ctx, r.drv, "LLM usage by "+by, sel, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *eventRepo) scan(ctx context.Context, op string, sel entsql.Querier) ([]LLMRequestEvent, error) {
	var rows []llmEventRow
	if err := selectInto(ctx, r.drv, op, sel, &rows); err != nil {
		return nil, err
	}
	out := make([]LLMRequestEvent, len(rows))
	for i, row := range rows {
		ts, _ := ParseTime(row.CreatedAt)
		out[i] = LLMRequestEvent{
			ID:        row.ID,
			Timestamp: ts,
			LLMRequestEventData: LLMRequestEventData{
				Provider:     row.Provider,
				Model:        row.Model,
				Purpose:      row.Purpose,
				InputTokens:  row.InputTokens,
				OutputTokens: row.OutputTokens,
				LatencyMs:    row.LatencyMs,
				Success:      row.Success,
				ErrorMessage: row.ErrorMessage,
				RequestBody:  row.RequestBody,
				ResponseBody: row.ResponseBody,
			},
		}
	}
	return out, nil
}
