package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/abhisek/tutorly/internal/llm"
	"github.com/abhisek/tutorly/internal/store"
)

// LLMEvents lists recorded LLM calls, newest first.
func LLMEvents(w io.Writer, events []store.LLMRequestEvent) error {
	if len(events) == 0 {
		return write(w, Hint.Render("No LLM events found."))
	}
	t := newTable("ID", "Timestamp", "Purpose", "Model", "In", "Out", "Ms", "OK")
	for _, e := range events {
		ok := Good.Render("✓")
		if !e.Success {
			ok = Bad.Render("✗")
		}
		t.Row(
			strconv.FormatInt(e.ID, 10),
			e.Timestamp.Local().Format("2006-01-02 15:04:05"),
			e.Purpose,
			truncate(e.Model, 28),
			strconv.Itoa(e.InputTokens),
			strconv.Itoa(e.OutputTokens),
			strconv.FormatInt(e.LatencyMs, 10),
			ok,
		)
	}
	return write(w, t.Render())
}

// LLMEvent shows one call with its full request and response bodies.
func LLMEvent(w io.Writer, e *store.LLMRequestEvent) error {
	lines := []string{
		field("ID", strconv.FormatInt(e.ID, 10)),
		field("Time", e.Timestamp.Local().Format("2006-01-02 15:04:05")),
		field("Provider", e.Provider),
		field("Model", e.Model),
		field("Purpose", e.Purpose),
		field("Tokens", fmt.Sprintf("%d in / %d out", e.InputTokens, e.OutputTokens)),
		field("Latency", fmt.Sprintf("%dms", e.LatencyMs)),
		field("Success", strconv.FormatBool(e.Success)),
	}
	if e.ErrorMessage != "" {
		lines = append(lines, field("Error", Bad.Render(e.ErrorMessage)))
	}

	body := func(s string) string {
		if s == "" {
			return Hint.Render("(not captured)")
		}
		return s
	}
	return write(w,
		strings.Join(lines, "\n"),
		"",
		Title.Render("REQUEST"),
		body(e.RequestBody),
		"",
		Title.Render("RESPONSE"),
		body(e.ResponseBody))
}

// LLMUsage shows token usage by purpose and estimated cost by model.
func LLMUsage(w io.Writer, byPurpose, byModel []store.LLMUsage) error {
	if len(byPurpose) == 0 {
		return write(w, Hint.Render("No LLM usage recorded yet."))
	}

	usage := newTable("Purpose", "Calls", "Input", "Output", "Total", "Avg Ms")
	var calls, in, out int
	for _, u := range byPurpose {
		usage.Row(u.Purpose,
			strconv.Itoa(u.Calls),
			strconv.Itoa(u.InputTokens),
			strconv.Itoa(u.OutputTokens),
			strconv.Itoa(u.InputTokens+u.OutputTokens),
			strconv.FormatInt(u.AvgLatencyMs, 10))
		calls += u.Calls
		in += u.InputTokens
		out += u.OutputTokens
	}
	usage.Row("TOTAL", strconv.Itoa(calls), strconv.Itoa(in), strconv.Itoa(out), strconv.Itoa(in+out), "")

	blocks := []string{section("Usage by purpose", ""), usage.Render()}
	if len(byModel) == 0 {
		return write(w, blocks...)
	}

	cost := newTable("Model", "Calls", "Input", "Output", "Cost")
	rows := make([]llm.UsageRow, 0, len(byModel))
	var unknown []string
	for _, u := range byModel {
		rows = append(rows, llm.UsageRow{Model: u.Model, InputTokens: u.InputTokens, OutputTokens: u.OutputTokens})
		price := "?"
		if c := llm.LookupCost(u.Model); c != nil {
			price = formatCost(c.Cost(u.InputTokens, u.OutputTokens))
		} else {
			unknown = append(unknown, u.Model)
		}
		cost.Row(truncate(u.Model, 32), strconv.Itoa(u.Calls), strconv.Itoa(u.InputTokens), strconv.Itoa(u.OutputTokens), price)
	}
	total, unpriced := llm.TotalCost(rows)
	label := "TOTAL"
	if unpriced > 0 {
		label = "TOTAL (partial)"
	}
	cost.Row(label, "", "", "", formatCost(total))

	blocks = append(blocks, "", section("Estimated cost (USD)", ""), cost.Render())
	if len(unknown) > 0 {
		blocks = append(blocks, Hint.Render("Pricing unavailable for: "+strings.Join(unknown, ", ")))
	}
	return write(w, blocks...)
}
