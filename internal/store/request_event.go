package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

func (r *eventRepo) AppendRequest(ctx context.Context, data RequestEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	query, args := entsql.Dialect(dialect.SQLite).
		Insert("request_events").
		Columns("sequence", "timestamp", "operation", "purpose", "status_code", "latency_ms", "success", "error_message").
		Values(seqNum, time.Now().UnixMilli(), data.Operation, data.Purpose, data.StatusCode, data.LatencyMs, data.Success, data.ErrorMessage).
		Query()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save request event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryRequests(ctx context.Context, opts QueryOpts) ([]RequestEvent, error) {
	sel := entsql.Dialect(dialect.SQLite).
		Select("id", "sequence", "timestamp", "operation", "purpose", "status_code", "latency_ms", "success", "error_message").
		From(entsql.Table("request_events"))
	applyQueryOpts(sel, opts)

	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query request events: %w", err)
	}
	defer rows.Close()

	var events []RequestEvent
	for rows.Next() {
		var (
			e  RequestEvent
			ts int64
		)
		if err := rows.Scan(&e.ID, &e.Sequence, &ts, &e.Operation, &e.Purpose, &e.StatusCode, &e.LatencyMs, &e.Success, &e.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scan request event: %w", err)
		}
		e.Timestamp = time.UnixMilli(ts).UTC()
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *eventRepo) UsageByOperation(ctx context.Context) ([]OperationUsage, error) {
	events, err := r.QueryRequests(ctx, QueryOpts{})
	if err != nil {
		return nil, err
	}

	byOp := make(map[string]*OperationUsage)
	totalLatency := make(map[string]int64)
	for _, e := range events {
		u, ok := byOp[e.Operation]
		if !ok {
			u = &OperationUsage{Operation: e.Operation}
			byOp[e.Operation] = u
		}
		u.Calls++
		if !e.Success {
			u.Failures++
		}
		totalLatency[e.Operation] += e.LatencyMs
	}

	usage := make([]OperationUsage, 0, len(byOp))
	for op, u := range byOp {
		u.AvgLatencyMs = totalLatency[op] / int64(u.Calls)
		usage = append(usage, *u)
	}
	sort.Slice(usage, func(i, j int) bool { return usage[i].Operation < usage[j].Operation })
	return usage, nil
}

// applyQueryOpts adds the common filters and newest-first ordering.
func applyQueryOpts(sel *entsql.Selector, opts QueryOpts) {
	if opts.After > 0 {
		sel.Where(entsql.GT("sequence", opts.After))
	}
	if !opts.From.IsZero() {
		sel.Where(entsql.GTE("timestamp", opts.From.UnixMilli()))
	}
	if !opts.To.IsZero() {
		sel.Where(entsql.LTE("timestamp", opts.To.UnixMilli()))
	}
	sel.OrderBy(entsql.Desc("sequence"))
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}
}
