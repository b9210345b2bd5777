package store

import (
	"context"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

func (r *eventRepo) AppendQuizResult(ctx context.Context, data QuizResultData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	query, args := entsql.Dialect(dialect.SQLite).
		Insert("quiz_results").
		Columns("sequence", "timestamp", "session_id", "topic", "difficulty", "correct", "total").
		Values(seqNum, time.Now().UnixMilli(), data.SessionID, data.Topic, data.Difficulty, data.Correct, data.Total).
		Query()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save quiz result: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryQuizResults(ctx context.Context, opts QueryOpts) ([]QuizResult, error) {
	sel := entsql.Dialect(dialect.SQLite).
		Select("id", "sequence", "timestamp", "session_id", "topic", "difficulty", "correct", "total").
		From(entsql.Table("quiz_results"))
	applyQueryOpts(sel, opts)

	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query quiz results: %w", err)
	}
	defer rows.Close()

	var results []QuizResult
	for rows.Next() {
		var (
			res QuizResult
			ts  int64
		)
		if err := rows.Scan(&res.ID, &res.Sequence, &ts, &res.SessionID, &res.Topic, &res.Difficulty, &res.Correct, &res.Total); err != nil {
			return nil, fmt.Errorf("scan quiz result: %w", err)
		}
		res.Timestamp = time.UnixMilli(ts).UTC()
		results = append(results, res)
	}
	return results, rows.Err()
}
