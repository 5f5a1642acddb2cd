package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

type eventRepo struct {
	db *sql.DB
}

// Append inserts one entry. The sequence is the table's AUTOINCREMENT key,
// so it never repeats even after rows are deleted.
func (r *eventRepo) Append(ctx context.Context, data EventData) (int64, error) {
	ts := data.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	var correct sql.NullBool
	if data.Correct != nil {
		correct = sql.NullBool{Bool: *data.Correct, Valid: true}
	}

	var seq int64
	err := r.db.QueryRowContext(ctx, `INSERT INTO attempt_events
		(timestamp, run_id, kind, attempt_id, question_id, difficulty, correct, status, response_time, message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING sequence`,
		ts.UTC(), data.RunID, data.Kind, data.AttemptID, data.QuestionID,
		data.Difficulty, correct, data.Status, data.ResponseTime, data.Message,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("save attempt event: %w", err)
	}
	return seq, nil
}

func (r *eventRepo) Query(ctx context.Context, opts QueryOpts) ([]Event, error) {
	var (
		where []string
		args  []any
	)
	if opts.AttemptID != 0 {
		where = append(where, "attempt_id = ?")
		args = append(args, opts.AttemptID)
	}
	if opts.After > 0 {
		where = append(where, "sequence > ?")
		args = append(args, opts.After)
	}
	if !opts.From.IsZero() {
		where = append(where, "timestamp >= ?")
		args = append(args, opts.From.UTC())
	}
	if !opts.To.IsZero() {
		where = append(where, "timestamp <= ?")
		args = append(args, opts.To.UTC())
	}

	q := `SELECT sequence, timestamp, run_id, kind, attempt_id, question_id, difficulty, correct, status, response_time, message
		FROM attempt_events`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY sequence ASC"
	if opts.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query attempt events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			e       Event
			correct sql.NullBool
		)
		if err := rows.Scan(&e.Sequence, &e.Timestamp, &e.RunID, &e.Kind, &e.AttemptID,
			&e.QuestionID, &e.Difficulty, &correct, &e.Status, &e.ResponseTime, &e.Message); err != nil {
			return nil, fmt.Errorf("scan attempt event: %w", err)
		}
		if correct.Valid {
			c := correct.Bool
			e.Correct = &c
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Summaries aggregates the journal per attempt, most recent first. Answers
// may be sent several times as the student moves around; only the latest
// send of each question counts towards answers, correct and response time.
func (r *eventRepo) Summaries(ctx context.Context, limit int) ([]AttemptSummary, error) {
	q := `WITH latest AS (
			SELECT attempt_id, correct, response_time
			FROM attempt_events
			WHERE sequence IN (
				SELECT MAX(sequence) FROM attempt_events
				WHERE kind = 'answer.submitted'
				GROUP BY attempt_id, question_id)
		),
		answered AS (
			SELECT attempt_id,
				COUNT(*) AS answers,
				SUM(CASE WHEN correct = 1 THEN 1 ELSE 0 END) AS correct,
				SUM(response_time) AS response_time
			FROM latest
			GROUP BY attempt_id
		)
		SELECT e.attempt_id,
			COALESCE(MAX(a.answers), 0),
			COALESCE(MAX(a.correct), 0),
			SUM(CASE WHEN e.kind = 'answer.failed' THEN 1 ELSE 0 END),
			COALESCE((SELECT e2.status FROM attempt_events e2
				WHERE e2.attempt_id = e.attempt_id AND e2.status != ''
				ORDER BY e2.sequence DESC LIMIT 1), ''),
			MIN(e.sequence), MAX(e.sequence),
			COALESCE(MAX(a.response_time), 0)
		FROM attempt_events e
		LEFT JOIN answered a ON a.attempt_id = e.attempt_id
		GROUP BY e.attempt_id
		ORDER BY MAX(e.sequence) DESC`
	var args []any
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query attempt summaries: %w", err)
	}

	type bounds struct{ first, last int64 }
	var (
		out  []AttemptSummary
		seqs []bounds
	)
	for rows.Next() {
		var (
			s AttemptSummary
			b bounds
		)
		if err := rows.Scan(&s.AttemptID, &s.Answers, &s.Correct, &s.Failures, &s.LastStatus,
			&b.first, &b.last, &s.TotalRespTime); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan attempt summary: %w", err)
		}
		out = append(out, s)
		seqs = append(seqs, b)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range out {
		if out[i].FirstSeen, err = r.timestampOf(ctx, seqs[i].first); err != nil {
			return nil, err
		}
		if out[i].LastSeen, err = r.timestampOf(ctx, seqs[i].last); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *eventRepo) timestampOf(ctx context.Context, seq int64) (time.Time, error) {
	var ts time.Time
	err := r.db.QueryRowContext(ctx, `SELECT timestamp FROM attempt_events WHERE sequence = ?`, seq).Scan(&ts)
	if err != nil {
		return time.Time{}, fmt.Errorf("query event timestamp: %w", err)
	}
	return ts, nil
}
