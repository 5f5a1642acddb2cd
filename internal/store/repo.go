package store

import (
	"context"
	"time"
)

// QueryOpts configures journal queries.
type QueryOpts struct {
	Limit     int   // max results (0 = unlimited)
	AttemptID int64 // 0 = all attempts
	After     int64 // sequence > After
	From      time.Time
	To        time.Time
}

// EventData is one journal entry as written by the client.
type EventData struct {
	RunID        string
	Kind         string
	AttemptID    int64
	QuestionID   int64
	Difficulty   string
	Correct      *bool
	Status       string
	ResponseTime int
	Message      string
	Timestamp    time.Time // zero means now
}

// Event is a stored journal entry.
type Event struct {
	Sequence int64
	EventData
}

// AttemptSummary aggregates the journal for one attempt.
type AttemptSummary struct {
	AttemptID     int64
	Answers       int
	Correct       int
	Failures      int
	LastStatus    string
	FirstSeen     time.Time
	LastSeen      time.Time
	TotalRespTime int
}

// EventRepo provides append and query access to the journal.
type EventRepo interface {
	// Append records an entry and returns its sequence number.
	Append(ctx context.Context, data EventData) (int64, error)

	// Query returns entries in sequence order.
	Query(ctx context.Context, opts QueryOpts) ([]Event, error)

	// Summaries returns per-attempt aggregates, most recent first.
	Summaries(ctx context.Context, limit int) ([]AttemptSummary, error)
}
