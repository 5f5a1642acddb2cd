package events

import (
	"context"

	"github.com/abhisek/quizpath/internal/store"
)

// JournalTo returns a Handler that appends every event to repo under runID.
func JournalTo(repo store.EventRepo, runID string) Handler {
	return func(ctx context.Context, e Event) error {
		_, err := repo.Append(ctx, store.EventData{
			RunID:        runID,
			Kind:         string(e.Kind),
			AttemptID:    e.AttemptID,
			QuestionID:   e.QuestionID,
			Difficulty:   e.Difficulty,
			Correct:      e.Correct,
			Status:       e.Status,
			ResponseTime: e.ResponseTime,
			Message:      e.Message,
			Timestamp:    e.At,
		})
		return err
	}
}
