package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/abhisek/quizpath/internal/logging"
)

// Topic carries every attempt activity event.
const Topic = "attempt.activity"

// Kind names an activity.
type Kind string

const (
	AttemptOpened     Kind = "attempt.opened"
	AnswerSubmitted   Kind = "answer.submitted"
	AnswerFailed      Kind = "answer.failed"
	DifficultyChanged Kind = "difficulty.changed"
	SequenceExhausted Kind = "sequence.exhausted"
	AttemptSubmitted  Kind = "attempt.submitted"
	AttemptSaved      Kind = "attempt.saved"
	SessionExpired    Kind = "session.expired"
)

// Event is one thing the client did or observed during an attempt.
type Event struct {
	Kind         Kind      `json:"kind"`
	AttemptID    int64     `json:"attemptId"`
	QuestionID   int64     `json:"questionId,omitempty"`
	Difficulty   string    `json:"difficulty,omitempty"`
	Correct      *bool     `json:"correct,omitempty"`
	Status       string    `json:"status,omitempty"`
	ResponseTime int       `json:"responseTime,omitempty"`
	Message      string    `json:"message,omitempty"`
	At           time.Time `json:"at"`
}

// Publisher accepts activity events. Implementations must not block the
// caller for long; the attempt never waits on observability.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Handler consumes one event.
type Handler func(ctx context.Context, e Event) error

// Bus is an in-process publisher/subscriber over a watermill GoChannel.
type Bus struct {
	pubsub *gochannel.GoChannel
	logger logging.Logger
}

// NewBus creates a bus. Events published with no subscriber are dropped.
func NewBus(logger logging.Logger) *Bus {
	ps := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 64,
	}, watermill.NewSlogLogger(logger.Slog()))
	return &Bus{pubsub: ps, logger: logger}
}

// Publish marshals e and sends it on Topic.
func (b *Bus) Publish(_ context.Context, e Event) error {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("kind", string(e.Kind))

	if err := b.pubsub.Publish(Topic, msg); err != nil {
		return fmt.Errorf("publish %s: %w", e.Kind, err)
	}
	return nil
}

// Subscribe starts delivering events to h until ctx is cancelled or the bus
// is closed. Handler errors are logged and the message is acknowledged
// anyway so a broken sink cannot wedge the bus.
func (b *Bus) Subscribe(ctx context.Context, h Handler) error {
	msgs, err := b.pubsub.Subscribe(ctx, Topic)
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	go func() {
		for msg := range msgs {
			var e Event
			if err := json.Unmarshal(msg.Payload, &e); err != nil {
				b.logger.LogError(err, "decode activity event", "message_id", msg.UUID)
				msg.Ack()
				continue
			}
			if err := h(msg.Context(), e); err != nil {
				b.logger.LogError(err, "handle activity event", "kind", e.Kind, "attempt_id", e.AttemptID)
			}
			msg.Ack()
		}
	}()
	return nil
}

// Close shuts the bus down and closes subscriber channels.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}

// Discard is a Publisher that drops everything.
type Discard struct{}

func (Discard) Publish(context.Context, Event) error { return nil }
