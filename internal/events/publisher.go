// Package events publishes meeting lifecycle events to a Redis stream.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/meetingsapi/meetings/internal/metrics"
)

const (
	// StreamKey is the Redis stream for meeting lifecycle events.
	StreamKey = "stream:meeting_events"

	// MaxStreamLen is the approximate max length of the stream.
	MaxStreamLen = 10000

	// PublishTimeout is the max time to wait for Redis publish.
	PublishTimeout = 200 * time.Millisecond
)

// Type names a lifecycle transition.
type Type string

const (
	TypeCreated   Type = "meeting.created"
	TypeUpdated   Type = "meeting.updated"
	TypeResponded Type = "meeting.responded"
	TypeDeleted   Type = "meeting.deleted"
)

// MeetingEvent is the payload written to the stream.
// Title is empty for a bulk delete.
type MeetingEvent struct {
	Type     Type   `json:"type"`
	Title    string `json:"title,omitempty"`
	Accepted *bool  `json:"accepted,omitempty"`
	Count    int64  `json:"count,omitempty"`
	At       int64  `json:"at"` // Unix milliseconds
}

// NewMeetingEvent stamps an event with the current time.
func NewMeetingEvent(t Type, title string) MeetingEvent {
	return MeetingEvent{Type: t, Title: title, At: time.Now().UnixMilli()}
}

// Publisher appends lifecycle events to the Redis stream.
type Publisher struct {
	redis    *redis.Client
	logger   *slog.Logger
	metrics  metrics.Recorder
	inflight sync.WaitGroup
}

// NewPublisher creates a new lifecycle event publisher.
func NewPublisher(client *redis.Client, logger *slog.Logger, recorder metrics.Recorder) *Publisher {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Publisher{
		redis:   client,
		logger:  logger.With("component", "events.publisher"),
		metrics: recorder,
	}
}

// Publish adds an event to the stream synchronously and returns its stream ID.
func (p *Publisher) Publish(ctx context.Context, event MeetingEvent) (string, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}

	id, err := p.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey,
		MaxLen: MaxStreamLen,
		Approx: true,
		ID:     "*",
		Values: map[string]interface{}{
			"type":    string(event.Type),
			"payload": string(data),
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd: %w", err)
	}

	return id, nil
}

// PublishAsync publishes without blocking the caller.
// Errors are logged but not returned (fire-and-forget).
func (p *Publisher) PublishAsync(event MeetingEvent) {
	p.inflight.Add(1)
	go func() {
		defer p.inflight.Done()

		ctx, cancel := context.WithTimeout(context.Background(), PublishTimeout)
		defer cancel()

		streamID, err := p.Publish(ctx, event)
		if err != nil {
			p.logger.Warn("failed to publish meeting event",
				"type", event.Type,
				"title", event.Title,
				"error", err,
			)
			p.metrics.IncEventPublished("dropped")
			return
		}

		p.logger.Debug("meeting event published",
			"type", event.Type,
			"title", event.Title,
			"stream_id", streamID,
		)
		p.metrics.IncEventPublished("success")
	}()
}

// Drain waits for in-flight asynchronous publishes or for ctx to end.
func (p *Publisher) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Discard is a publisher that drops every event. It is used when the
// event stream is disabled.
type Discard struct{}

// PublishAsync drops the event.
func (Discard) PublishAsync(MeetingEvent) {}
