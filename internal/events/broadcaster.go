package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ChangeNotice is the compact invalidation record broadcast to other
// dashboard processes. Consumers re-fetch the affected list; no delta is
// carried.
type ChangeNotice struct {
	Type         EventType `json:"type"`
	TicketID     string    `json:"ticket_id,omitempty"`
	DepartmentID string    `json:"department_id"`
	Timestamp    time.Time `json:"timestamp"`
}

// Broadcaster publishes change notices to a Redis channel and exposes a
// subscription as a plain Go channel, decoupled from any UI lifecycle.
type Broadcaster struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

// NewBroadcaster builds a broadcaster on the given Redis client.
func NewBroadcaster(client *redis.Client, channel string, logger *zap.Logger) *Broadcaster {
	return &Broadcaster{client: client, channel: channel, logger: logger}
}

// Handler returns an EventHandler that forwards every event it sees to
// the Redis channel. Publish failures are logged, never propagated.
func (b *Broadcaster) Handler() EventHandler {
	return func(ctx context.Context, event Event) error {
		notice := ChangeNotice{
			Type:         event.Type,
			TicketID:     event.TicketID,
			DepartmentID: event.DepartmentID,
			Timestamp:    event.Timestamp,
		}
		payload, err := json.Marshal(notice)
		if err != nil {
			return err
		}
		if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
			b.logger.Warn("change feed publish failed", zap.Error(err))
		}
		return nil
	}
}

// Subscribe returns a channel of change notices. The channel closes when
// ctx is cancelled. Malformed messages are dropped with a log entry.
func (b *Broadcaster) Subscribe(ctx context.Context) <-chan ChangeNotice {
	sub := b.client.Subscribe(ctx, b.channel)
	out := make(chan ChangeNotice)

	go func() {
		defer close(out)
		defer sub.Close() //nolint:errcheck
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var notice ChangeNotice
				if err := json.Unmarshal([]byte(msg.Payload), &notice); err != nil {
					b.logger.Warn("malformed change notice", zap.Error(err))
					continue
				}
				select {
				case out <- notice:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
