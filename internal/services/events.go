package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/AnshRaj112/grow-backend/internal/models"
)

// EventChannelPrefix is the Redis pub/sub channel prefix for per-user journal events.
const EventChannelPrefix = "journal:events:"

// JournalEvents fans journal changes out over Redis pub/sub so every instance can
// forward them to the owner's open sockets.
type JournalEvents struct {
	client *redis.Client
	log    *zap.Logger
}

func NewJournalEvents(client *redis.Client, log *zap.Logger) *JournalEvents {
	return &JournalEvents{client: client, log: log}
}

func eventChannel(userID string) string {
	return EventChannelPrefix + userID
}

// Publish implements EventPublisher.
func (e *JournalEvents) Publish(ctx context.Context, userID string, event models.JournalEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return e.client.Publish(ctx, eventChannel(userID), data).Err()
}

// Subscribe streams the user's events until ctx is done or the returned stop func is called.
// The subscription is confirmed before Subscribe returns.
func (e *JournalEvents) Subscribe(ctx context.Context, userID string) (<-chan models.JournalEvent, func(), error) {
	pubsub := e.client.Subscribe(ctx, eventChannel(userID))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, nil, err
	}

	out := make(chan models.JournalEvent, 16)
	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			var event models.JournalEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				e.log.Sugar().Warnw("failed to unmarshal journal event", "user", userID, "err", err)
				continue
			}
			select {
			case out <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	stop := func() { pubsub.Close() }
	return out, stop, nil
}
