package feed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/wolfman30/herbal-board/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("herbal.internal.feed")

// RedisBus fans events out over Redis pub/sub, one channel per board.
type RedisBus struct {
	client *redis.Client
	owner  string
	logger *logging.Logger
}

// NewRedisBus creates a bus for the board identified by owner.
func NewRedisBus(client *redis.Client, owner string, logger *logging.Logger) *RedisBus {
	if client == nil {
		panic("feed: redis client required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RedisBus{client: client, owner: owner, logger: logger}
}

// Channel is the pub/sub channel of a board.
func Channel(owner string) string {
	return fmt.Sprintf("board:feed:%s", owner)
}

// Publish implements Bus.
func (b *RedisBus) Publish(ctx context.Context, ev Event) error {
	ctx, span := tracer.Start(ctx, "feed.publish", trace.WithAttributes(
		attribute.String("board.event_type", string(ev.Type)),
		attribute.String("board.patient_id", ev.PatientID),
	))
	defer span.End()

	if ev.OwnerKey == "" {
		ev.OwnerKey = b.owner
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("feed: marshal event: %w", err)
	}
	if err := b.client.Publish(ctx, Channel(ev.OwnerKey), data).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("feed: publish: %w", err)
	}
	return nil
}

// Subscribe implements Bus. It returns once the subscription is confirmed.
func (b *RedisBus) Subscribe(ctx context.Context) (<-chan Event, error) {
	pubsub := b.client.Subscribe(ctx, Channel(b.owner))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("feed: subscribe: %w", err)
	}

	out := make(chan Event, subscriberBuffer)
	go func() {
		defer close(out)
		defer pubsub.Close()

		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					b.logger.Warn("feed: dropping malformed event", "channel", msg.Channel, "error", err)
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
