package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultQueueSize = 128
	drainTimeout     = 2 * time.Second
)

type publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisFeed pushes events to a redis Pub/Sub channel from its own goroutine,
// so a slow redis never stalls the game loop.
type RedisFeed struct {
	logger  *slog.Logger
	client  publisher
	channel string
	queue   chan Event
}

func NewRedisFeed(logger *slog.Logger, client publisher, channel string, queueSize int) *RedisFeed {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	return &RedisFeed{
		logger:  logger,
		client:  client,
		channel: channel,
		queue:   make(chan Event, queueSize),
	}
}

// Publish - queues the event. When the queue is full the event is dropped.
func (that *RedisFeed) Publish(event Event) {
	select {
	case that.queue <- event:
	default:
		that.logger.Warn("feed queue is full, dropping event", "type", event.Type)
	}
}

// Run - sends queued events until ctx is done, then flushes what is still queued.
func (that *RedisFeed) Run(ctx context.Context) {
	log := that.logger.With("method", "Run")

	for {
		if ctx.Err() != nil {
			that.drain()
			return
		}

		select {
		case <-ctx.Done():
			that.drain()
			return
		case event := <-that.queue:
			if err := that.send(ctx, event); err != nil {
				log.Error("failed to publish event", "type", event.Type, "error", err)
			}
		}
	}
}

func (that *RedisFeed) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	for {
		select {
		case event := <-that.queue:
			if err := that.send(ctx, event); err != nil {
				that.logger.Warn("failed to flush event", "type", event.Type, "error", err)
				return
			}
		default:
			return
		}
	}
}

func (that *RedisFeed) send(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err = that.client.Publish(ctx, that.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", that.channel, err)
	}

	return nil
}
