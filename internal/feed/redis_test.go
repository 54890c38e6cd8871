package feed

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/pictionary-server/testing/suite"
)

func TestRedisFeed(t *testing.T) {
	if testing.Short() {
		t.Skip("needs docker")
	}

	ctx, st := suite.New(t)

	t.Run("Published events reach subscribers", func(t *testing.T) {
		// Given: a subscriber on the feed channel and a running feed
		const channel = "pictionary:test"

		sub := st.Storage.Subscribe(ctx, channel)
		t.Cleanup(func() { _ = sub.Close() })

		_, err := sub.Receive(ctx)
		require.NoError(t, err)

		feed := NewRedisFeed(st.Logger, st.Storage, channel, 4)
		go feed.Run(ctx)

		// When: publishing a round start
		at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		feed.Publish(Event{Type: EventRoundStarted, Drawer: "Player_1234", Players: 2, At: at})

		// Then: the subscriber gets the JSON event
		msg, err := sub.ReceiveMessage(ctx)
		require.NoError(t, err)

		var got Event
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, Event{Type: EventRoundStarted, Drawer: "Player_1234", Players: 2, At: at}, got)
	})
}

func TestRedisFeed_PublishNeverBlocks(t *testing.T) {
	// Given: a feed whose queue nobody drains
	feed := NewRedisFeed(slog.New(slog.NewTextHandler(io.Discard, nil)), nil, "unused", 1)

	// When: publishing more events than the queue holds
	done := make(chan struct{})
	go func() {
		feed.Publish(Event{Type: EventPlayerJoined})
		feed.Publish(Event{Type: EventPlayerLeft})
		close(done)
	}()

	// Then: publish returns and the first event stays queued
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full queue")
	}

	assert.Equal(t, EventPlayerJoined, (<-feed.queue).Type)
}
