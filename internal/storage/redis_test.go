package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/pictionary-server/internal/apperror"
	"github.com/rocketscienceinc/pictionary-server/internal/storage"
	"github.com/rocketscienceinc/pictionary-server/testing/suite"
)

func TestNewRedis(t *testing.T) {
	t.Run("Empty address returns ErrRedisAddrNotFound", func(t *testing.T) {
		_, err := storage.NewRedis(context.Background(), "")

		require.ErrorIs(t, err, apperror.ErrRedisAddrNotFound)
	})

	t.Run("Unreachable redis is an error", func(t *testing.T) {
		// Given: a port nobody listens on
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		// When: connecting
		_, err := storage.NewRedis(ctx, "127.0.0.1:1")

		// Then: the ping fails
		require.Error(t, err)
	})

	t.Run("Live redis answers", func(t *testing.T) {
		if testing.Short() {
			t.Skip("needs docker")
		}

		// Given: a redis container
		ctx, st := suite.New(t)

		// When: connecting again with the same address
		client, err := storage.NewRedis(ctx, st.RedisAddr)
		require.NoError(t, err)
		t.Cleanup(func() { _ = client.Close() })

		// Then: commands work
		require.NoError(t, client.Set(ctx, "pictionary:healthcheck", "ok", time.Minute).Err())
		got, err := client.Get(ctx, "pictionary:healthcheck").Result()
		require.NoError(t, err)
		assert.Equal(t, "ok", got)
	})
}
