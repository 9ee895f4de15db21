package persistence

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisClient(t *testing.T) {
	t.Run("connects", func(t *testing.T) {
		mr := miniredis.RunT(t)

		client, err := NewRedisClient(context.Background(), "redis://"+mr.Addr()+"/0")
		require.NoError(t, err)
		defer client.Close()

		require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
		got, err := mr.Get("k")
		require.NoError(t, err)
		assert.Equal(t, "v", got)
	})

	t.Run("empty url", func(t *testing.T) {
		_, err := NewRedisClient(context.Background(), "")
		assert.EqualError(t, err, "redis url is required")
	})

	t.Run("bad url", func(t *testing.T) {
		_, err := NewRedisClient(context.Background(), "http://nope")
		assert.ErrorContains(t, err, "parse redis url")
	})
}
