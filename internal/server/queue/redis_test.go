package queue

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions(t *testing.T) {
	t.Run("upstash rest url", func(t *testing.T) {
		opts, err := Options("https://eu1-fine-cat-12345.upstash.io", "tok")
		require.NoError(t, err)
		assert.Equal(t, "eu1-fine-cat-12345.upstash.io:6379", opts.Addr)
		assert.Equal(t, "default", opts.Username)
		assert.Equal(t, "tok", opts.Password)
		assert.NotNil(t, opts.TLSConfig)
	})

	t.Run("plain redis url gets token as password", func(t *testing.T) {
		opts, err := Options("redis://cache:6380/2", "tok")
		require.NoError(t, err)
		assert.Equal(t, "cache:6380", opts.Addr)
		assert.Equal(t, 2, opts.DB)
		assert.Equal(t, "tok", opts.Password)
		assert.Nil(t, opts.TLSConfig)
	})

	t.Run("url password wins", func(t *testing.T) {
		opts, err := Options("rediss://u:pw@cache:6380", "tok")
		require.NoError(t, err)
		assert.Equal(t, "pw", opts.Password)
	})

	t.Run("unsupported scheme", func(t *testing.T) {
		_, err := Options("ftp://cache", "")
		assert.Error(t, err)
	})

	t.Run("no host", func(t *testing.T) {
		_, err := Options("https://", "tok")
		assert.Error(t, err)
	})
}

func TestNewClient(t *testing.T) {
	mr := miniredis.RunT(t)

	c, err := NewClient(context.Background(), "redis://"+mr.Addr(), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	assert.NoError(t, c.Ping(context.Background()).Err())

	mr.Close()
	_, err = NewClient(context.Background(), "redis://"+mr.Addr(), "")
	assert.Error(t, err)
}
