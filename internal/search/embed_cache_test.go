package search

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryKV struct {
	mu      sync.Mutex
	data    map[string][]byte
	ttls    map[string]time.Duration
	readErr error
}

func newMemoryKV() *memoryKV {
	return &memoryKV{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memoryKV) Get(_ context.Context, key string) *redis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return redis.NewStringResult("", m.readErr)
	}
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(string(v), nil)
}

func (m *memoryKV) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value.([]byte)
	m.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func TestCachedEmbedder(t *testing.T) {
	ctx := context.Background()

	t.Run("should embed once and serve repeats from cache", func(t *testing.T) {
		inner := new(MockEmbedder)
		inner.On("Embed", ctx, "spicy tofu").Return([]float32{0.25, -0.5}, nil).Once()
		kv := newMemoryKV()
		cached := NewCachedEmbedder(inner, kv, time.Hour)

		first, err := cached.Embed(ctx, "spicy tofu")
		require.NoError(t, err)
		second, err := cached.Embed(ctx, "spicy tofu")
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, time.Hour, kv.ttls[embeddingKey("spicy tofu")])
		inner.AssertNumberOfCalls(t, "Embed", 1)
	})

	t.Run("should fall through when redis is unavailable", func(t *testing.T) {
		inner := new(MockEmbedder)
		inner.On("Embed", ctx, "soup").Return([]float32{1}, nil)
		kv := newMemoryKV()
		kv.readErr = errors.New("dial tcp: connection refused")

		vec, err := NewCachedEmbedder(inner, kv, 0).Embed(ctx, "soup")
		require.NoError(t, err)
		assert.Equal(t, []float32{1}, vec)
	})

	t.Run("should not cache provider errors", func(t *testing.T) {
		inner := new(MockEmbedder)
		inner.On("Embed", ctx, "soup").Return(nil, errors.New("quota exceeded"))
		kv := newMemoryKV()

		_, err := NewCachedEmbedder(inner, kv, time.Minute).Embed(ctx, "soup")
		assert.Error(t, err)
		assert.Empty(t, kv.data)
	})

	t.Run("should bypass cache without a client", func(t *testing.T) {
		inner := new(MockEmbedder)
		inner.On("Embed", ctx, "soup").Return([]float32{2}, nil).Twice()
		cached := NewCachedEmbedder(inner, nil, time.Minute)

		_, _ = cached.Embed(ctx, "soup")
		_, _ = cached.Embed(ctx, "soup")
		inner.AssertNumberOfCalls(t, "Embed", 2)
	})
}
