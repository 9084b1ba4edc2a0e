package search

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/pageza/alchemorsel-search/internal/logging"
)

const embeddingKeyPrefix = "search:embedding:"

// RedisKV is the subset of *redis.Client used by the embedding cache.
type RedisKV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// CachedEmbedder memoizes query embeddings in Redis. Cache errors are
// logged and fall through to the wrapped embedder.
type CachedEmbedder struct {
	next   QueryEmbedder
	kv     RedisKV
	ttl    time.Duration
	logger zerolog.Logger
}

// NewCachedEmbedder wraps next with a Redis cache. A nil kv disables caching.
func NewCachedEmbedder(next QueryEmbedder, kv RedisKV, ttl time.Duration) *CachedEmbedder {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CachedEmbedder{next: next, kv: kv, ttl: ttl, logger: logging.WithComponent("embed_cache")}
}

func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if c.kv == nil {
		return c.next.Embed(ctx, text)
	}
	key := embeddingKey(text)

	raw, err := c.kv.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var vec []float32
		if jerr := json.Unmarshal(raw, &vec); jerr == nil && len(vec) > 0 {
			return vec, nil
		}
		c.logger.Warn().Str("key", key).Msg("discarding undecodable cached embedding")
	case !errors.Is(err, redis.Nil):
		c.logger.Warn().Err(err).Msg("embedding cache read failed")
	}

	vec, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if payload, jerr := json.Marshal(vec); jerr == nil {
		if serr := c.kv.Set(ctx, key, payload, c.ttl).Err(); serr != nil {
			c.logger.Warn().Err(serr).Msg("embedding cache write failed")
		}
	}
	return vec, nil
}

func embeddingKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return embeddingKeyPrefix + hex.EncodeToString(sum[:])
}
