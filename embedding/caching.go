package embedding

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	knowledgebase "github.com/AdamTovatt/easy-reasy-knowledge-base-sub001"
	"github.com/cespare/xxhash"
	"github.com/redis/go-redis/v9"
)

// Cache is the backing store a CachingEmbedder writes hits and misses
// through. RedisCache, below, is a Redis-backed implementation; MemoryCache
// is an in-process map for tests and small pipelines.
type Cache interface {
	Get(ctx context.Context, key uint64) ([]float32, bool, error)
	Set(ctx context.Context, key uint64, vec []float32) error
}

// MemoryCache is an in-process Cache implementation, safe for concurrent
// use.
type MemoryCache struct {
	mu    sync.RWMutex
	items map[uint64][]float32
}

// NewMemoryCache constructs an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: make(map[uint64][]float32)}
}

// Get returns the cached vector for key, if present.
func (c *MemoryCache) Get(_ context.Context, key uint64) ([]float32, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	vec, ok := c.items[key]
	return vec, ok, nil
}

// Set stores vec under key.
func (c *MemoryCache) Set(_ context.Context, key uint64, vec []float32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = append([]float32(nil), vec...)
	return nil
}

// CachingEmbedder decorates an Embedder with an xxhash-keyed cache, avoiding
// a round trip to the embedding backend for text it has already seen.
type CachingEmbedder struct {
	inner knowledgebase.Embedder
	cache Cache
}

// NewCachingEmbedder wraps inner with cache.
func NewCachingEmbedder(inner knowledgebase.Embedder, cache Cache) *CachingEmbedder {
	return &CachingEmbedder{inner: inner, cache: cache}
}

// Embed returns the cached vector for text when available, otherwise
// delegates to the wrapped embedder and populates the cache.
func (c *CachingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := xxhash.Sum64String(text)

	if vec, ok, err := c.cache.Get(ctx, key); err != nil {
		return nil, fmt.Errorf("embedding: cache get: %w", err)
	} else if ok {
		return vec, nil
	}

	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, key, vec); err != nil {
		return nil, fmt.Errorf("embedding: cache set: %w", err)
	}
	return vec, nil
}

// Dimensions delegates to the wrapped embedder.
func (c *CachingEmbedder) Dimensions() int {
	return c.inner.Dimensions()
}

// RedisCache is a Cache implementation backed by Redis, letting an embedding
// cache survive process restarts and be shared across pipeline instances.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache wraps client. A ttl of zero means cached vectors never
// expire.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// Get returns the cached vector for key, if present.
func (r *RedisCache) Get(ctx context.Context, key uint64) ([]float32, bool, error) {
	buf, err := r.client.Get(ctx, strconv.FormatUint(key, 16)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	return decodeVector(buf), true, nil
}

// Set stores vec under key with the configured TTL.
func (r *RedisCache) Set(ctx context.Context, key uint64, vec []float32) error {
	if err := r.client.Set(ctx, strconv.FormatUint(key, 16), encodeVector(vec), r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// encodeVector and decodeVector are used by Cache implementations that only
// store bytes (e.g. a Redis-backed Cache) to serialize float32 vectors
// without pulling in a general-purpose codec for a fixed-width format.
func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(buf []byte) []float32 {
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec
}
