package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedEngine decorates an Engine with a redis-backed vector cache keyed by
// normalized text. Query texts repeat heavily (greetings, the same FAQ
// phrasings), so memoizing vectors keeps the embedding provider off the hot
// path. Cache failures are silent: a miss or a redis error just falls
// through to the inner engine.
type CachedEngine struct {
	inner  Engine
	client *redis.Client
	ttl    time.Duration
}

// NewCachedEngine wraps engine with a vector cache.
func NewCachedEngine(inner Engine, client *redis.Client, ttl time.Duration) *CachedEngine {
	return &CachedEngine{inner: inner, client: client, ttl: ttl}
}

// Embed returns a cached vector when present, otherwise computes and stores it.
func (e *CachedEngine) Embed(ctx context.Context, text string) ([]float32, error) {
	key := e.cacheKey(text)

	if raw, err := e.client.Get(ctx, key).Bytes(); err == nil {
		if vec, err := decodeVector(raw); err == nil {
			return vec, nil
		}
	}

	vec, err := e.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	e.client.Set(ctx, key, encodeVector(vec), e.ttl)
	return vec, nil
}

// EmbedBatch computes embeddings, consulting the cache per text.
func (e *CachedEngine) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int

	for i, text := range texts {
		if raw, err := e.client.Get(ctx, e.cacheKey(text)).Bytes(); err == nil {
			if vec, err := decodeVector(raw); err == nil {
				vectors[i] = vec
				continue
			}
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) == 0 {
		return vectors, nil
	}

	computed, err := e.inner.EmbedBatch(ctx, missing)
	if err != nil {
		return nil, err
	}
	for j, vec := range computed {
		vectors[missingIdx[j]] = vec
		e.client.Set(ctx, e.cacheKey(missing[j]), encodeVector(vec), e.ttl)
	}
	return vectors, nil
}

// Name returns the inner engine name.
func (e *CachedEngine) Name() string {
	return e.inner.Name()
}

func (e *CachedEngine) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(NormalizeText(text)))
	return "embedding:" + e.inner.Name() + ":" + hex.EncodeToString(sum[:])
}

func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(raw []byte) ([]float32, error) {
	if len(raw) == 0 || len(raw)%4 != 0 {
		return nil, fmt.Errorf("malformed cached vector of %d bytes", len(raw))
	}
	vec := make([]float32, len(raw)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return vec, nil
}
