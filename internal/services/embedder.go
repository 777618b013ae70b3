// Package services implements the chatbot's domain logic: intent resolution,
// OTP issuance and consumption, identity lookup, credential backends, and
// the audit log.
package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/unach-dtic/chatbot-api/internal/embedding"
	"github.com/unach-dtic/chatbot-api/internal/services/workerpool"
)

// EmbeddingDispatcher routes embedding computation through the worker pool
// so CPU-bound vector work never runs on a request-handling goroutine. It
// satisfies embedding.Engine and can stand in wherever an engine is needed.
type EmbeddingDispatcher struct {
	engine embedding.Engine
	pool   *workerpool.Pool
}

// NewEmbeddingDispatcher wraps engine with pool-based dispatch.
func NewEmbeddingDispatcher(engine embedding.Engine, pool *workerpool.Pool) *EmbeddingDispatcher {
	return &EmbeddingDispatcher{engine: engine, pool: pool}
}

// Embed computes one embedding on the pool, honoring ctx cancellation while
// waiting.
func (d *EmbeddingDispatcher) Embed(ctx context.Context, text string) ([]float32, error) {
	var vec []float32
	resultCh, err := d.pool.SubmitAsync(workerpool.Task{
		ID: uuid.New().String(),
		Execute: func() error {
			var embedErr error
			vec, embedErr = d.engine.Embed(ctx, text)
			return embedErr
		},
	})
	if err != nil {
		return nil, fmt.Errorf("embedding pool unavailable: %w", err)
	}

	select {
	case res := <-resultCh:
		if res.Error != nil {
			return nil, res.Error
		}
		return vec, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// EmbedBatch computes a batch on the pool as a single task.
func (d *EmbeddingDispatcher) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var vecs [][]float32
	resultCh, err := d.pool.SubmitAsync(workerpool.Task{
		ID: uuid.New().String(),
		Execute: func() error {
			var embedErr error
			vecs, embedErr = d.engine.EmbedBatch(ctx, texts)
			return embedErr
		},
	})
	if err != nil {
		return nil, fmt.Errorf("embedding pool unavailable: %w", err)
	}

	select {
	case res := <-resultCh:
		if res.Error != nil {
			return nil, res.Error
		}
		return vecs, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Name returns the inner engine name.
func (d *EmbeddingDispatcher) Name() string {
	return d.engine.Name()
}
