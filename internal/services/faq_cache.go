package services

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/unach-dtic/chatbot-api/internal/database"
	"github.com/unach-dtic/chatbot-api/internal/embedding"
	"github.com/unach-dtic/chatbot-api/internal/logging"
	"github.com/unach-dtic/chatbot-api/internal/models"
)

// faqSnapshot pairs FAQ rows with embeddings of their normalized questions.
// Snapshots are immutable; Reload builds a fresh one and swaps the pointer.
type faqSnapshot struct {
	entries []models.FaqEntry
	vectors [][]float32
}

// FaqCache serves FAQ lookups from an in-memory snapshot so resolver traffic
// never touches the database. Readers racing a Reload see either the old or
// the new snapshot, never a mix.
type FaqCache struct {
	db     database.DBPool
	engine embedding.Engine
	logger *logging.StandardLogger
	snap   atomic.Pointer[faqSnapshot]
}

// NewFaqCache builds an empty cache. Call Reload before serving queries.
func NewFaqCache(db database.DBPool, engine embedding.Engine, logger *logging.StandardLogger) *FaqCache {
	c := &FaqCache{db: db, engine: engine, logger: logger}
	c.snap.Store(&faqSnapshot{})
	return c
}

// Reload reads every FAQ row, embeds the normalized questions, and atomically
// replaces the snapshot. On any error the previous snapshot stays in place.
func (c *FaqCache) Reload(ctx context.Context) error {
	rows, err := c.db.Query(ctx, `
		SELECT id, pregunta, respuesta, COALESCE(categoria, ''), fecha_creacion, fecha_update
		FROM faq
		ORDER BY id`)
	if err != nil {
		return fmt.Errorf("loading faq rows: %w", err)
	}
	defer rows.Close()

	var entries []models.FaqEntry
	for rows.Next() {
		var e models.FaqEntry
		if err := rows.Scan(&e.ID, &e.Pregunta, &e.Respuesta, &e.Categoria, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return fmt.Errorf("scanning faq row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating faq rows: %w", err)
	}

	snapshot := &faqSnapshot{entries: entries}
	if len(entries) > 0 {
		questions := make([]string, len(entries))
		for i, e := range entries {
			questions[i] = embedding.NormalizeText(e.Pregunta)
		}
		vectors, err := c.engine.EmbedBatch(ctx, questions)
		if err != nil {
			return fmt.Errorf("embedding faq questions: %w", err)
		}
		snapshot.vectors = vectors
	}

	c.snap.Store(snapshot)
	c.logger.WithComponent("faq_cache").Info("FAQ snapshot reloaded",
		zap.Int("entries", len(entries)))
	return nil
}

// Len reports the entry count of the current snapshot.
func (c *FaqCache) Len() int {
	return len(c.snap.Load().entries)
}

// Lookup returns the FAQ entry closest to vec and its cosine score. ok is
// false when the snapshot is empty.
func (c *FaqCache) Lookup(vec []float32) (models.FaqEntry, float64, bool, error) {
	snapshot := c.snap.Load()
	if len(snapshot.entries) == 0 {
		return models.FaqEntry{}, 0, false, nil
	}

	bestIdx := -1
	bestScore := -1.0
	for i, candidate := range snapshot.vectors {
		score, err := embedding.CosineSimilarity(vec, candidate)
		if err != nil {
			return models.FaqEntry{}, 0, false, err
		}
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	return snapshot.entries[bestIdx], bestScore, true, nil
}
