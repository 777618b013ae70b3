package services

import (
	"context"
	"fmt"

	"github.com/unach-dtic/chatbot-api/internal/embedding"
)

// SimilarityIndex holds a fixed phrase set with precomputed embeddings and
// answers nearest-phrase queries by cosine similarity. Phrases are embedded
// once at construction in their normalized form.
type SimilarityIndex struct {
	phrases []string
	vectors [][]float32
}

// NewSimilarityIndex embeds every phrase and builds the index.
func NewSimilarityIndex(ctx context.Context, engine embedding.Engine, phrases []string) (*SimilarityIndex, error) {
	if len(phrases) == 0 {
		return nil, fmt.Errorf("similarity index requires at least one phrase")
	}
	normalized := make([]string, len(phrases))
	for i, p := range phrases {
		normalized[i] = embedding.NormalizeText(p)
	}
	vectors, err := engine.EmbedBatch(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("embedding phrase set: %w", err)
	}
	return &SimilarityIndex{phrases: phrases, vectors: vectors}, nil
}

// Best returns the index and cosine score of the phrase closest to vec.
// Ties keep the earliest phrase. Dimension mismatches surface as errors.
func (s *SimilarityIndex) Best(vec []float32) (int, float64, error) {
	bestIdx := -1
	bestScore := -1.0
	for i, candidate := range s.vectors {
		score, err := embedding.CosineSimilarity(vec, candidate)
		if err != nil {
			return -1, 0, err
		}
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	return bestIdx, bestScore, nil
}

// Len reports the phrase count.
func (s *SimilarityIndex) Len() int {
	return len(s.phrases)
}
