package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/unach-dtic/chatbot-api/internal/embedding"
	"github.com/unach-dtic/chatbot-api/internal/logging"
)

// corpusChunkSize caps the character length of a corpus chunk.
const corpusChunkSize = 500

type corpusChunk struct {
	text   string
	source string
}

type corpusSnapshot struct {
	chunks  []corpusChunk
	vectors [][]float32
}

// CorpusSearcher answers queries from scraped institutional pages stored as
// plain-text files. Files are chunked, embedded once at load time, and
// searched by cosine similarity. Like the FAQ cache, the loaded snapshot is
// swapped atomically.
type CorpusSearcher struct {
	dir    string
	engine embedding.Engine
	logger *logging.StandardLogger
	snap   atomic.Pointer[corpusSnapshot]
}

// NewCorpusSearcher builds an empty searcher over dir. Call Load before use.
func NewCorpusSearcher(dir string, engine embedding.Engine, logger *logging.StandardLogger) *CorpusSearcher {
	s := &CorpusSearcher{dir: dir, engine: engine, logger: logger}
	s.snap.Store(&corpusSnapshot{})
	return s
}

// Load reads every .txt file under the corpus directory, chunks it, embeds
// the chunks, and swaps the snapshot. A missing directory is not an error;
// it just leaves the searcher empty.
func (s *CorpusSearcher) Load(ctx context.Context) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.WithComponent("corpus").Warn("corpus directory missing, scraping search disabled",
				zap.String("dir", s.dir))
			s.snap.Store(&corpusSnapshot{})
			return nil
		}
		return fmt.Errorf("reading corpus directory: %w", err)
	}

	var chunks []corpusChunk
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("reading corpus file %s: %w", entry.Name(), err)
		}
		source := strings.TrimSuffix(entry.Name(), ".txt")
		for _, text := range chunkText(string(data), corpusChunkSize) {
			chunks = append(chunks, corpusChunk{text: text, source: source})
		}
	}

	snapshot := &corpusSnapshot{chunks: chunks}
	if len(chunks) > 0 {
		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = embedding.NormalizeText(c.text)
		}
		vectors, err := s.engine.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("embedding corpus chunks: %w", err)
		}
		snapshot.vectors = vectors
	}

	s.snap.Store(snapshot)
	s.logger.WithComponent("corpus").Info("corpus loaded",
		zap.String("dir", s.dir),
		zap.Int("chunks", len(chunks)))
	return nil
}

// Len reports the chunk count of the current snapshot.
func (s *CorpusSearcher) Len() int {
	return len(s.snap.Load().chunks)
}

// Search returns the chunk closest to vec with its source name and score.
// ok is false when the corpus is empty.
func (s *CorpusSearcher) Search(vec []float32) (text, source string, score float64, ok bool, err error) {
	snapshot := s.snap.Load()
	if len(snapshot.chunks) == 0 {
		return "", "", 0, false, nil
	}

	bestIdx := -1
	bestScore := -1.0
	for i, candidate := range snapshot.vectors {
		sim, simErr := embedding.CosineSimilarity(vec, candidate)
		if simErr != nil {
			return "", "", 0, false, simErr
		}
		if sim > bestScore {
			bestScore = sim
			bestIdx = i
		}
	}
	best := snapshot.chunks[bestIdx]
	return best.text, best.source, bestScore, true, nil
}

// chunkText packs non-empty lines into chunks of at most max characters,
// never splitting a line across chunks unless the line itself exceeds max.
func chunkText(text string, max int) []string {
	var chunks []string
	var current strings.Builder
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		for len(line) > max {
			if current.Len() > 0 {
				chunks = append(chunks, current.String())
				current.Reset()
			}
			chunks = append(chunks, line[:max])
			line = line[max:]
		}
		if current.Len() > 0 && current.Len()+1+len(line) > max {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte('\n')
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}
