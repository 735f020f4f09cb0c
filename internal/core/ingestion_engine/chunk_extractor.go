package ingestion_engine

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/markdave123-py/legalmind/internal/core"
	"github.com/markdave123-py/legalmind/internal/core/normalizer"
	"github.com/markdave123-py/legalmind/internal/models"
)

// buildChunks segments the normalized pages of a corpus and returns chunk
// rows with dense ordinals 0..N-1. Each chunk is normalized again since a cut
// can leave leading or trailing whitespace, and chunks that normalize to
// nothing are dropped.
func (i *DocumentIngestor) buildChunks(corpus *models.Corpus, pages []core.Page) []models.Chunk {
	pieces := i.segmenter.Split(pages)
	now := time.Now().UTC()

	out := make([]models.Chunk, 0, len(pieces))
	for _, p := range pieces {
		text := strings.TrimSpace(normalizer.Normalize(p.Content, corpus.Language))
		if text == "" {
			continue
		}
		out = append(out, models.Chunk{
			ID:         uuid.NewString(),
			CorpusID:   corpus.ID,
			Ordinal:    len(out),
			PageNumber: p.PageNumber,
			Content:    text,
			CreatedAt:  now,
		})
	}
	return out
}
