package indexer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/imkonsowa/restaurants-linebot/models"
	"github.com/pgvector/pgvector-go"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/textsplitter"
)

const (
	DefaultChunkSize    = 500
	DefaultChunkOverlap = 50
	DefaultBatchSize    = 100
)

type ChunkStore interface {
	GetRestaurant(ctx context.Context, id uint64) (*models.Restaurant, error)
	ReplaceChunks(ctx context.Context, restaurantID uint64, chunks []models.Chunk) error
}

type Indexer struct {
	splitter  textsplitter.TextSplitter
	embedder  embeddings.Embedder
	store     ChunkStore
	batchSize int
}

func New(embedder embeddings.Embedder, store ChunkStore, chunkSize, chunkOverlap, batchSize int) *Indexer {
	if chunkSize < 1 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = DefaultChunkOverlap
	}
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}

	return &Indexer{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
		),
		embedder:  embedder,
		store:     store,
		batchSize: batchSize,
	}
}

// Contents splits the review text of r and prefixes every piece with the
// restaurant header. A restaurant without text still yields the header alone.
func (ix *Indexer) Contents(r *models.Restaurant) ([]string, error) {
	header := r.Header()

	var pieces []string
	if r.Text != "" {
		var err error
		pieces, err = ix.splitter.SplitText(r.Text)
		if err != nil {
			return nil, fmt.Errorf("failed to split text of restaurant %d: %w", r.ID, err)
		}
	}
	if len(pieces) == 0 {
		return []string{header}, nil
	}

	contents := make([]string, len(pieces))
	for i, p := range pieces {
		contents[i] = header + "\n\n" + p
	}

	return contents, nil
}

// Index embeds r and replaces its stored chunks.
func (ix *Indexer) Index(ctx context.Context, r *models.Restaurant) (int, error) {
	contents, err := ix.Contents(r)
	if err != nil {
		return 0, err
	}

	chunks := make([]models.Chunk, 0, len(contents))
	for start := 0; start < len(contents); start += ix.batchSize {
		end := min(start+ix.batchSize, len(contents))

		vectors, err := ix.embedder.EmbedDocuments(ctx, contents[start:end])
		if err != nil {
			return 0, fmt.Errorf("failed to embed chunks of restaurant %d: %w", r.ID, err)
		}
		if len(vectors) != end-start {
			return 0, fmt.Errorf("failed to embed chunks of restaurant %d: got %d vectors for %d chunks", r.ID, len(vectors), end-start)
		}

		for i, v := range vectors {
			chunks = append(chunks, models.Chunk{
				RestaurantID: r.ID,
				Index:        start + i,
				Content:      contents[start+i],
				Embedding:    pgvector.NewVector(v),
			})
		}
	}

	if err := ix.store.ReplaceChunks(ctx, r.ID, chunks); err != nil {
		return 0, fmt.Errorf("failed to store chunks of restaurant %d: %w", r.ID, err)
	}

	slog.Debug("indexed restaurant", "id", r.ID, "title", r.Title, "chunks", len(chunks))

	return len(chunks), nil
}

func (ix *Indexer) IndexByID(ctx context.Context, id uint64) (int, error) {
	r, err := ix.store.GetRestaurant(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("failed to get restaurant %d: %w", id, err)
	}

	return ix.Index(ctx, r)
}
