// Package retrieval queries the pre-built passage index that grounds the
// meaning and example answers.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/cloudwego/eino/components/embedding"
	chromem "github.com/philippgille/chromem-go"
)

// ErrIndexMissing is returned when the index directory or collection does not exist.
var ErrIndexMissing = errors.New("passage index not found")

// Passage is one retrieved chunk of text.
type Passage struct {
	ID         string
	Content    string
	Similarity float32
	Metadata   map[string]string
}

// Searcher is the read side of the index.
type Searcher interface {
	Search(ctx context.Context, query string, k int, threshold float32) ([]Passage, error)
}

// Index wraps a chromem-go collection persisted on disk.
type Index struct {
	db         *chromem.DB
	collection *chromem.Collection
}

// Open loads an existing index. It never creates one.
func Open(ctx context.Context, dir, collection string, embedder embedding.Embedder) (*Index, error) {
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && !info.IsDir()) {
		return nil, fmt.Errorf("%w: %s", ErrIndexMissing, dir)
	}
	if err != nil {
		return nil, fmt.Errorf("stat index: %w", err)
	}

	db, err := chromem.NewPersistentDB(dir, false)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	col := db.GetCollection(collection, bridgeEmbedder(ctx, embedder))
	if col == nil {
		return nil, fmt.Errorf("%w: collection %q in %s", ErrIndexMissing, collection, dir)
	}
	return &Index{db: db, collection: col}, nil
}

// Count returns the number of passages in the index.
func (ix *Index) Count() int {
	return ix.collection.Count()
}

// Search returns up to k passages ranked by similarity, dropping those
// scoring below threshold. k is clamped to the collection size.
func (ix *Index) Search(ctx context.Context, query string, k int, threshold float32) ([]Passage, error) {
	n := ix.collection.Count()
	if k > n {
		k = n
	}
	if k <= 0 || strings.TrimSpace(query) == "" {
		return nil, nil
	}

	results, err := ix.collection.Query(ctx, query, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("index query: %w", err)
	}

	out := make([]Passage, 0, len(results))
	for _, r := range results {
		if r.Similarity < threshold {
			continue
		}
		out = append(out, Passage{
			ID:         r.ID,
			Content:    r.Content,
			Similarity: r.Similarity,
			Metadata:   r.Metadata,
		})
	}
	return out, nil
}

// JoinContext renders passages as the prompt context block.
func JoinContext(passages []Passage) string {
	parts := make([]string, 0, len(passages))
	for _, p := range passages {
		if c := strings.TrimSpace(p.Content); c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, "\n\n")
}

// bridgeEmbedder converts an Eino Embedder ([][]float64) to a chromem-go EmbeddingFunc ([]float32).
func bridgeEmbedder(ctx context.Context, embedder embedding.Embedder) chromem.EmbeddingFunc {
	return func(embedCtx context.Context, text string) ([]float32, error) {
		if embedCtx == context.Background() {
			embedCtx = ctx
		}
		vectors, err := embedder.EmbedStrings(embedCtx, []string{text})
		if err != nil {
			return nil, fmt.Errorf("embed text: %w", err)
		}
		if len(vectors) == 0 || len(vectors[0]) == 0 {
			return nil, fmt.Errorf("embed text: empty result")
		}

		f64 := vectors[0]
		f32 := make([]float32, len(f64))
		for i, v := range f64 {
			f32[i] = float32(v)
		}
		return f32, nil
	}
}
