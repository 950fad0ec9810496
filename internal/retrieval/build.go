package retrieval

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/cloudwego/eino/components/embedding"
	chromem "github.com/philippgille/chromem-go"
)

// BuildStats holds the results of an offline index build.
type BuildStats struct {
	Passages int
	Total    int
}

// SplitPassages splits a corpus into passages separated by blank lines.
func SplitPassages(r io.Reader) ([]string, error) {
	var (
		out []string
		cur []string
	)
	flush := func() {
		if len(cur) > 0 {
			out = append(out, strings.Join(cur, "\n"))
			cur = cur[:0]
		}
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			flush()
			continue
		}
		cur = append(cur, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	flush()
	return out, nil
}

// Build embeds passages into the collection at dir, creating it when absent.
// This is the offline ingestion step; the gateway only ever opens the index.
func Build(ctx context.Context, dir, collection, source string, passages []string, embedder embedding.Embedder) (*BuildStats, error) {
	db, err := chromem.NewPersistentDB(dir, false)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	col, err := db.GetOrCreateCollection(collection, nil, bridgeEmbedder(ctx, embedder))
	if err != nil {
		return nil, fmt.Errorf("get or create collection: %w", err)
	}

	base := filepath.Base(source)
	docs := make([]chromem.Document, 0, len(passages))
	for i, p := range passages {
		docs = append(docs, chromem.Document{
			ID:       fmt.Sprintf("%s-%04d", base, i+1),
			Content:  p,
			Metadata: map[string]string{"source": base},
		})
	}
	if len(docs) > 0 {
		if err := col.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
			return nil, fmt.Errorf("add passages: %w", err)
		}
	}

	stats := &BuildStats{Passages: len(docs), Total: col.Count()}
	slog.Info("index build complete", "source", base, "added", stats.Passages, "total", stats.Total)
	return stats, nil
}
