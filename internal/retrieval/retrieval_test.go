package retrieval

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/google/go-cmp/cmp"

	"github.com/vinavi-labs/vinavi/internal/config"
)

// mockEmbedder maps each text to a fixed direction by its first word so
// similarity is predictable (no API calls).
type mockEmbedder struct {
	fail bool
}

var axes = map[string][]float64{
	"நன்றி":  {1, 0, 0, 0},
	"thanks": {0.9, 0.1, 0, 0},
	"பூனை":   {0, 1, 0, 0},
	"மழை":    {0, 0, 1, 0},
	// cosine 0.7 and 0.5 to நன்றி
	"வணக்கம்": {0.7, math.Sqrt(1 - 0.49), 0, 0},
	"காலை":    {0.5, math.Sqrt(1 - 0.25), 0, 0},
}

func (m *mockEmbedder) EmbedStrings(_ context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	if m.fail {
		return nil, errors.New("embedding service down")
	}
	out := make([][]float64, len(texts))
	for i, text := range texts {
		first := strings.Fields(text)
		vec := []float64{0, 0, 0, 1}
		if len(first) > 0 {
			if v, ok := axes[first[0]]; ok {
				vec = v
			}
		}
		out[i] = normalize(vec)
	}
	return out, nil
}

func normalize(v []float64) []float64 {
	var n float64
	for _, x := range v {
		n += x * x
	}
	n = math.Sqrt(n)
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x / n
	}
	return out
}

func buildTestIndex(t *testing.T, passages []string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "index")
	if _, err := Build(context.Background(), dir, "passages", "corpus.txt", passages, &mockEmbedder{}); err != nil {
		t.Fatalf("Build: %v", err)
	}
	return dir
}

func TestOpen_MissingDir(t *testing.T) {
	_, err := Open(context.Background(), filepath.Join(t.TempDir(), "nope"), "passages", &mockEmbedder{})
	if !errors.Is(err, ErrIndexMissing) {
		t.Fatalf("expected ErrIndexMissing, got %v", err)
	}
}

func TestOpen_MissingCollection(t *testing.T) {
	dir := buildTestIndex(t, []string{"நன்றி என்பது"})
	_, err := Open(context.Background(), dir, "other", &mockEmbedder{})
	if !errors.Is(err, ErrIndexMissing) {
		t.Fatalf("expected ErrIndexMissing, got %v", err)
	}
}

func TestSearch_ThresholdAndClamp(t *testing.T) {
	dir := buildTestIndex(t, []string{
		"நன்றி என்பது ஒருவருக்கு நன்றியுணர்வைத் தெரிவிப்பது.",
		"thanks is the English word",
		"பூனை ஒரு விலங்கு.",
	})
	ix, err := Open(context.Background(), dir, "passages", &mockEmbedder{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if ix.Count() != 3 {
		t.Fatalf("expected 3 passages, got %d", ix.Count())
	}

	got, err := ix.Search(context.Background(), "நன்றி", 10, 0.8)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	var ids []string
	for _, p := range got {
		ids = append(ids, p.ID)
	}
	want := []string{"corpus.txt-0001", "corpus.txt-0002"}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}

	all, err := ix.Search(context.Background(), "நன்றி", 10, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected k clamped to 3 results, got %d", len(all))
	}
}

func TestSearch_MeaningDistanceCutoff(t *testing.T) {
	dir := buildTestIndex(t, []string{
		"வணக்கம் சொல்வது மரியாதை.",
		"காலை வணக்கம்.",
	})
	ix, err := Open(context.Background(), dir, "passages", &mockEmbedder{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	// squared L2 of 0.6 between unit vectors is within the 0.8 cutoff; 1.0 is not.
	floor := config.SearchConfig{TopK: 4, MaxDistance: 0.8}.MinSimilarity()
	got, err := ix.Search(context.Background(), "நன்றி", 4, floor)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].ID != "corpus.txt-0001" {
		t.Fatalf("expected only the cosine 0.7 passage, got %+v", got)
	}
	if math.Abs(float64(got[0].Similarity)-0.7) > 1e-3 {
		t.Errorf("similarity = %v, want 0.7", got[0].Similarity)
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	dir := buildTestIndex(t, []string{"மழை பெய்தது."})
	ix, err := Open(context.Background(), dir, "passages", &mockEmbedder{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	got, err := ix.Search(context.Background(), "  ", 4, 0)
	if err != nil || len(got) != 0 {
		t.Fatalf("expected no results, got %v, %v", got, err)
	}
}

func TestSearch_EmbedderError(t *testing.T) {
	dir := buildTestIndex(t, []string{"மழை பெய்தது."})
	ix, err := Open(context.Background(), dir, "passages", &mockEmbedder{fail: true})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := ix.Search(context.Background(), "மழை", 1, 0); err == nil {
		t.Fatal("expected embedding error")
	}
}

func TestJoinContext(t *testing.T) {
	got := JoinContext([]Passage{{Content: " a "}, {Content: ""}, {Content: "b"}})
	if got != "a\n\nb" {
		t.Errorf("JoinContext = %q", got)
	}
}

func TestSplitPassages(t *testing.T) {
	in := "first line\nsecond line\n\n\n  third  \n\n"
	got, err := SplitPassages(strings.NewReader(in))
	if err != nil {
		t.Fatalf("SplitPassages: %v", err)
	}
	want := []string{"first line\nsecond line", "third"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("passages mismatch (-want +got):\n%s", diff)
	}
}

func TestNewEmbedder_UnknownDriver(t *testing.T) {
	if _, err := NewEmbedder(context.Background(), configFor("bogus")); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func configFor(driver string) config.EmbeddingConfig {
	return config.EmbeddingConfig{Driver: driver}
}
