package vectordb

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/ziadkadry99/studyaid/internal/highlight"
)

// mockEmbedder returns deterministic embeddings based on text content.
// Shared characters contribute to the same vector positions, so similar
// texts produce similar vectors.
type mockEmbedder struct {
	dims int
}

func newMockEmbedder(dims int) *mockEmbedder {
	return &mockEmbedder{dims: dims}
}

func (m *mockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	for i, text := range texts {
		results[i] = m.deterministicVector(text)
	}
	return results, nil
}

func (m *mockEmbedder) Dimensions() int { return m.dims }
func (m *mockEmbedder) Name() string    { return "mock" }

func (m *mockEmbedder) deterministicVector(text string) []float32 {
	vec := make([]float32, m.dims)
	for i, ch := range strings.ToLower(text) {
		idx := (int(ch) + i) % m.dims
		vec[idx] += 1.0
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v * v)
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / norm)
		}
	}
	return vec
}

func newTestStore(t *testing.T) *ChromemStore {
	t.Helper()
	store, err := NewChromemStore(newMockEmbedder(64))
	if err != nil {
		t.Fatalf("NewChromemStore: %v", err)
	}
	return store
}

func seed(t *testing.T, store *ChromemStore) {
	t.Helper()
	now := time.Now().Truncate(time.Second)
	var docs []Document
	docs = append(docs, MaterialDocuments("u1", "m1", "Cell biology", "Mitochondria produce ATP for the cell.",
		[]highlight.KeywordEntry{{Keyword: "Mitochondria", Detail: "Organelle"}, {Keyword: "ATP", Detail: "Energy"}}, now)...)
	docs = append(docs, MaterialDocuments("u1", "m2", "Databases", "Indexes speed up queries.", nil, now)...)
	docs = append(docs, MaterialDocuments("u2", "m3", "Other user", "Mitochondria again.", nil, now)...)
	if err := store.AddDocuments(context.Background(), docs); err != nil {
		t.Fatalf("AddDocuments: %v", err)
	}
}

func TestMaterialDocuments(t *testing.T) {
	now := time.Now()
	docs := MaterialDocuments("u1", "m1", "Title", "Body", []highlight.KeywordEntry{
		{Keyword: "A", Detail: "first"},
		{Keyword: "", Detail: "skipped"},
		{Keyword: "C", Detail: "third"},
	}, now)

	if len(docs) != 3 {
		t.Fatalf("expected 3 documents, got %d", len(docs))
	}
	if docs[0].ID != "m1" || docs[0].Metadata.Type != DocTypeMaterial || docs[0].Content != "Title\n\nBody" {
		t.Errorf("unexpected material document %+v", docs[0])
	}
	if docs[2].ID != "m1#2" || docs[2].Metadata.Keyword != "C" || docs[2].Content != "C: third" {
		t.Errorf("unexpected keyword document %+v", docs[2])
	}

	long := strings.Repeat("x", maxMaterialChars+100)
	docs = MaterialDocuments("u1", "m2", "", long, nil, now)
	if len(docs[0].Content) != maxMaterialChars {
		t.Errorf("expected content truncated to %d, got %d", maxMaterialChars, len(docs[0].Content))
	}

	accented := "x" + strings.Repeat("é", maxMaterialChars)
	docs = MaterialDocuments("u1", "m3", "", accented, nil, now)
	if !utf8.ValidString(docs[0].Content) {
		t.Error("truncation split a multi-byte character")
	}
	if len(docs[0].Content) != maxMaterialChars-1 {
		t.Errorf("expected content cut back to %d bytes, got %d", maxMaterialChars-1, len(docs[0].Content))
	}
}

func TestChromemStore_AddAndSearch(t *testing.T) {
	store := newTestStore(t)
	seed(t, store)

	if count := store.Count(); count != 5 {
		t.Errorf("Count: got %d, want 5", count)
	}

	results, err := store.Search(context.Background(), "mitochondria", 2, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Search returned %d results, expected 2", len(results))
	}
	for _, r := range results {
		if r.Similarity == 0 {
			t.Error("result has zero similarity")
		}
	}
}

func TestChromemStore_SearchScopedToUser(t *testing.T) {
	store := newTestStore(t)
	seed(t, store)

	results, err := store.Search(context.Background(), "mitochondria", 10, &SearchFilter{UserID: "u1"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("expected all 4 of u1's documents, got %d", len(results))
	}
	for _, r := range results {
		if r.Document.Metadata.UserID != "u1" {
			t.Errorf("leaked document of user %q", r.Document.Metadata.UserID)
		}
	}

	results, err = store.Search(context.Background(), "energy", 10, &SearchFilter{UserID: "u1", Type: DocTypeKeyword})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 keyword documents, got %d", len(results))
	}
}

func TestChromemStore_DeleteByMaterialID(t *testing.T) {
	store := newTestStore(t)
	seed(t, store)

	if err := store.DeleteByMaterialID(context.Background(), "m1"); err != nil {
		t.Fatalf("DeleteByMaterialID: %v", err)
	}
	if count := store.Count(); count != 2 {
		t.Errorf("Count after delete: got %d, want 2", count)
	}
}

func TestChromemStore_SearchEmpty(t *testing.T) {
	store := newTestStore(t)
	results, err := store.Search(context.Background(), "anything", 5, nil)
	if err != nil || results != nil {
		t.Errorf("expected nil, nil on empty store, got %v, %v", results, err)
	}
}

func TestChromemStore_PersistAndLoad(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seed(t, store)

	dir := t.TempDir()
	if err := store.Persist(ctx, dir); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	store2 := newTestStore(t)
	if err := store2.Load(ctx, dir); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if count := store2.Count(); count != 5 {
		t.Errorf("Count after load: got %d, want 5", count)
	}

	results, err := store2.Search(ctx, "indexes", 10, &SearchFilter{MaterialID: "m2"})
	if err != nil {
		t.Fatalf("Search after load: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	md := results[0].Document.Metadata
	if md.Title != "Databases" || md.UserID != "u1" || md.Type != DocTypeMaterial || md.LastUpdated.IsZero() {
		t.Errorf("metadata not preserved: %+v", md)
	}
}

func TestFormatResults(t *testing.T) {
	results := []SearchResult{{
		Document: Document{
			ID:      "m1#0",
			Content: "ATP: Energy",
			Metadata: DocumentMetadata{
				MaterialID: "m1",
				Title:      "Cell biology",
				Type:       DocTypeKeyword,
				Keyword:    "ATP",
			},
		},
		Similarity: 0.9512,
	}}

	output := FormatResults(results)
	for _, want := range []string{"Cell biology [m1]", "Keyword: ATP", "0.9512", "ATP: Energy"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
}

func TestFormatResults_Empty(t *testing.T) {
	if output := FormatResults(nil); output != "No results found." {
		t.Errorf("expected 'No results found.', got: %s", output)
	}
}

func TestDistinctMaterials(t *testing.T) {
	mk := func(id string) SearchResult {
		return SearchResult{Document: Document{Metadata: DocumentMetadata{MaterialID: id}}}
	}
	got := DistinctMaterials([]SearchResult{mk("b"), mk("a"), mk("b"), mk(""), mk("c")})
	want := []string{"b", "a", "c"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("DistinctMaterials = %v, want %v", got, want)
	}
}
