package materials

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ziadkadry99/studyaid/internal/vectordb"
)

// SearchHit is one material matched by a semantic search.
type SearchHit struct {
	Material   Material `json:"material"`
	Similarity float32  `json:"similarity"`
	// Keyword is set when the best hit was one of the material's keywords.
	Keyword string `json:"keyword,omitempty"`
}

// Index keeps the vector store in step with stored materials and answers
// semantic searches over them.
type Index struct {
	vectors vectordb.VectorStore
	store   *Store
	log     zerolog.Logger
}

// NewIndex returns an Index over vectors.
func NewIndex(vectors vectordb.VectorStore, store *Store, log zerolog.Logger) *Index {
	return &Index{vectors: vectors, store: store, log: log.With().Str("component", "materials_index").Logger()}
}

// Put (re)indexes m, replacing any documents from an earlier version.
func (ix *Index) Put(ctx context.Context, m *Material) error {
	if err := ix.vectors.DeleteByMaterialID(ctx, m.ID); err != nil {
		return fmt.Errorf("clearing index for %s: %w", m.ID, err)
	}
	title := ""
	if m.Title != nil {
		title = *m.Title
	}
	docs := vectordb.MaterialDocuments(m.UserID, m.ID, title, m.Content, m.Keywords, m.UpdatedAt)
	if err := ix.vectors.AddDocuments(ctx, docs); err != nil {
		return fmt.Errorf("indexing %s: %w", m.ID, err)
	}
	return nil
}

// Remove drops all documents of a material.
func (ix *Index) Remove(ctx context.Context, materialID string) error {
	return ix.vectors.DeleteByMaterialID(ctx, materialID)
}

// Refresh reloads the material and reindexes it. Failures are logged;
// the relational store stays the source of truth.
func (ix *Index) Refresh(ctx context.Context, id, userID string) {
	m, err := ix.store.Get(ctx, id, userID)
	if err == nil && m != nil {
		err = ix.Put(ctx, m)
	}
	if err != nil {
		ix.log.Warn().Err(err).Str("material_id", id).Msg("reindex failed")
	}
}

// Search returns userID's materials most similar to query, best first,
// one hit per material.
func (ix *Index) Search(ctx context.Context, userID, query string, limit int) ([]SearchHit, error) {
	if limit <= 0 {
		limit = 5
	}
	// Over-fetch since keyword documents collapse onto their material.
	results, err := ix.vectors.Search(ctx, query, limit*4, &vectordb.SearchFilter{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("searching materials: %w", err)
	}

	best := make(map[string]vectordb.SearchResult)
	for _, r := range results {
		id := r.Document.Metadata.MaterialID
		if prev, ok := best[id]; !ok || r.Similarity > prev.Similarity {
			best[id] = r
		}
	}

	var hits []SearchHit
	for _, id := range vectordb.DistinctMaterials(results) {
		if len(hits) == limit {
			break
		}
		m, err := ix.store.Get(ctx, id, userID)
		if err != nil {
			return nil, err
		}
		if m == nil {
			// Stale document for a deleted material.
			continue
		}
		r := best[id]
		hits = append(hits, SearchHit{Material: *m, Similarity: r.Similarity, Keyword: r.Document.Metadata.Keyword})
	}
	return hits, nil
}

// Results runs a raw search for userID, for callers that render the
// matched documents themselves.
func (ix *Index) Results(ctx context.Context, userID, query string, limit int) ([]vectordb.SearchResult, error) {
	return ix.vectors.Search(ctx, query, limit, &vectordb.SearchFilter{UserID: userID})
}
