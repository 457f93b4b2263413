package materials

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/ziadkadry99/studyaid/internal/auth"
	"github.com/ziadkadry99/studyaid/internal/db"
	"github.com/ziadkadry99/studyaid/internal/highlight"
	"github.com/ziadkadry99/studyaid/internal/vectordb"
)

type testEnv struct {
	db    *db.DB
	store *Store
	users *auth.Store
	alice *auth.User
	bob   *auth.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	users := auth.NewStore(database)
	alice, err := users.Upsert(context.Background(), auth.Profile{Subject: "alice", Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	bob, _ := users.Upsert(context.Background(), auth.Profile{Subject: "bob", Email: "bob@example.com"})

	return &testEnv{db: database, store: NewStore(database), users: users, alice: alice, bob: bob}
}

// router serves the material routes as the given user (nil for anonymous).
func (e *testEnv) router(as *auth.User, index *Index) chi.Router {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if as != nil {
				req = req.WithContext(auth.WithUser(req.Context(), as))
			}
			next.ServeHTTP(w, req)
		})
	})
	RegisterRoutes(r, RoutesDeps{Store: e.store, Index: index})
	return r
}

func do(r http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func strPtr(s string) *string { return &s }

// --- Store ---

func TestStoreCRUD(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	m, err := e.store.Create(ctx, e.alice.ID, strPtr("Biology"), "Mitochondria produce ATP.")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if m.ID == "" || m.Keywords != nil {
		t.Errorf("unexpected created material %+v", m)
	}

	got, err := e.store.Get(ctx, m.ID, e.alice.ID)
	if err != nil || got == nil {
		t.Fatalf("Get: %v, %v", got, err)
	}
	if got.DisplayTitle() != "Biology" || got.Content != "Mitochondria produce ATP." {
		t.Errorf("unexpected material %+v", got)
	}

	if other, _ := e.store.Get(ctx, m.ID, e.bob.ID); other != nil {
		t.Error("material must not be visible to another user")
	}

	kw := []highlight.KeywordEntry{{Keyword: "ATP", Detail: "energy"}}
	updated, err := e.store.Update(ctx, m.ID, e.alice.ID, Update{Keywords: &kw})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.DisplayTitle() != "Biology" || updated.Content != "Mitochondria produce ATP." {
		t.Errorf("COALESCE update must keep unset fields, got %+v", updated)
	}
	if len(updated.Keywords) != 1 || updated.Keywords[0].Keyword != "ATP" {
		t.Errorf("keywords not stored: %+v", updated.Keywords)
	}

	if none, err := e.store.Update(ctx, m.ID, e.bob.ID, Update{Content: strPtr("hijack")}); err != nil || none != nil {
		t.Errorf("update by another user: %+v, %v", none, err)
	}
}

func TestStoreListNewestFirst(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	for _, c := range []string{"first", "second", "third"} {
		if _, err := e.store.Create(ctx, e.alice.ID, nil, c); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	e.store.Create(ctx, e.bob.ID, nil, "bob's")

	list, err := e.store.List(ctx, e.alice.ID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 materials, got %d", len(list))
	}
	if list[0].Content != "third" || list[2].Content != "first" {
		t.Errorf("expected newest first, got %q..%q", list[0].Content, list[2].Content)
	}
	if list[0].DisplayTitle() != "Untitled" {
		t.Errorf("expected Untitled, got %q", list[0].DisplayTitle())
	}
}

func TestStoreDeleteRemovesFlashcards(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	m, _ := e.store.Create(ctx, e.alice.ID, nil, "content")
	if _, err := e.db.ExecContext(ctx,
		`INSERT INTO flashcards (id, user_id, study_material_id, front, back) VALUES ('c1', ?, ?, 'f', 'b')`,
		e.alice.ID, m.ID); err != nil {
		t.Fatalf("insert flashcard: %v", err)
	}

	if ok, err := e.store.Delete(ctx, m.ID, e.bob.ID); err != nil || ok {
		t.Errorf("delete by another user: %v, %v", ok, err)
	}

	ok, err := e.store.Delete(ctx, m.ID, e.alice.ID)
	if err != nil || !ok {
		t.Fatalf("Delete: %v, %v", ok, err)
	}

	var n int
	e.db.QueryRow(`SELECT COUNT(*) FROM flashcards`).Scan(&n)
	if n != 0 {
		t.Errorf("expected flashcards removed, %d left", n)
	}
}

// --- Routes ---

func TestRoutesRequireUser(t *testing.T) {
	e := newTestEnv(t)
	w := do(e.router(nil, nil), "GET", "/api/study-materials/", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestCreateAndGetRoutes(t *testing.T) {
	e := newTestEnv(t)
	r := e.router(e.alice, nil)

	w := do(r, "POST", "/api/study-materials/", map[string]string{"content": ""})
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "Validation error") {
		t.Errorf("empty content: %d %s", w.Code, w.Body.String())
	}

	w = do(r, "POST", "/api/study-materials/", map[string]string{"title": "T", "content": "Body"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	var created map[string]any
	json.Unmarshal(w.Body.Bytes(), &created)
	if created["title"] != "T" || created["keywords"] != nil || created["userId"] != "alice" {
		t.Errorf("unexpected created body %v", created)
	}
	id := created["id"].(string)

	w = do(r, "GET", "/api/study-materials/"+id, nil)
	if w.Code != http.StatusOK {
		t.Errorf("get: %d", w.Code)
	}

	w = do(e.router(e.bob, nil), "GET", "/api/study-materials/"+id, nil)
	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), "Study material not found") {
		t.Errorf("get as other user: %d %s", w.Code, w.Body.String())
	}

	w = do(r, "GET", "/api/study-materials/", nil)
	var list []map[string]any
	json.Unmarshal(w.Body.Bytes(), &list)
	if len(list) != 1 {
		t.Errorf("expected 1 material in list, got %d", len(list))
	}
}

func TestUpdateRouteKeywordForms(t *testing.T) {
	e := newTestEnv(t)
	r := e.router(e.alice, nil)
	m, _ := e.store.Create(context.Background(), e.alice.ID, nil, "ATP and DNA")

	// Keywords as a JSON-encoded string.
	w := do(r, "PUT", "/api/study-materials/"+m.ID, map[string]any{
		"keywords": `[{"keyword":"ATP","detail":"energy"}]`,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update with string keywords: %d %s", w.Code, w.Body.String())
	}

	// Keywords as an array.
	w = do(r, "PUT", "/api/study-materials/"+m.ID, map[string]any{
		"title":    "Bio",
		"keywords": []map[string]string{{"keyword": "DNA", "detail": "genes"}},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update with array keywords: %d %s", w.Code, w.Body.String())
	}
	var got Material
	json.Unmarshal(w.Body.Bytes(), &got)
	if got.DisplayTitle() != "Bio" || len(got.Keywords) != 1 || got.Keywords[0].Keyword != "DNA" {
		t.Errorf("unexpected updated material %+v", got)
	}

	w = do(r, "PUT", "/api/study-materials/"+m.ID, map[string]any{
		"keywords": []map[string]string{{"keyword": "", "detail": "x"}},
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty keyword: expected 400, got %d", w.Code)
	}

	w = do(r, "PUT", "/api/study-materials/missing", map[string]any{"title": "x"})
	if w.Code != http.StatusNotFound {
		t.Errorf("missing: expected 404, got %d", w.Code)
	}
}

func TestSegmentsRoute(t *testing.T) {
	e := newTestEnv(t)
	r := e.router(e.alice, nil)
	ctx := context.Background()

	m, _ := e.store.Create(ctx, e.alice.ID, nil, "The Mitochondria makes ATP.")
	e.store.SetKeywords(ctx, m.ID, e.alice.ID, []highlight.KeywordEntry{
		{Keyword: "mitochondria", Detail: "powerhouse"},
		{Keyword: "ATP", Detail: "energy"},
	})

	w := do(r, "GET", "/api/study-materials/"+m.ID+"/segments", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("segments: %d %s", w.Code, w.Body.String())
	}
	var resp struct {
		Segments []highlight.Segment `json:"segments"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)

	want := []highlight.Segment{
		{Kind: highlight.KindText, Content: "The "},
		{Kind: highlight.KindKeyword, Content: "Mitochondria", Keyword: &highlight.KeywordEntry{Keyword: "mitochondria", Detail: "powerhouse"}},
		{Kind: highlight.KindText, Content: " makes "},
		{Kind: highlight.KindKeyword, Content: "ATP", Keyword: &highlight.KeywordEntry{Keyword: "ATP", Detail: "energy"}},
		{Kind: highlight.KindText, Content: "."},
	}
	if len(resp.Segments) != len(want) {
		t.Fatalf("expected %d segments, got %d: %+v", len(want), len(resp.Segments), resp.Segments)
	}
	for i := range want {
		g := resp.Segments[i]
		if g.Kind != want[i].Kind || g.Content != want[i].Content {
			t.Errorf("segment %d = %+v, want %+v", i, g, want[i])
		}
		if want[i].Keyword != nil && (g.Keyword == nil || *g.Keyword != *want[i].Keyword) {
			t.Errorf("segment %d keyword = %+v", i, g.Keyword)
		}
	}
}

func TestDeleteRoute(t *testing.T) {
	e := newTestEnv(t)
	r := e.router(e.alice, nil)
	m, _ := e.store.Create(context.Background(), e.alice.ID, nil, "x")

	w := do(r, "DELETE", "/api/study-materials/"+m.ID, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "deleted successfully") {
		t.Errorf("delete: %d %s", w.Code, w.Body.String())
	}
	w = do(r, "DELETE", "/api/study-materials/"+m.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("second delete: expected 404, got %d", w.Code)
	}
}

// --- Search ---

// letterEmbedder embeds text as normalized letter frequencies, so texts
// sharing words land close together.
type letterEmbedder struct{}

func (letterEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v := make([]float32, 26)
		for _, ch := range strings.ToLower(text) {
			if ch >= 'a' && ch <= 'z' {
				v[ch-'a']++
			}
		}
		v[0] += 0.01
		out[i] = v
	}
	return out, nil
}
func (letterEmbedder) Dimensions() int { return 26 }
func (letterEmbedder) Name() string    { return "letters" }

func TestSearchRoute(t *testing.T) {
	e := newTestEnv(t)
	vectors, err := vectordb.NewChromemStore(letterEmbedder{})
	if err != nil {
		t.Fatalf("NewChromemStore: %v", err)
	}
	index := NewIndex(vectors, e.store, zerolog.Nop())
	r := e.router(e.alice, index)

	do(r, "POST", "/api/study-materials/", map[string]string{"title": "Zebras", "content": "zebra zebra zebra"})
	do(r, "POST", "/api/study-materials/", map[string]string{"title": "Cells", "content": "mitochondria cell membrane"})
	do(e.router(e.bob, index), "POST", "/api/study-materials/", map[string]string{"content": "zebra zebra zebra"})

	w := do(r, "GET", "/api/study-materials/search?q=zebra", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("search: %d %s", w.Code, w.Body.String())
	}
	var hits []SearchHit
	json.Unmarshal(w.Body.Bytes(), &hits)
	if len(hits) != 2 {
		t.Fatalf("expected alice's 2 materials, got %d", len(hits))
	}
	if hits[0].Material.DisplayTitle() != "Zebras" {
		t.Errorf("expected Zebras first, got %q", hits[0].Material.DisplayTitle())
	}
	for _, h := range hits {
		if h.Material.UserID != "alice" {
			t.Errorf("search leaked material of %q", h.Material.UserID)
		}
	}

	// Deleting removes the material from the index.
	do(r, "DELETE", "/api/study-materials/"+hits[0].Material.ID, nil)
	w = do(r, "GET", "/api/study-materials/search?q=zebra", nil)
	json.Unmarshal(w.Body.Bytes(), &hits)
	if len(hits) != 1 || hits[0].Material.DisplayTitle() != "Cells" {
		t.Errorf("unexpected hits after delete: %+v", hits)
	}

	if w := do(r, "GET", "/api/study-materials/search", nil); w.Code != http.StatusBadRequest {
		t.Errorf("missing q: expected 400, got %d", w.Code)
	}
}

func TestSearchRouteNotConfigured(t *testing.T) {
	e := newTestEnv(t)
	w := do(e.router(e.alice, nil), "GET", "/api/study-materials/search?q=x", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", w.Code)
	}
}
