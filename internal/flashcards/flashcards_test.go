package flashcards

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
	"github.com/ziadkadry99/studyaid/internal/llm"
	"github.com/ziadkadry99/studyaid/internal/materials"
	"github.com/ziadkadry99/studyaid/internal/study"
)

type testEnv struct {
	store     *Store
	materials *materials.Store
	router    chi.Router
	alice     *auth.User
	bob       *auth.User
	prompts   []string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	users := auth.NewStore(database)
	e := &testEnv{store: NewStore(database), materials: materials.NewStore(database)}
	e.alice, _ = users.Upsert(context.Background(), auth.Profile{Subject: "alice", Email: "a@example.com"})
	e.bob, _ = users.Upsert(context.Background(), auth.Profile{Subject: "bob", Email: "b@example.com"})

	provider := llm.ProviderFunc(func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
		e.prompts = append(e.prompts, req.Messages[len(req.Messages)-1].Content)
		return &llm.CompletionResponse{
			Content: `{"flashcards":[{"front":"What is ATP?","back":"Energy currency"},{"front":"","back":"dropped"}]}`,
		}, nil
	})

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			switch req.Header.Get("X-Test-User") {
			case "alice":
				req = req.WithContext(auth.WithUser(req.Context(), e.alice))
			case "bob":
				req = req.WithContext(auth.WithUser(req.Context(), e.bob))
			}
			next.ServeHTTP(w, req)
		})
	})
	RegisterRoutes(r, RoutesDeps{
		Store:     e.store,
		Materials: e.materials,
		Analyzer:  study.NewAnalyzer(provider, "", zerolog.Nop()),
	})
	e.router = r
	return e
}

func (e *testEnv) do(user, method, target string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("X-Test-User", user)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func strPtr(s string) *string { return &s }

func TestStoreLifecycle(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	c, err := e.store.Create(ctx, e.alice.ID, nil, Draft{Front: "Q", Back: "A"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if ok, _ := e.store.SetMastered(ctx, c.ID, e.bob.ID, true); ok {
		t.Error("another user must not update the card")
	}
	if ok, err := e.store.SetMastered(ctx, c.ID, e.alice.ID, true); err != nil || !ok {
		t.Fatalf("SetMastered: %v, %v", ok, err)
	}

	updated, err := e.store.Update(ctx, c.ID, e.alice.ID, Update{Back: strPtr("B")})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Front != "Q" || updated.Back != "B" || !updated.Mastered {
		t.Errorf("unexpected card after update: %+v", updated)
	}

	e.store.Create(ctx, e.alice.ID, nil, Draft{Front: "Q2", Back: "A2"})
	st, err := e.store.Stats(ctx, e.alice.ID)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.Total != 2 || st.Mastered != 1 {
		t.Errorf("Stats = %+v, want 2/1", st)
	}

	if ok, _ := e.store.Delete(ctx, c.ID, e.alice.ID); !ok {
		t.Error("Delete reported no row")
	}
	if got, _ := e.store.Get(ctx, c.ID, e.alice.ID); got != nil {
		t.Error("card still present after delete")
	}
}

func TestStatsEmpty(t *testing.T) {
	e := newTestEnv(t)
	st, err := e.store.Stats(context.Background(), e.alice.ID)
	if err != nil || st.Total != 0 || st.Mastered != 0 {
		t.Errorf("Stats = %+v, %v", st, err)
	}
}

func TestGenerateRoute(t *testing.T) {
	e := newTestEnv(t)
	m, _ := e.materials.Create(context.Background(), e.alice.ID, nil, "ATP")

	w := e.do("alice", "POST", "/api/flashcards/generate", map[string]any{
		"keywords":        []map[string]string{{"keyword": "ATP", "detail": "energy"}},
		"studyMaterialId": m.ID,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("generate: %d %s", w.Code, w.Body.String())
	}
	var resp flashcardsResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Flashcards) != 1 || resp.Flashcards[0].Front != "What is ATP?" {
		t.Fatalf("unexpected flashcards %+v", resp.Flashcards)
	}
	if resp.Flashcards[0].StudyMaterialID == nil || *resp.Flashcards[0].StudyMaterialID != m.ID {
		t.Errorf("card not linked to material")
	}
	if len(e.prompts) != 1 || e.prompts[0] != "Keyword: ATP\nDetail: energy" {
		t.Errorf("unexpected prompt %q", e.prompts)
	}

	w = e.do("alice", "GET", "/api/flashcards/?studyMaterialId="+m.ID, nil)
	var list []Flashcard
	json.Unmarshal(w.Body.Bytes(), &list)
	if len(list) != 1 {
		t.Errorf("expected 1 card for material, got %d", len(list))
	}
}

func TestGenerateRouteValidation(t *testing.T) {
	e := newTestEnv(t)

	w := e.do("alice", "POST", "/api/flashcards/generate", map[string]any{"keywords": "ATP"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("non-array keywords: expected 400, got %d", w.Code)
	}
	w = e.do("alice", "POST", "/api/flashcards/generate", map[string]any{"keywords": []any{}})
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty keywords: expected 400, got %d", w.Code)
	}

	bobs, _ := e.materials.Create(context.Background(), e.bob.ID, nil, "x")
	w = e.do("alice", "POST", "/api/flashcards/generate", map[string]any{
		"keywords":        []map[string]string{{"keyword": "ATP", "detail": "energy"}},
		"studyMaterialId": bobs.ID,
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("foreign material: expected 404, got %d", w.Code)
	}
	if len(e.prompts) != 0 {
		t.Error("provider must not be called for rejected requests")
	}
}

func TestCrudRoutes(t *testing.T) {
	e := newTestEnv(t)

	w := e.do("alice", "POST", "/api/flashcards/", map[string]string{"front": "Q"})
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "Back is required") {
		t.Errorf("missing back: %d %s", w.Code, w.Body.String())
	}

	w = e.do("alice", "POST", "/api/flashcards/", map[string]any{"front": "Q", "back": "A", "studyMaterialId": ""})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	var c Flashcard
	json.Unmarshal(w.Body.Bytes(), &c)
	if c.StudyMaterialID != nil {
		t.Errorf("empty studyMaterialId should be stored as null")
	}

	if w := e.do("bob", "GET", "/api/flashcards/"+c.ID, nil); w.Code != http.StatusNotFound {
		t.Errorf("other user get: expected 404, got %d", w.Code)
	}

	w = e.do("alice", "PATCH", "/api/flashcards/"+c.ID+"/mastered", map[string]bool{"mastered": true})
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"success":true`) {
		t.Errorf("mastered: %d %s", w.Code, w.Body.String())
	}
	if w := e.do("alice", "PATCH", "/api/flashcards/"+c.ID+"/mastered", map[string]string{}); w.Code != http.StatusBadRequest {
		t.Errorf("mastered without flag: expected 400, got %d", w.Code)
	}

	w = e.do("alice", "PUT", "/api/flashcards/"+c.ID, map[string]string{"front": "Q?"})
	json.Unmarshal(w.Body.Bytes(), &c)
	if w.Code != http.StatusOK || c.Front != "Q?" || c.Back != "A" {
		t.Errorf("update: %d %+v", w.Code, c)
	}

	w = e.do("alice", "GET", "/api/flashcards/stats", nil)
	var st Stats
	json.Unmarshal(w.Body.Bytes(), &st)
	if st.Total != 1 || st.Mastered != 1 {
		t.Errorf("stats = %+v", st)
	}

	w = e.do("alice", "DELETE", "/api/flashcards/"+c.ID, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Flashcard deleted successfully") {
		t.Errorf("delete: %d %s", w.Code, w.Body.String())
	}
	w = e.do("alice", "DELETE", "/api/flashcards/"+c.ID, nil)
	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), "Flashcard not found") {
		t.Errorf("second delete: %d %s", w.Code, w.Body.String())
	}
}

func TestRoutesRequireUser(t *testing.T) {
	e := newTestEnv(t)
	if w := e.do("", "GET", "/api/flashcards/", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}
