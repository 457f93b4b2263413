package audit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/studyaid/internal/auth"
	"github.com/ziadkadry99/studyaid/internal/db"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	users := auth.NewStore(database)
	for _, sub := range []string{"alice", "bob"} {
		if _, err := users.Upsert(context.Background(), auth.Profile{Subject: sub, Email: sub + "@example.com"}); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}
	return NewStore(database)
}

func strPtr(s string) *string { return &s }

func TestLogAndGet(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	entry := Entry{
		ID:         "entry-1",
		UserID:     "alice",
		Action:     ActionMaterialCreated,
		MaterialID: strPtr("m-1"),
		Summary:    "Added Cells",
	}
	if err := store.Log(ctx, entry); err != nil {
		t.Fatalf("Log: %v", err)
	}

	got, err := store.Get(ctx, "entry-1", "alice")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil {
		t.Fatal("expected entry")
	}
	if got.Action != ActionMaterialCreated {
		t.Errorf("Action = %q", got.Action)
	}
	if got.MaterialID == nil || *got.MaterialID != "m-1" {
		t.Errorf("MaterialID = %v", got.MaterialID)
	}
	if got.Summary != "Added Cells" {
		t.Errorf("Summary = %q", got.Summary)
	}
	if got.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}

	other, err := store.Get(ctx, "entry-1", "bob")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if other != nil {
		t.Error("entries must not be visible to other users")
	}
}

func TestLogGeneratesUUID(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	if err := store.Log(ctx, Entry{UserID: "alice", Action: ActionKeywordsExtracted}); err != nil {
		t.Fatalf("Log: %v", err)
	}
	entries, err := store.Query(ctx, QueryFilter{UserID: "alice"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].ID == "" {
		t.Error("expected generated ID")
	}
	if entries[0].MaterialID != nil {
		t.Errorf("expected nil material id, got %v", *entries[0].MaterialID)
	}
}

func TestQueryFilters(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	seed := []Entry{
		{UserID: "alice", Action: ActionMaterialCreated, MaterialID: strPtr("m-1"), CreatedAt: base},
		{UserID: "alice", Action: ActionKeywordsExtracted, MaterialID: strPtr("m-1"), CreatedAt: base.Add(time.Hour)},
		{UserID: "alice", Action: ActionMaterialCreated, MaterialID: strPtr("m-2"), CreatedAt: base.Add(2 * time.Hour)},
		{UserID: "bob", Action: ActionMaterialCreated, CreatedAt: base},
	}
	for _, e := range seed {
		if err := store.Log(ctx, e); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	all, err := store.Query(ctx, QueryFilter{UserID: "alice"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 entries for alice, got %d", len(all))
	}
	if *all[0].MaterialID != "m-2" {
		t.Errorf("expected newest first, got %v", *all[0].MaterialID)
	}

	created, _ := store.Query(ctx, QueryFilter{UserID: "alice", Action: ActionMaterialCreated})
	if len(created) != 2 {
		t.Errorf("action filter: got %d entries", len(created))
	}

	m1, _ := store.Query(ctx, QueryFilter{UserID: "alice", MaterialID: "m-1"})
	if len(m1) != 2 {
		t.Errorf("material filter: got %d entries", len(m1))
	}

	since := base.Add(30 * time.Minute)
	recent, _ := store.Query(ctx, QueryFilter{UserID: "alice", Since: &since})
	if len(recent) != 2 {
		t.Errorf("since filter: got %d entries", len(recent))
	}

	page, _ := store.Query(ctx, QueryFilter{UserID: "alice", Limit: 1, Offset: 1})
	if len(page) != 1 || page[0].Action != ActionKeywordsExtracted {
		t.Errorf("pagination: got %+v", page)
	}

	if _, err := store.Query(ctx, QueryFilter{}); err == nil {
		t.Error("expected an error without a user id")
	}
}

func TestDeleteBefore(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	old := time.Now().UTC().Add(-48 * time.Hour)

	store.Log(ctx, Entry{UserID: "alice", Action: ActionMaterialCreated, CreatedAt: old})
	store.Log(ctx, Entry{UserID: "alice", Action: ActionMaterialDeleted})

	n, err := store.DeleteBefore(ctx, time.Now().UTC().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteBefore: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 deleted, got %d", n)
	}
	left, _ := store.Query(ctx, QueryFilter{UserID: "alice"})
	if len(left) != 1 || left[0].Action != ActionMaterialDeleted {
		t.Errorf("unexpected remaining entries: %+v", left)
	}
}

func TestRecordNilStore(t *testing.T) {
	var store *Store
	req := httptest.NewRequest("GET", "/", nil)
	// Must not panic.
	store.Record(req, Entry{UserID: "alice", Action: ActionMaterialCreated})
}

func newRouter(store *Store, userID string) chi.Router {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if userID != "" {
				req = req.WithContext(auth.WithUser(req.Context(), &auth.User{ID: userID}))
			}
			next.ServeHTTP(w, req)
		})
	})
	RegisterRoutes(r, store)
	return r
}

func TestRoutes(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	store.Log(ctx, Entry{ID: "a-1", UserID: "alice", Action: ActionMaterialCreated})
	store.Log(ctx, Entry{ID: "b-1", UserID: "bob", Action: ActionMaterialCreated})

	r := newRouter(store, "alice")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/activity/", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("list: %d %s", w.Code, w.Body.String())
	}
	var entries []Entry
	if err := json.Unmarshal(w.Body.Bytes(), &entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != "a-1" {
		t.Errorf("expected only alice's entry, got %+v", entries)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/activity/b-1", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("foreign entry: expected 404, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/activity/?limit=abc&since=yesterday", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad query: expected 400, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	newRouter(store, "").ServeHTTP(w, httptest.NewRequest("GET", "/api/activity/", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous: expected 401, got %d", w.Code)
	}
}
