package audit

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/ziadkadry99/studyaid/internal/auth"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

// RegisterRoutes mounts the activity endpoints under /api/activity.
func RegisterRoutes(r chi.Router, store *Store) {
	r.Route("/api/activity", func(r chi.Router) {
		r.Use(auth.RequireUser)
		r.Get("/", handleQuery(store))
		r.Get("/{id}", handleGet(store))
	})
}

func handleQuery(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filter := QueryFilter{
			UserID:     auth.UserFromContext(r.Context()).ID,
			Action:     Action(q.Get("action")),
			MaterialID: q.Get("studyMaterialId"),
			Limit:      defaultLimit,
		}

		var errs []string
		if v := q.Get("since"); v != "" {
			if t, err := time.Parse(time.RFC3339, v); err == nil {
				filter.Since = &t
			} else {
				errs = append(errs, "since must be an RFC 3339 timestamp")
			}
		}
		if v := q.Get("until"); v != "" {
			if t, err := time.Parse(time.RFC3339, v); err == nil {
				filter.Until = &t
			} else {
				errs = append(errs, "until must be an RFC 3339 timestamp")
			}
		}
		if v := q.Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				filter.Limit = min(n, maxLimit)
			} else {
				errs = append(errs, "limit must be a positive integer")
			}
		}
		if v := q.Get("offset"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				filter.Offset = n
			} else {
				errs = append(errs, "offset must be a non-negative integer")
			}
		}
		if len(errs) > 0 {
			writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Validation error", "errors": errs})
			return
		}

		entries, err := store.Query(r.Context(), filter)
		if err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("querying activity")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Failed to fetch activity"})
			return
		}
		if entries == nil {
			entries = []Entry{}
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

func handleGet(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := auth.UserFromContext(r.Context())
		entry, err := store.Get(r.Context(), chi.URLParam(r, "id"), user.ID)
		if err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("getting activity entry")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Failed to fetch activity"})
			return
		}
		if entry == nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "Activity entry not found"})
			return
		}
		writeJSON(w, http.StatusOK, entry)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
