// Package studyview serves the study page for one material and the live
// rendering session that tracks which keyword's detail popup is open.
package studyview

import (
	"html/template"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/studyaid/internal/auth"
	"github.com/ziadkadry99/studyaid/internal/materials"
)

// View renders study pages and hosts their websocket sessions.
type View struct {
	materials *materials.Store
	details   *DetailRenderer
	page      *template.Template
	upgrader  websocket.Upgrader
}

// New creates a View. clientURL is the only cross-origin page allowed to
// open a websocket session; same-host pages are always allowed.
func New(store *materials.Store, clientURL string) *View {
	v := &View{
		materials: store,
		details:   NewDetailRenderer(),
		page:      template.Must(template.New("study").Parse(pageTemplate)),
	}
	v.upgrader = websocket.Upgrader{CheckOrigin: originChecker(clientURL)}
	return v
}

// RegisterRoutes mounts the study page and its websocket.
func (v *View) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser)
		r.Get("/study/{id}", v.servePage)
		r.Get("/ws/study/{id}", v.serveSession)
	})
}

// load fetches the {id} material of the signed-in user, answering 404 or
// 500 itself when it cannot.
func (v *View) load(w http.ResponseWriter, r *http.Request) (*materials.Material, bool) {
	user := auth.UserFromContext(r.Context())
	m, err := v.materials.Get(r.Context(), chi.URLParam(r, "id"), user.ID)
	if err != nil {
		http.Error(w, "failed to load study material", http.StatusInternalServerError)
		return nil, false
	}
	if m == nil {
		http.Error(w, "study material not found", http.StatusNotFound)
		return nil, false
	}
	return m, true
}

func originChecker(clientURL string) func(*http.Request) bool {
	allowed := ""
	if u, err := url.Parse(clientURL); err == nil && u.Host != "" {
		allowed = u.Scheme + "://" + u.Host
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if allowed != "" && origin == allowed {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && u.Host == r.Host
	}
}
