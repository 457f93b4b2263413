package studyview

import (
	"encoding/json"
	"html/template"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/ziadkadry99/studyaid/internal/highlight"
	"github.com/ziadkadry99/studyaid/internal/materials"
	"github.com/ziadkadry99/studyaid/internal/selection"
)

// clientEvent is the incoming websocket message format.
type clientEvent struct {
	Type      string         `json:"type"` // "activate", "dismiss" or "outside"
	Keyword   string         `json:"keyword,omitempty"`
	Segment   selection.Rect `json:"segment"`
	Container selection.Rect `json:"container"`
	InSegment bool           `json:"inSegment"`
	InPopup   bool           `json:"inPopup"`
}

// stateMessage is sent after every event with the resulting selection.
type stateMessage struct {
	Type       string                  `json:"type"` // "state" or "error"
	Active     bool                    `json:"active"`
	Keyword    *highlight.KeywordEntry `json:"keyword,omitempty"`
	DetailHTML template.HTML           `json:"detailHtml,omitempty"`
	Anchor     *selection.Position     `json:"anchor,omitempty"`
	Message    string                  `json:"message,omitempty"`
}

// session is one rendering session: a material and the selection state
// owned by its connection. It is used from a single goroutine.
type session struct {
	material *materials.Material
	details  *DetailRenderer
	state    selection.State
}

func newSession(m *materials.Material, details *DetailRenderer) *session {
	return &session{material: m, details: details, state: selection.Idle()}
}

// lookup finds the material's entry for keyword, case-insensitively.
func (s *session) lookup(keyword string) *highlight.KeywordEntry {
	for i := range s.material.Keywords {
		if strings.EqualFold(s.material.Keywords[i].Keyword, keyword) {
			return &s.material.Keywords[i]
		}
	}
	return nil
}

// handle applies ev and returns the message to send back.
func (s *session) handle(ev clientEvent) stateMessage {
	switch ev.Type {
	case "activate":
		k := s.lookup(ev.Keyword)
		if k == nil {
			return stateMessage{Type: "error", Message: "unknown keyword: " + ev.Keyword}
		}
		s.state = s.state.Activate(k, selection.DefaultAnchor(ev.Segment, ev.Container))
	case "dismiss":
		s.state = s.state.Dismiss()
	case "outside":
		s.state = s.state.OutsideInteraction(func(region selection.Region) bool {
			switch region {
			case selection.RegionKeyword:
				return ev.InSegment
			case selection.RegionPopup:
				return ev.InPopup
			}
			return false
		})
	default:
		return stateMessage{Type: "error", Message: "unknown event type: " + ev.Type}
	}
	return s.snapshot()
}

func (s *session) snapshot() stateMessage {
	k, ok := s.state.Active()
	if !ok {
		return stateMessage{Type: "state"}
	}
	anchor, _ := s.state.Anchor()
	return stateMessage{
		Type:       "state",
		Active:     true,
		Keyword:    k,
		DetailHTML: s.details.Render(k.Detail),
		Anchor:     &anchor,
	}
}

func (v *View) serveSession(w http.ResponseWriter, r *http.Request) {
	m, ok := v.load(w, r)
	if !ok {
		return
	}
	log := zerolog.Ctx(r.Context()).With().Str("material_id", m.ID).Logger()

	conn, err := v.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade")
		return
	}
	defer conn.Close()

	sess := newSession(m, v.details)
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("websocket read")
			}
			return
		}

		var ev clientEvent
		if err := json.Unmarshal(msg, &ev); err != nil {
			sess.send(conn, log, stateMessage{Type: "error", Message: "invalid message format"})
			continue
		}
		sess.send(conn, log, sess.handle(ev))
	}
}

func (s *session) send(conn *websocket.Conn, log zerolog.Logger, msg stateMessage) {
	if err := conn.WriteJSON(msg); err != nil {
		log.Warn().Err(err).Msg("websocket write")
	}
}
