package studyview

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/ziadkadry99/studyaid/internal/highlight"
)

// pageSegment is one segment as the page template renders it.
type pageSegment struct {
	Text    string
	Keyword string // set for keyword segments
}

type pageData struct {
	MaterialID string
	Title      string
	Segments   []pageSegment
}

// buildSegments maps matcher output onto template segments. Every Kind must
// be handled here; an unknown one is an error rather than dropped text.
func buildSegments(segs []highlight.Segment) ([]pageSegment, error) {
	out := make([]pageSegment, 0, len(segs))
	for _, s := range segs {
		switch s.Kind {
		case highlight.KindText:
			out = append(out, pageSegment{Text: s.Content})
		case highlight.KindKeyword:
			if s.Keyword == nil {
				return nil, fmt.Errorf("keyword segment %q has no entry", s.Content)
			}
			out = append(out, pageSegment{Text: s.Content, Keyword: s.Keyword.Keyword})
		default:
			return nil, fmt.Errorf("unknown segment kind %q", s.Kind)
		}
	}
	return out, nil
}

func (v *View) servePage(w http.ResponseWriter, r *http.Request) {
	m, ok := v.load(w, r)
	if !ok {
		return
	}
	log := zerolog.Ctx(r.Context())

	segs, err := buildSegments(m.Segments())
	if err != nil {
		log.Error().Err(err).Str("material_id", m.ID).Msg("rendering study page")
		http.Error(w, "failed to render study material", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := v.page.Execute(&buf, pageData{MaterialID: m.ID, Title: m.DisplayTitle(), Segments: segs}); err != nil {
		log.Error().Err(err).Str("material_id", m.ID).Msg("executing study template")
		http.Error(w, "failed to render study material", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 48rem; margin: 2rem auto; padding: 0 1rem; color: #1f2937; }
#content { position: relative; white-space: pre-wrap; line-height: 1.7; }
.keyword-highlight { font: inherit; color: inherit; background: #fef08a; border: 0; border-radius: 3px; padding: 0 2px; cursor: pointer; }
.keyword-highlight:hover { background: #fde047; }
#popup { position: absolute; width: 320px; background: #fff; border: 1px solid #e5e7eb; border-radius: 8px; box-shadow: 0 8px 24px rgba(0,0,0,.12); padding: .75rem 1rem; white-space: normal; z-index: 10; }
#popup[hidden] { display: none; }
#popup h3 { margin: 0 0 .5rem; font-size: 1rem; }
#popup .close { position: absolute; top: .25rem; right: .5rem; border: 0; background: none; font-size: 1.1rem; cursor: pointer; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<div id="content">{{range .Segments}}{{if .Keyword}}<button type="button" class="keyword-highlight" data-keyword="{{.Keyword}}">{{.Text}}</button>{{else}}{{.Text}}{{end}}{{end}}<div id="popup" hidden><button type="button" class="close" aria-label="Close">&times;</button><h3></h3><div class="detail"></div></div></div>
<script>
(function () {
  const content = document.getElementById("content");
  const popup = document.getElementById("popup");
  const proto = location.protocol === "https:" ? "wss:" : "ws:";
  const ws = new WebSocket(proto + "//" + location.host + "/ws/study/{{.MaterialID}}");

  function rect(el) {
    const r = el.getBoundingClientRect();
    return { top: r.top, left: r.left, width: r.width, height: r.height };
  }

  ws.onmessage = function (ev) {
    const msg = JSON.parse(ev.data);
    if (msg.type !== "state") return;
    if (!msg.active) { popup.hidden = true; return; }
    popup.querySelector("h3").textContent = msg.keyword.keyword;
    popup.querySelector(".detail").innerHTML = msg.detailHtml;
    popup.style.top = msg.anchor.top + "px";
    popup.style.left = msg.anchor.left + "px";
    popup.hidden = false;
  };

  content.addEventListener("click", function (ev) {
    const btn = ev.target.closest(".keyword-highlight");
    if (!btn) return;
    ws.send(JSON.stringify({ type: "activate", keyword: btn.dataset.keyword, segment: rect(btn), container: rect(content) }));
  });
  popup.querySelector(".close").addEventListener("click", function () {
    ws.send(JSON.stringify({ type: "dismiss" }));
  });
  document.addEventListener("mousedown", function (ev) {
    ws.send(JSON.stringify({
      type: "outside",
      inSegment: !!ev.target.closest(".keyword-highlight"),
      inPopup: popup.contains(ev.target)
    }));
  });
})();
</script>
</body>
</html>
`
