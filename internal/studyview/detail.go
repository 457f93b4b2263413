package studyview

import (
	"bytes"
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
)

// DetailRenderer turns keyword details written in markdown into safe HTML.
// Details come from the model, so the output is always sanitized.
type DetailRenderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// NewDetailRenderer returns a renderer with GFM and code highlighting.
func NewDetailRenderer() *DetailRenderer {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").Globally()
	// Inline styles emitted by the highlighter.
	policy.AllowStyles("color", "background-color", "font-weight", "font-style", "text-decoration").
		OnElements("span", "pre", "code")

	return &DetailRenderer{
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				highlighting.NewHighlighting(
					highlighting.WithStyle("github"),
				),
			),
		),
		policy: policy,
	}
}

// Render converts detail to sanitized HTML. On a converter error the
// escaped source is returned.
func (d *DetailRenderer) Render(detail string) template.HTML {
	var buf bytes.Buffer
	if err := d.md.Convert([]byte(detail), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(detail))
	}
	return template.HTML(d.policy.SanitizeBytes(buf.Bytes()))
}
