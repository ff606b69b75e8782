package web

import (
	"bytes"
	"embed"
	"html/template"
	"io"

	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"dayplan-cli/internal/render"
)

//go:embed templates/*.html
var assetsFS embed.FS

// dayPages renders the HTML view of one day: the same markdown the CLI prints,
// converted by goldmark and wrapped in the day.html layout with prev/next links.
type dayPages struct {
	md   goldmark.Markdown
	tmpl *template.Template
}

func newDayPages() (*dayPages, error) {
	tmpl, err := template.ParseFS(assetsFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	md := goldmark.New(
		// GFM turns the "- [x]" task lines into checkboxes.
		goldmark.WithExtensions(extension.GFM, emoji.Emoji),
		// Raw HTML stays disabled; notes are user text. Hard wraps keep their line breaks.
		goldmark.WithRendererOptions(html.WithHardWraps()),
	)
	return &dayPages{md: md, tmpl: tmpl}, nil
}

type dayPageData struct {
	Date       string
	Prev       string
	Next       string
	Completion int
	Body       template.HTML
}

func (p *dayPages) body(v dayView) template.HTML {
	src := render.DayMarkdown(v.DayPlan, v.Completion)
	var b bytes.Buffer
	if err := p.md.Convert([]byte(src), &b); err != nil {
		return template.HTML("<pre>" + template.HTMLEscapeString(src) + "</pre>")
	}
	// Trusted only because raw HTML is disabled above.
	return template.HTML(b.String())
}

// write renders v; prev and next are empty at the ends of the plan.
func (p *dayPages) write(w io.Writer, v dayView, prev, next string) error {
	return p.tmpl.ExecuteTemplate(w, "day.html", dayPageData{
		Date:       v.Date,
		Prev:       prev,
		Next:       next,
		Completion: v.Completion,
		Body:       p.body(v),
	})
}
