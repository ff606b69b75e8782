package render

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"

	"dayplan-cli/internal/model"
)

var (
	mdRendererMu sync.Mutex
	// Keyed by style + wrap width. WithAutoStyle can block on terminal queries, so a
	// fixed style is resolved up front instead.
	mdRenderers = map[string]*glamour.TermRenderer{}
)

// DayMarkdown formats one day as a markdown checklist grouped by category.
func DayMarkdown(d model.DayPlan, completion int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", d.Date)
	fmt.Fprintf(&b, "**%s** · week %d · %d%% done\n\n", d.Phase, d.Week, completion)

	if len(d.Tasks) == 0 {
		b.WriteString("_No tasks._\n\n")
	}
	for _, c := range model.Categories() {
		var rows []model.Task
		for _, t := range d.Tasks {
			if t.Category == c {
				rows = append(rows, t)
			}
		}
		if len(rows) == 0 {
			continue
		}
		fmt.Fprintf(&b, "## %s\n\n", c.Title())
		for _, t := range rows {
			mark := " "
			if t.Done {
				mark = "x"
			}
			fmt.Fprintf(&b, "- [%s] %s `%s`\n", mark, t.Label, t.ID)
			for _, tip := range t.Tips {
				fmt.Fprintf(&b, "    - %s\n", tip)
			}
		}
		b.WriteString("\n")
	}

	if metrics := metricLines(d); len(metrics) > 0 {
		b.WriteString("## Metrics\n\n")
		for _, m := range metrics {
			fmt.Fprintf(&b, "- %s\n", m)
		}
		b.WriteString("\n")
	}
	if notes := strings.TrimSpace(d.Notes); notes != "" {
		b.WriteString("## Notes\n\n")
		b.WriteString(notes)
		b.WriteString("\n")
	}
	return b.String()
}

func metricLines(d model.DayPlan) []string {
	var out []string
	if d.SleepHours != nil {
		out = append(out, "Sleep: "+strconv.FormatFloat(*d.SleepHours, 'f', -1, 64)+" h")
	}
	if d.HRRest != nil {
		out = append(out, "Resting HR: "+strconv.Itoa(*d.HRRest)+" bpm")
	}
	if d.BodyMass != nil {
		out = append(out, "Body mass: "+strconv.FormatFloat(*d.BodyMass, 'f', -1, 64)+" kg")
	}
	if d.NapsNote != "" {
		out = append(out, "Naps: "+d.NapsNote)
	}
	if d.MicroDone != nil || d.MicroTarget != nil {
		done, target := "?", "?"
		if d.MicroDone != nil {
			done = strconv.Itoa(*d.MicroDone)
		}
		if d.MicroTarget != nil {
			target = strconv.Itoa(*d.MicroTarget)
		}
		out = append(out, "Micro sessions: "+done+"/"+target)
	}
	return out
}

// Markdown renders md for the terminal at width. Rendering failures return md as-is.
func Markdown(md string, width int) string {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}
	if width < 20 {
		width = 20
	}

	style := Style()
	key := style + ":" + strconv.Itoa(width)

	mdRendererMu.Lock()
	r := mdRenderers[key]
	mdRendererMu.Unlock()

	if r == nil {
		rr, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return md
		}
		mdRendererMu.Lock()
		if existing := mdRenderers[key]; existing != nil {
			r = existing
		} else {
			mdRenderers[key] = rr
			r = rr
		}
		mdRendererMu.Unlock()
	}

	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}

// Style picks a glamour standard style without querying the terminal.
func Style() string {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DAYPLAN_MD_STYLE"))) {
	case "light":
		return "light"
	case "dark":
		return "dark"
	case "notty", "ascii":
		return "notty"
	}
	if termenv.EnvColorProfile() == termenv.Ascii {
		return "notty"
	}
	// COLORFGBG is "fg;bg"; xterm palette 7-15 are light backgrounds.
	if v := strings.TrimSpace(os.Getenv("COLORFGBG")); v != "" {
		parts := strings.Split(v, ";")
		if bg, err := strconv.Atoi(strings.TrimSpace(parts[len(parts)-1])); err == nil && bg >= 7 {
			return "light"
		}
	}
	return "dark"
}
