package tui

import (
	"fmt"
	"strconv"
	"strings"

	xansi "github.com/charmbracelet/x/ansi"

	"dayplan-cli/internal/model"
)

const (
	barWidth        = 20
	historyPaneRows = 8
)

func (m appModel) View() string {
	d := m.day()
	var b strings.Builder

	b.WriteString(m.fit(m.header(d)))
	b.WriteString("\n\n")

	if len(d.Tasks) == 0 {
		b.WriteString(styleMuted.Render("  No tasks for this day."))
		b.WriteString("\n")
	}
	var lastCat model.Category
	for i, t := range d.Tasks {
		if t.Category != lastCat {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString(m.fit(styleCategory.Render(t.Category.Title())))
			b.WriteString("\n")
			lastCat = t.Category
		}
		b.WriteString(m.fit(m.taskLine(t, i == m.cursor)))
		b.WriteString("\n")
		if i == m.cursor {
			for _, tip := range t.Tips {
				b.WriteString(m.fit(faintIfDark(styleMuted).Render("      · " + tip)))
				b.WriteString("\n")
			}
		}
	}

	if line := metricsLine(d); line != "" {
		b.WriteString("\n")
		b.WriteString(m.fit(styleMuted.Render(line)))
		b.WriteString("\n")
	}
	if notes := strings.TrimSpace(d.Notes); notes != "" && m.mode != modeNotes {
		b.WriteString("\n")
		b.WriteString(m.fit(styleMuted.Render("Notes: ") + firstLine(notes)))
		b.WriteString("\n")
	}

	if m.showHistory {
		b.WriteString("\n")
		b.WriteString(m.historyPane())
		b.WriteString("\n")
	}

	switch m.mode {
	case modeNotes:
		b.WriteString("\n")
		b.WriteString(styleTitle.Render("Notes") + styleMuted.Render("  ctrl+s save · esc cancel"))
		b.WriteString("\n")
		b.WriteString(m.notes.View())
		b.WriteString("\n")
	case modeMetric:
		b.WriteString("\n")
		b.WriteString(m.input.View())
		b.WriteString("\n")
		b.WriteString(styleMuted.Render("  fields: " + metricNames() + " · empty value clears · esc cancel"))
		b.WriteString("\n")
	}

	if m.flash != "" {
		b.WriteString("\n")
		st := styleFlash
		if m.flashErr {
			st = styleError
		}
		b.WriteString(m.fit(st.Render(m.flash)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m appModel) header(d model.DayPlan) string {
	completion := m.mgr.Completion(d.Date)
	parts := []string{
		styleTitle.Render(d.Date),
		phaseStyle(string(d.Phase)).Render(string(d.Phase)),
		styleMuted.Render("week " + strconv.Itoa(d.Week)),
		progressBar(completion, barWidth),
		fmt.Sprintf("%d%%", completion),
	}
	if d.Date == m.mgr.Today(m.now()) {
		parts = append(parts, styleFlash.Render("today"))
	}
	return strings.Join(parts, " ")
}

func (m appModel) taskLine(t model.Task, selected bool) string {
	mark := "[ ]"
	if t.Done {
		mark = "[x]"
	}
	if selected {
		return styleSelected.Render("> " + mark + " " + t.Label)
	}
	if t.Done {
		return "  " + mark + " " + styleDone.Render(t.Label)
	}
	return "  " + mark + " " + t.Label
}

func (m appModel) historyPane() string {
	items := m.mgr.History(historyPaneRows)
	lines := []string{styleTitle.Render("History")}
	if len(items) == 0 {
		lines = append(lines, styleMuted.Render("nothing yet"))
	}
	for _, h := range items {
		lines = append(lines, fmt.Sprintf("%s %s %s %s",
			styleMuted.Render(h.TS.Local().Format("01-02 15:04")),
			h.Action,
			h.Date,
			h.Detail,
		))
	}
	pane := stylePane
	if m.width > 4 {
		pane = pane.Width(m.width - 4)
		for i := range lines {
			lines[i] = xansi.Truncate(lines[i], m.width-8, "…")
		}
	}
	return pane.Render(strings.Join(lines, "\n"))
}

// fit truncates one rendered line to the terminal width.
func (m appModel) fit(s string) string {
	if m.width <= 0 {
		return s
	}
	return xansi.Truncate(s, m.width, "…")
}

func progressBar(percent, width int) string {
	full := percent * width / 100
	if full > width {
		full = width
	}
	return styleBarFull.Render(strings.Repeat("█", full)) + styleBarEmpty.Render(strings.Repeat("░", width-full))
}

func metricsLine(d model.DayPlan) string {
	var out []string
	if d.SleepHours != nil {
		out = append(out, "sleep "+strconv.FormatFloat(*d.SleepHours, 'f', -1, 64)+"h")
	}
	if d.HRRest != nil {
		out = append(out, "HR "+strconv.Itoa(*d.HRRest))
	}
	if d.BodyMass != nil {
		out = append(out, strconv.FormatFloat(*d.BodyMass, 'f', -1, 64)+"kg")
	}
	if d.MicroDone != nil || d.MicroTarget != nil {
		done, target := "-", "-"
		if d.MicroDone != nil {
			done = strconv.Itoa(*d.MicroDone)
		}
		if d.MicroTarget != nil {
			target = strconv.Itoa(*d.MicroTarget)
		}
		out = append(out, "micro "+done+"/"+target)
	}
	if s := strings.TrimSpace(d.NapsNote); s != "" {
		out = append(out, "naps: "+s)
	}
	return strings.Join(out, " · ")
}

func metricNames() string {
	names := make([]string, 0, len(model.MetricFields()))
	for _, f := range model.MetricFields() {
		names = append(names, string(f))
	}
	return strings.Join(names, " ")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " …"
	}
	return s
}
