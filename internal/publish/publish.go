package publish

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dayplan-cli/internal/model"
	"dayplan-cli/internal/render"
)

// Page is one day plus its completion percentage.
type Page struct {
	Day        model.DayPlan
	Completion int
}

type WriteOptions struct {
	Overwrite bool
}

type WriteResult struct {
	Written []string `json:"written"`
}

// RenderIndexMarkdown lists pages as a table linking to days/<date>.md.
func RenderIndexMarkdown(pages []Page) string {
	var b strings.Builder
	b.WriteString("# Training journal\n\n")
	if len(pages) == 0 {
		b.WriteString("_No days._\n")
		return b.String()
	}
	b.WriteString("| Date | Week | Phase | Done | Notes |\n")
	b.WriteString("| --- | ---: | --- | ---: | --- |\n")
	for _, p := range pages {
		d := p.Day
		note := strings.TrimSpace(d.Notes)
		if i := strings.IndexByte(note, '\n'); i >= 0 {
			note = note[:i] + " …"
		}
		note = strings.ReplaceAll(note, "|", `\|`)
		fmt.Fprintf(&b, "| [%s](days/%s.md) | %d | %s | %d%% | %s |\n", d.Date, d.Date, d.Week, d.Phase, p.Completion, note)
	}
	return b.String()
}

// WriteJournal writes index.md plus one markdown page per day under toDir.
func WriteJournal(pages []Page, toDir string, opt WriteOptions) (WriteResult, error) {
	toDir = strings.TrimSpace(toDir)
	if toDir == "" {
		return WriteResult{}, errors.New("missing --to")
	}
	toDir = filepath.Clean(toDir)

	daysDir := filepath.Join(toDir, "days")
	if err := os.MkdirAll(daysDir, 0o755); err != nil {
		return WriteResult{}, err
	}

	indexPath := filepath.Join(toDir, "index.md")
	if err := writeFile(indexPath, []byte(RenderIndexMarkdown(pages)), opt.Overwrite); err != nil {
		return WriteResult{}, err
	}

	// Stop on the first error.
	written := []string{indexPath}
	for _, p := range pages {
		path := filepath.Join(daysDir, p.Day.Date+".md")
		if err := writeFile(path, []byte(render.DayMarkdown(p.Day, p.Completion)), opt.Overwrite); err != nil {
			return WriteResult{}, err
		}
		written = append(written, path)
	}
	return WriteResult{Written: written}, nil
}

func writeFile(path string, b []byte, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return errors.New("file exists (use --overwrite): " + path)
		}
	}
	return os.WriteFile(path, b, 0o644)
}
