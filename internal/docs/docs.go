// Package docs serves the markdown topics shown by `dayplan docs`.
package docs

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed content/*.md
var contentFS embed.FS

// Topic is one embedded page. Title is its first "# " heading.
type Topic struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

// UnknownTopicError names the requested topic and the ones that exist.
type UnknownTopicError struct {
	Name  string
	Known []string
}

func (e *UnknownTopicError) Error() string {
	return fmt.Sprintf("unknown docs topic %q (available: %s)", e.Name, strings.Join(e.Known, ", "))
}

// Topics lists the embedded pages by name.
func Topics() []Topic {
	paths, _ := fs.Glob(contentFS, "content/*.md")
	out := make([]Topic, 0, len(paths))
	for _, p := range paths {
		b, err := contentFS.ReadFile(p)
		if err != nil {
			continue
		}
		out = append(out, Topic{
			Name:  strings.TrimSuffix(path.Base(p), ".md"),
			Title: heading(string(b)),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Get returns the markdown for name, matched case-insensitively.
func Get(name string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, t := range Topics() {
		if t.Name != key {
			continue
		}
		b, err := contentFS.ReadFile("content/" + t.Name + ".md")
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	known := []string{}
	for _, t := range Topics() {
		known = append(known, t.Name)
	}
	return "", &UnknownTopicError{Name: name, Known: known}
}

func heading(md string) string {
	for _, line := range strings.Split(md, "\n") {
		if title, ok := strings.CutPrefix(strings.TrimSpace(line), "# "); ok {
			return strings.TrimSpace(title)
		}
	}
	return ""
}
