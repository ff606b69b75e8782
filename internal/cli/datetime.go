package cli

import (
	"fmt"
	"regexp"
	"strings"

	"dayplan-cli/internal/plan"
	"dayplan-cli/internal/planstate"
)

var reDateOnly = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// IsDateArg reports whether s looks like a day reference: YYYY-MM-DD, today,
// yesterday or tomorrow.
func IsDateArg(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "today", "yesterday", "tomorrow":
		return true
	}
	return reDateOnly.MatchString(s)
}

// resolveDate parses:
// - today / yesterday / tomorrow (relative to the clock, clamped to the plan)
// - YYYY-MM-DD
//
// and requires the date to be covered by the plan.
func resolveDate(app *App, mgr *planstate.Manager, s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "":
		return "", errUsage("date", "empty")
	case "today":
		return mgr.Today(app.now()), nil
	case "yesterday", "tomorrow":
		offset := -1
		if s == "tomorrow" {
			offset = 1
		}
		today := mgr.Today(app.now())
		if d, ok := mgr.Neighbor(today, offset); ok {
			return d, nil
		}
		return "", errNotFound("day", s)
	}

	if !reDateOnly.MatchString(s) {
		return "", errUsage("date", fmt.Sprintf("%q (expected YYYY-MM-DD, today, yesterday or tomorrow)", s))
	}
	t, err := plan.ParseDate(s)
	if err != nil {
		return "", errUsage("date", err.Error())
	}
	date := plan.FormatDate(t)
	if _, ok := mgr.Day(date); !ok {
		return "", errNotFound("day", date)
	}
	return date, nil
}
