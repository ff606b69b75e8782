package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type DoctorIssueLevel string

const (
	DoctorIssueLevelError DoctorIssueLevel = "error"
	DoctorIssueLevelWarn  DoctorIssueLevel = "warn"
)

var ErrDoctorIssuesFound = errors.New("doctor found errors")

type DoctorIssue struct {
	Level   DoctorIssueLevel `json:"level"`
	Code    string           `json:"code"`
	Message string           `json:"message"`
	Path    string           `json:"path,omitempty"`
	Date    string           `json:"date,omitempty"`
}

type DoctorReport struct {
	Issues []DoctorIssue `json:"issues"`
	Days   int           `json:"days"`
	Events int           `json:"history"`
}

func (r DoctorReport) HasErrors() bool {
	for _, it := range r.Issues {
		if it.Level == DoctorIssueLevelError {
			return true
		}
	}
	return false
}

// Doctor inspects the workspace without modifying it.
func (s Store) Doctor(ctx context.Context) DoctorReport {
	rep := DoctorReport{Issues: []DoctorIssue{}}
	add := func(level DoctorIssueLevel, code, msg string) *DoctorIssue {
		rep.Issues = append(rep.Issues, DoctorIssue{Level: level, Code: code, Message: msg})
		return &rep.Issues[len(rep.Issues)-1]
	}

	if b, err := os.ReadFile(s.configPath()); err == nil {
		var cfg Config
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			add(DoctorIssueLevelError, "config_invalid_yaml", err.Error()).Path = s.configPath()
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		add(DoctorIssueLevelError, "config_unreadable", err.Error()).Path = s.configPath()
	}

	snap, ok, err := s.LoadSnapshot(ctx)
	if err != nil {
		add(DoctorIssueLevelError, "sqlite_unreadable", err.Error()).Path = s.sqlitePath()
		return rep
	}
	if !ok {
		add(DoctorIssueLevelWarn, "plan_missing", "no day plans stored yet (run `dayplan init`)")
		return rep
	}
	rep.Days = len(snap.Plans)
	rep.Events = len(snap.History)

	if err := ValidateSnapshot(snap); err != nil {
		add(DoctorIssueLevelError, "snapshot_invalid", err.Error())
	}

	dates := make(map[string]bool, len(snap.Plans))
	var prev time.Time
	for i, d := range snap.Plans {
		dates[d.Date] = true
		t, err := time.Parse("2006-01-02", d.Date)
		if err != nil {
			continue
		}
		if i > 0 && t.Sub(prev) != 24*time.Hour {
			add(DoctorIssueLevelWarn, "plan_gap", fmt.Sprintf("plan jumps from %s to %s", prev.Format("2006-01-02"), d.Date)).Date = d.Date
		}
		prev = t
		if len(d.Tasks) == 0 {
			add(DoctorIssueLevelWarn, "day_empty", "day has no tasks").Date = d.Date
		}
	}

	for i, h := range snap.History {
		if h.Date != "" && !dates[h.Date] {
			add(DoctorIssueLevelWarn, "history_unknown_date", fmt.Sprintf("history[%d] references a date outside the plan", i)).Date = h.Date
		}
		if i > 0 && h.TS.After(snap.History[i-1].TS) {
			add(DoctorIssueLevelWarn, "history_order", fmt.Sprintf("history[%d] is newer than history[%d]", i, i-1))
		}
	}
	return rep
}
