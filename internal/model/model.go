package model

import (
	"fmt"
	"strings"
	"time"
)

type Task struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Done     bool     `json:"done"`
	Category Category `json:"category"`
	Tips     []string `json:"tips"`
}

// DayPlan is the task collection and metadata for one calendar date.
// Date is the unique key (YYYY-MM-DD).
type DayPlan struct {
	Date  string `json:"date"`
	Phase Phase  `json:"phase"`
	Week  int    `json:"week"`
	Tasks []Task `json:"tasks"`

	Notes string `json:"notes,omitempty"`

	SleepHours  *float64 `json:"sleepHours,omitempty"`
	HRRest      *int     `json:"hrRest,omitempty"`
	BodyMass    *float64 `json:"bodyMass,omitempty"`
	NapsNote    string   `json:"napsNote,omitempty"`
	MicroDone   *int     `json:"microDone,omitempty"`
	MicroTarget *int     `json:"microTarget,omitempty"`
}

// Phase is a named multi-week training stage.
type Phase string

const (
	PhaseBase  Phase = "BASE"
	PhaseBuild Phase = "BUILD"
	PhasePeak  Phase = "PEAK"
	PhaseTaper Phase = "TAPER"
)

func (p Phase) Valid() bool {
	switch p {
	case PhaseBase, PhaseBuild, PhasePeak, PhaseTaper:
		return true
	default:
		return false
	}
}

func ParsePhase(s string) (Phase, error) {
	p := Phase(strings.ToUpper(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("unknown phase %q", s)
	}
	return p, nil
}

type Action string

const (
	ActionCheck      Action = "CHECK"
	ActionUncheck    Action = "UNCHECK"
	ActionResetDay   Action = "RESET_DAY"
	ActionMoveTask   Action = "MOVE_TASK"
	ActionMoveDay    Action = "MOVE_DAY"
	ActionDeleteTask Action = "DELETE_TASK"
	ActionCheckAll   Action = "CHECK_ALL"
)

func (a Action) Valid() bool {
	switch a {
	case ActionCheck, ActionUncheck, ActionResetDay, ActionMoveTask, ActionMoveDay, ActionDeleteTask, ActionCheckAll:
		return true
	default:
		return false
	}
}

type HistoryItem struct {
	TS     time.Time `json:"ts"`
	Date   string    `json:"date"`
	Action Action    `json:"action"`
	Detail string    `json:"detail"`
}

// Snapshot is a full copy of the plan collection and history log.
// It doubles as the export document.
type Snapshot struct {
	Plans   []DayPlan     `json:"plans"`
	History []HistoryItem `json:"history"`
}

// Clone returns a deep copy so the result shares no slices or pointers with s.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Plans:   make([]DayPlan, len(s.Plans)),
		History: make([]HistoryItem, len(s.History)),
	}
	for i := range s.Plans {
		out.Plans[i] = s.Plans[i].Clone()
	}
	copy(out.History, s.History)
	return out
}

func (d DayPlan) Clone() DayPlan {
	out := d
	out.Tasks = make([]Task, len(d.Tasks))
	for i := range d.Tasks {
		out.Tasks[i] = d.Tasks[i].Clone()
	}
	out.SleepHours = clonePtr(d.SleepHours)
	out.HRRest = clonePtr(d.HRRest)
	out.BodyMass = clonePtr(d.BodyMass)
	out.MicroDone = clonePtr(d.MicroDone)
	out.MicroTarget = clonePtr(d.MicroTarget)
	return out
}

func (t Task) Clone() Task {
	out := t
	out.Tips = append([]string{}, t.Tips...)
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
