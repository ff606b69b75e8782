package planstate

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"dayplan-cli/internal/model"
)

// Manager owns the live DayPlan collection and the history log.
//
// Operations that reference a missing date or task are silent no-ops. A Manager is
// not safe for concurrent use; long-lived callers serialize access.
type Manager struct {
	plans   []model.DayPlan
	index   map[string]int
	history []model.HistoryItem

	now  func() time.Time
	rand io.Reader
}

type Option func(*Manager)

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

func WithRand(r io.Reader) Option {
	return func(m *Manager) {
		if r != nil {
			m.rand = r
		}
	}
}

// New installs snap as the authoritative state. snap is deep-copied.
func New(snap model.Snapshot, opts ...Option) *Manager {
	m := &Manager{
		now:  time.Now,
		rand: defaultRand(),
	}
	for _, o := range opts {
		o(m)
	}
	m.Replace(snap)
	return m
}

// Replace swaps in snap verbatim (import). No history entry is written.
func (m *Manager) Replace(snap model.Snapshot) {
	c := snap.Clone()
	m.plans = c.Plans
	m.history = c.History
	m.index = make(map[string]int, len(m.plans))
	for i := range m.plans {
		m.index[m.plans[i].Date] = i
	}
}

func (m *Manager) day(date string) (*model.DayPlan, bool) {
	i, ok := m.index[strings.TrimSpace(date)]
	if !ok {
		return nil, false
	}
	return &m.plans[i], true
}

func (m *Manager) log(date string, action model.Action, detail string) {
	item := model.HistoryItem{
		TS:     m.now().UTC(),
		Date:   date,
		Action: action,
		Detail: detail,
	}
	m.history = append([]model.HistoryItem{item}, m.history...)
}

func findTask(d *model.DayPlan, taskID string) int {
	taskID = strings.TrimSpace(taskID)
	for i := range d.Tasks {
		if d.Tasks[i].ID == taskID {
			return i
		}
	}
	return -1
}

// ToggleTask sets done on taskID within date. An unknown task id changes nothing
// but is still logged; an unknown date is ignored entirely.
func (m *Manager) ToggleTask(date, taskID string, done bool) {
	d, ok := m.day(date)
	if !ok {
		return
	}
	action := model.ActionUncheck
	if done {
		action = model.ActionCheck
	}
	detail := taskID
	if i := findTask(d, taskID); i >= 0 {
		d.Tasks[i].Done = done
		detail = d.Tasks[i].Label
	}
	m.log(d.Date, action, detail)
}

func (m *Manager) ResetDay(date string) {
	d, ok := m.day(date)
	if !ok {
		return
	}
	for i := range d.Tasks {
		d.Tasks[i].Done = false
	}
	m.log(d.Date, model.ActionResetDay, fmt.Sprintf("%d tasks", len(d.Tasks)))
}

func (m *Manager) CheckAll(date string) {
	d, ok := m.day(date)
	if !ok {
		return
	}
	for i := range d.Tasks {
		d.Tasks[i].Done = true
	}
	m.log(d.Date, model.ActionCheckAll, fmt.Sprintf("%d tasks", len(d.Tasks)))
}

// DeleteTask removes taskID from date. Remaining ids are not renumbered.
func (m *Manager) DeleteTask(date, taskID string) {
	d, ok := m.day(date)
	if !ok {
		return
	}
	detail := taskID
	if i := findTask(d, taskID); i >= 0 {
		detail = d.Tasks[i].Label
		d.Tasks = append(d.Tasks[:i], d.Tasks[i+1:]...)
	}
	m.log(d.Date, model.ActionDeleteTask, detail)
}

// MoveTask moves taskID from one day to the end of another, minting a new id
// scoped to the destination.
func (m *Manager) MoveTask(fromDate, toDate, taskID string) {
	fromDate = strings.TrimSpace(fromDate)
	toDate = strings.TrimSpace(toDate)
	if fromDate == toDate {
		return
	}
	from, ok := m.day(fromDate)
	if !ok {
		return
	}
	to, ok := m.day(toDate)
	if !ok {
		return
	}
	i := findTask(from, taskID)
	if i < 0 {
		return
	}

	t := from.Tasks[i]
	from.Tasks = append(from.Tasks[:i], from.Tasks[i+1:]...)
	t.ID = m.mintTaskID(to.Date, t.Category, taskIDs(to))
	to.Tasks = append(to.Tasks, t)

	m.log(to.Date, model.ActionMoveTask, fmt.Sprintf("%s (from %s)", t.Label, from.Date))
}

// MoveWholeDay moves every task of fromDate onto toDate. The source day stays in the
// collection with an empty task list.
func (m *Manager) MoveWholeDay(fromDate, toDate string) {
	fromDate = strings.TrimSpace(fromDate)
	toDate = strings.TrimSpace(toDate)
	if fromDate == toDate {
		return
	}
	from, ok := m.day(fromDate)
	if !ok {
		return
	}
	to, ok := m.day(toDate)
	if !ok {
		return
	}

	taken := taskIDs(to)
	moved := len(from.Tasks)
	for _, t := range from.Tasks {
		t.ID = m.mintTaskID(to.Date, t.Category, taken)
		to.Tasks = append(to.Tasks, t)
	}
	from.Tasks = []model.Task{}

	m.log(to.Date, model.ActionMoveDay, fmt.Sprintf("%d tasks from %s", moved, from.Date))
}

// SetNotes replaces the day's notes. Not audited.
func (m *Manager) SetNotes(date, text string) {
	d, ok := m.day(date)
	if !ok {
		return
	}
	d.Notes = text
}

// SetMetric parses raw for field and stores it on the day. Not audited. A parse
// failure returns an error and leaves the day unchanged.
func (m *Manager) SetMetric(date string, field model.MetricField, raw string) error {
	d, ok := m.day(date)
	if !ok {
		return nil
	}
	tmp := *d
	if err := model.ApplyMetric(&tmp, field, raw); err != nil {
		return err
	}
	*d = tmp
	return nil
}

func (m *Manager) ClearHistory() {
	m.history = []model.HistoryItem{}
}

// Completion is round(100*done/total) for date, or 0 for an empty or unknown day.
func (m *Manager) Completion(date string) int {
	d, ok := m.day(date)
	if !ok {
		return 0
	}
	return completion(d.Tasks)
}

func completion(tasks []model.Task) int {
	if len(tasks) == 0 {
		return 0
	}
	done := 0
	for _, t := range tasks {
		if t.Done {
			done++
		}
	}
	return ratio(done, len(tasks))
}

func ratio(done, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(done) / float64(total)))
}

func taskIDs(d *model.DayPlan) map[string]bool {
	out := make(map[string]bool, len(d.Tasks))
	for _, t := range d.Tasks {
		out[t.ID] = true
	}
	return out
}
