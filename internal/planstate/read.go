package planstate

import (
	"sort"
	"time"

	"dayplan-cli/internal/model"
)

// Day returns a copy of the plan for date.
func (m *Manager) Day(date string) (model.DayPlan, bool) {
	d, ok := m.day(date)
	if !ok {
		return model.DayPlan{}, false
	}
	return d.Clone(), true
}

// Days returns copies of every plan in date order.
func (m *Manager) Days() []model.DayPlan {
	out := make([]model.DayPlan, 0, len(m.plans))
	for i := range m.plans {
		out = append(out, m.plans[i].Clone())
	}
	return out
}

// Dates returns every covered date in order.
func (m *Manager) Dates() []string {
	out := make([]string, 0, len(m.plans))
	for i := range m.plans {
		out = append(out, m.plans[i].Date)
	}
	return out
}

// History returns the newest-first log. limit <= 0 means all.
func (m *Manager) History(limit int) []model.HistoryItem {
	n := len(m.history)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]model.HistoryItem, n)
	copy(out, m.history[:n])
	return out
}

// Snapshot returns a deep copy of the full state.
func (m *Manager) Snapshot() model.Snapshot {
	return model.Snapshot{Plans: m.plans, History: m.history}.Clone()
}

// Today maps a clock time onto a covered date, clamped to the first/last day.
func (m *Manager) Today(now time.Time) string {
	if len(m.plans) == 0 {
		return ""
	}
	want := now.Format("2006-01-02")
	dates := m.Dates()
	i := sort.SearchStrings(dates, want)
	switch {
	case i >= len(dates):
		return dates[len(dates)-1]
	default:
		return dates[i]
	}
}

// Neighbor returns the date offset days away from date, if covered.
func (m *Manager) Neighbor(date string, offset int) (string, bool) {
	i, ok := m.index[date]
	if !ok {
		return "", false
	}
	j := i + offset
	if j < 0 || j >= len(m.plans) {
		return "", false
	}
	return m.plans[j].Date, true
}

type Progress struct {
	Done       int `json:"done"`
	Total      int `json:"total"`
	Completion int `json:"completion"`
}

type Summary struct {
	Overall    Progress                    `json:"overall"`
	ByPhase    map[model.Phase]Progress    `json:"byPhase"`
	ByCategory map[model.Category]Progress `json:"byCategory"`
	ByWeek     map[int]Progress            `json:"byWeek"`
}

// Summary aggregates completion over the whole plan.
func (m *Manager) Summary() Summary {
	s := Summary{
		ByPhase:    map[model.Phase]Progress{},
		ByCategory: map[model.Category]Progress{},
		ByWeek:     map[int]Progress{},
	}
	add := func(p Progress, t model.Task) Progress {
		p.Total++
		if t.Done {
			p.Done++
		}
		return p
	}
	for _, d := range m.plans {
		for _, t := range d.Tasks {
			s.Overall = add(s.Overall, t)
			s.ByPhase[d.Phase] = add(s.ByPhase[d.Phase], t)
			s.ByCategory[t.Category] = add(s.ByCategory[t.Category], t)
			s.ByWeek[d.Week] = add(s.ByWeek[d.Week], t)
		}
	}
	s.Overall.Completion = percent(s.Overall)
	for k, p := range s.ByPhase {
		p.Completion = percent(p)
		s.ByPhase[k] = p
	}
	for k, p := range s.ByCategory {
		p.Completion = percent(p)
		s.ByCategory[k] = p
	}
	for k, p := range s.ByWeek {
		p.Completion = percent(p)
		s.ByWeek[k] = p
	}
	return s
}

func percent(p Progress) int {
	return ratio(p.Done, p.Total)
}

// DayStatus is the one-line summary of a day used by list views.
type DayStatus struct {
	Date       string      `json:"date"`
	Phase      model.Phase `json:"phase"`
	Week       int         `json:"week"`
	Done       int         `json:"done"`
	Total      int         `json:"total"`
	Completion int         `json:"completion"`
}

// Statuses lists every day in date order.
func (m *Manager) Statuses() []DayStatus {
	out := make([]DayStatus, 0, len(m.plans))
	for _, d := range m.plans {
		done := 0
		for _, t := range d.Tasks {
			if t.Done {
				done++
			}
		}
		out = append(out, DayStatus{
			Date:       d.Date,
			Phase:      d.Phase,
			Week:       d.Week,
			Done:       done,
			Total:      len(d.Tasks),
			Completion: ratio(done, len(d.Tasks)),
		})
	}
	return out
}
