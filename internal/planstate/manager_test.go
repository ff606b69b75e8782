package planstate

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"dayplan-cli/internal/model"
	"dayplan-cli/internal/plan"
)

var fixedNow = time.Date(2025, 9, 20, 7, 30, 0, 0, time.UTC)

func newTestManager(t *testing.T, opts ...Option) *Manager {
	t.Helper()
	snap := model.Snapshot{Plans: plan.Generate(plan.DefaultRange())}
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return New(snap, opts...)
}

func mustDay(t *testing.T, m *Manager, date string) model.DayPlan {
	t.Helper()
	d, ok := m.Day(date)
	if !ok {
		t.Fatalf("day %s not found", date)
	}
	return d
}

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}

func TestToggleTask_ScopedToDate(t *testing.T) {
	m := newTestManager(t)
	day := mustDay(t, m, "2025-09-22")
	id := day.Tasks[0].ID

	m.ToggleTask("2025-09-22", id, true)
	if got := mustDay(t, m, "2025-09-22").Tasks[0].Done; !got {
		t.Fatalf("expected task done")
	}

	// Same id on another day must not match.
	m.ToggleTask("2025-09-23", id, true)
	for _, tk := range mustDay(t, m, "2025-09-23").Tasks {
		if tk.Done {
			t.Fatalf("expected no tasks done on 2025-09-23; got %+v", tk)
		}
	}

	h := m.History(0)
	if len(h) != 2 || h[0].Action != model.ActionCheck || h[0].Date != "2025-09-23" {
		t.Fatalf("unexpected history: %+v", h)
	}
	if !h[0].TS.Equal(fixedNow) {
		t.Fatalf("expected ts from clock; got %v", h[0].TS)
	}

	m.ToggleTask("2025-09-22", id, false)
	if h := m.History(1); h[0].Action != model.ActionUncheck {
		t.Fatalf("expected UNCHECK; got %s", h[0].Action)
	}
}

func TestToggleTask_MissingIDStillLogs(t *testing.T) {
	m := newTestManager(t)
	before := m.Snapshot().Plans

	m.ToggleTask("2025-09-22", "nope", true)

	if !reflect.DeepEqual(before, m.Snapshot().Plans) {
		t.Fatalf("expected plans unchanged")
	}
	if h := m.History(0); len(h) != 1 || h[0].Detail != "nope" {
		t.Fatalf("expected exactly one history entry; got %+v", h)
	}
}

func TestOperations_MissingDateAreSilent(t *testing.T) {
	m := newTestManager(t)
	before := m.Snapshot()

	m.ToggleTask("1999-01-01", "x", true)
	m.ResetDay("1999-01-01")
	m.CheckAll("1999-01-01")
	m.DeleteTask("1999-01-01", "x")
	m.MoveTask("1999-01-01", "2025-09-22", "x")
	m.MoveTask("2025-09-22", "1999-01-01", mustDay(t, m, "2025-09-22").Tasks[0].ID)
	m.MoveWholeDay("2025-09-22", "1999-01-01")
	m.SetNotes("1999-01-01", "hi")
	if err := m.SetMetric("1999-01-01", model.MetricHRRest, "50"); err != nil {
		t.Fatalf("SetMetric on missing date: %v", err)
	}

	if !reflect.DeepEqual(before, m.Snapshot()) {
		t.Fatalf("expected state unchanged")
	}
}

func TestResetAndCheckAll(t *testing.T) {
	m := newTestManager(t)
	date := "2025-09-20"

	m.CheckAll(date)
	if got := m.Completion(date); got != 100 {
		t.Fatalf("expected 100%% after check-all; got %d", got)
	}
	m.ResetDay(date)
	if got := m.Completion(date); got != 0 {
		t.Fatalf("expected 0%% after reset; got %d", got)
	}
	h := m.History(0)
	if len(h) != 2 || h[0].Action != model.ActionResetDay || h[1].Action != model.ActionCheckAll {
		t.Fatalf("expected newest-first RESET_DAY, CHECK_ALL; got %+v", h)
	}
}

func TestCompletion_Rounds(t *testing.T) {
	m := New(model.Snapshot{Plans: []model.DayPlan{{
		Date: "2025-09-18", Week: 1, Phase: model.PhaseBase,
		Tasks: []model.Task{
			{ID: "a", Category: model.CategoryMob},
			{ID: "b", Category: model.CategoryMob},
			{ID: "c", Category: model.CategoryMob},
		},
	}}})
	m.ToggleTask("2025-09-18", "a", true)
	if got := m.Completion("2025-09-18"); got != 33 {
		t.Fatalf("expected 33; got %d", got)
	}
	m.ToggleTask("2025-09-18", "b", true)
	if got := m.Completion("2025-09-18"); got != 67 {
		t.Fatalf("expected 67; got %d", got)
	}
}

func TestCompletion_EmptyDayIsZero(t *testing.T) {
	m := newTestManager(t)
	m.MoveWholeDay("2025-09-20", "2025-09-21")
	if got := m.Completion("2025-09-20"); got != 0 {
		t.Fatalf("expected 0 for empty day; got %d", got)
	}
	if got := m.Completion("not-a-date"); got != 0 {
		t.Fatalf("expected 0 for missing day; got %d", got)
	}
}

func TestDeleteTask_DoesNotRenumber(t *testing.T) {
	m := newTestManager(t)
	day := mustDay(t, m, "2025-09-22")
	victim := day.Tasks[1].ID

	m.DeleteTask("2025-09-22", victim)

	after := mustDay(t, m, "2025-09-22")
	if len(after.Tasks) != len(day.Tasks)-1 {
		t.Fatalf("expected one fewer task")
	}
	if after.Tasks[0].ID != day.Tasks[0].ID || after.Tasks[1].ID != day.Tasks[2].ID {
		t.Fatalf("expected remaining ids untouched; got %s, %s", after.Tasks[0].ID, after.Tasks[1].ID)
	}
	if h := m.History(1); h[0].Action != model.ActionDeleteTask || h[0].Detail != day.Tasks[1].Label {
		t.Fatalf("unexpected history: %+v", h)
	}
}

func TestMoveTask_PreservesContentWithNewID(t *testing.T) {
	m := newTestManager(t)
	from, to := "2025-09-22", "2025-09-24"
	src := mustDay(t, m, from)
	moving := src.Tasks[0]
	m.ToggleTask(from, moving.ID, true)
	moving.Done = true
	dstLen := len(mustDay(t, m, to).Tasks)

	m.MoveTask(from, to, moving.ID)

	for _, tk := range mustDay(t, m, from).Tasks {
		if tk.ID == moving.ID || tk.Label == moving.Label {
			t.Fatalf("expected task gone from source; found %+v", tk)
		}
	}
	dst := mustDay(t, m, to)
	if len(dst.Tasks) != dstLen+1 {
		t.Fatalf("expected destination to grow by one")
	}
	got := dst.Tasks[len(dst.Tasks)-1]
	if got.ID == moving.ID {
		t.Fatalf("expected a new id")
	}
	if !strings.HasPrefix(got.ID, to+"_"+string(moving.Category)+"_") {
		t.Fatalf("expected id scoped to destination; got %q", got.ID)
	}
	if got.Label != moving.Label || got.Category != moving.Category || got.Done != moving.Done || !reflect.DeepEqual(got.Tips, moving.Tips) {
		t.Fatalf("expected content preserved; got %+v want %+v", got, moving)
	}

	h := m.History(1)
	if h[0].Action != model.ActionMoveTask || h[0].Date != to || !strings.Contains(h[0].Detail, from) || !strings.Contains(h[0].Detail, moving.Label) {
		t.Fatalf("unexpected history: %+v", h[0])
	}
}

func TestMoveTask_NoOps(t *testing.T) {
	m := newTestManager(t)
	id := mustDay(t, m, "2025-09-22").Tasks[0].ID
	before := m.Snapshot()

	m.MoveTask("2025-09-22", "2025-09-22", id)
	m.MoveTask("2025-09-22", "2025-09-23", "missing")

	if !reflect.DeepEqual(before, m.Snapshot()) {
		t.Fatalf("expected no change and no history")
	}
}

func TestMoveWholeDay(t *testing.T) {
	m := newTestManager(t)
	from, to := "2025-09-22", "2025-09-23"
	a := len(mustDay(t, m, from).Tasks)
	b := len(mustDay(t, m, to).Tasks)

	m.MoveWholeDay(from, to)

	if got := mustDay(t, m, from); len(got.Tasks) != 0 || got.Tasks == nil {
		t.Fatalf("expected source emptied but kept; got %+v", got.Tasks)
	}
	dst := mustDay(t, m, to)
	if len(dst.Tasks) != a+b {
		t.Fatalf("expected %d tasks; got %d", a+b, len(dst.Tasks))
	}
	ids := map[string]bool{}
	for _, tk := range dst.Tasks {
		if ids[tk.ID] {
			t.Fatalf("duplicate id %q", tk.ID)
		}
		ids[tk.ID] = true
	}
	h := m.History(0)
	if len(h) != 1 || h[0].Action != model.ActionMoveDay {
		t.Fatalf("expected exactly one MOVE_DAY entry; got %+v", h)
	}
	if len(m.Dates()) != plan.DefaultRange().Days() {
		t.Fatalf("expected no day records added or removed")
	}
}

func TestMoveWholeDay_UniqueIDsWithDegenerateRandomness(t *testing.T) {
	m := newTestManager(t, WithRand(zeroReader{}))
	m.MoveWholeDay("2025-09-22", "2025-09-23")
	m.MoveWholeDay("2025-09-24", "2025-09-23")

	ids := map[string]bool{}
	for _, tk := range mustDay(t, m, "2025-09-23").Tasks {
		if ids[tk.ID] {
			t.Fatalf("duplicate id %q", tk.ID)
		}
		ids[tk.ID] = true
	}
}

func TestSetNotesAndMetric_NotAudited(t *testing.T) {
	m := newTestManager(t)
	m.SetNotes("2025-09-20", "legs heavy")
	if err := m.SetMetric("2025-09-20", model.MetricSleepHours, "7.5"); err != nil {
		t.Fatalf("SetMetric: %v", err)
	}
	if err := m.SetMetric("2025-09-20", model.MetricHRRest, "48"); err != nil {
		t.Fatalf("SetMetric: %v", err)
	}
	d := mustDay(t, m, "2025-09-20")
	if d.Notes != "legs heavy" || d.SleepHours == nil || *d.SleepHours != 7.5 || d.HRRest == nil || *d.HRRest != 48 {
		t.Fatalf("unexpected day: %+v", d)
	}
	if len(m.History(0)) != 0 {
		t.Fatalf("expected no history for notes/metrics")
	}

	if err := m.SetMetric("2025-09-20", model.MetricHRRest, "fast"); err == nil {
		t.Fatalf("expected parse error")
	}
	if d := mustDay(t, m, "2025-09-20"); d.HRRest == nil || *d.HRRest != 48 {
		t.Fatalf("expected value unchanged after parse error")
	}

	if err := m.SetMetric("2025-09-20", model.MetricHRRest, ""); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if d := mustDay(t, m, "2025-09-20"); d.HRRest != nil {
		t.Fatalf("expected cleared metric")
	}
}

func TestClearHistory(t *testing.T) {
	m := newTestManager(t)
	m.CheckAll("2025-09-20")
	m.ClearHistory()
	if h := m.History(0); len(h) != 0 {
		t.Fatalf("expected empty history; got %d", len(h))
	}
}

func TestReplace_InstallsVerbatim(t *testing.T) {
	m := newTestManager(t)
	m.CheckAll("2025-09-20")
	snap := m.Snapshot()

	other := newTestManager(t)
	other.Replace(snap)
	if !reflect.DeepEqual(snap, other.Snapshot()) {
		t.Fatalf("expected replaced state to equal snapshot")
	}

	// Snapshots are copies.
	snap.Plans[0].Tasks[0].Label = "changed"
	if other.Snapshot().Plans[0].Tasks[0].Label == "changed" {
		t.Fatalf("expected snapshot to be detached from manager state")
	}
}

func TestToday_Clamps(t *testing.T) {
	m := newTestManager(t)
	if got := m.Today(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)); got != plan.StartDate {
		t.Fatalf("expected clamp to start; got %s", got)
	}
	if got := m.Today(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)); got != plan.EndDate {
		t.Fatalf("expected clamp to end; got %s", got)
	}
	if got := m.Today(fixedNow); got != "2025-09-20" {
		t.Fatalf("expected 2025-09-20; got %s", got)
	}
}

func TestSummary(t *testing.T) {
	m := newTestManager(t)
	m.CheckAll("2025-09-20")
	s := m.Summary()
	done := len(mustDay(t, m, "2025-09-20").Tasks)
	if s.Overall.Done != done || s.Overall.Total == 0 {
		t.Fatalf("unexpected overall: %+v", s.Overall)
	}
	if s.ByPhase[model.PhaseBase].Done != done {
		t.Fatalf("unexpected BASE progress: %+v", s.ByPhase[model.PhaseBase])
	}
	if s.ByWeek[1].Done != done {
		t.Fatalf("unexpected week 1 progress: %+v", s.ByWeek[1])
	}
}
