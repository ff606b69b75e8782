package web

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"dayplan-cli/internal/logging"
	"dayplan-cli/internal/model"
	"dayplan-cli/internal/persist"
	"dayplan-cli/internal/plan"
	"dayplan-cli/internal/planstate"
)

var testNow = time.Date(2025, 9, 20, 7, 30, 0, 0, time.UTC)

type memSink struct {
	mu   sync.Mutex
	last model.Snapshot
	n    int
}

func (m *memSink) Save(ctx context.Context, snap model.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = snap
	m.n++
	return nil
}

type fixture struct {
	srv  *Server
	mgr  *planstate.Manager
	sink *memSink
	save *persist.DebouncedSaver
}

func newFixture(t *testing.T, readOnly bool) fixture {
	t.Helper()
	clock := func() time.Time { return testNow }
	mgr := planstate.New(model.Snapshot{Plans: plan.Generate(plan.DefaultRange())}, planstate.WithClock(clock))
	sink := &memSink{}
	saver := persist.NewDebouncedSaver(sink, persist.DebouncedSaverOpts{Debounce: time.Hour, Logger: logging.Discard()})
	srv, err := NewServer(ServerConfig{
		Manager:  mgr,
		Saver:    saver,
		Logger:   logging.Discard(),
		Now:      clock,
		ReadOnly: readOnly,
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return fixture{srv: srv, mgr: mgr, sink: sink, save: saver}
}

func (f fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func (f fixture) flushed(t *testing.T) model.Snapshot {
	t.Helper()
	if err := f.save.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	f.sink.mu.Lock()
	defer f.sink.mu.Unlock()
	return f.sink.last
}

func firstTaskID(t *testing.T, mgr *planstate.Manager, date string) string {
	t.Helper()
	d, ok := mgr.Day(date)
	if !ok || len(d.Tasks) == 0 {
		t.Fatalf("no tasks on %s", date)
	}
	return d.Tasks[0].ID
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealthz(t *testing.T) {
	f := newFixture(t, false)
	if rec := f.do(t, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestGetDay_TodayAndUnknown(t *testing.T) {
	f := newFixture(t, false)

	rec := f.do(t, http.MethodGet, "/api/days/today", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	v := decode[dayView](t, rec)
	if v.Date != "2025-09-20" || len(v.Tasks) == 0 {
		t.Fatalf("unexpected day: %+v", v)
	}

	if rec := f.do(t, http.MethodGet, "/api/days/2030-01-01", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown date: status=%d", rec.Code)
	}
	if rec := f.do(t, http.MethodGet, "/api/days/not-a-date", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad date: status=%d", rec.Code)
	}
}

func TestListDays(t *testing.T) {
	f := newFixture(t, false)
	rec := f.do(t, http.MethodGet, "/api/days", "")
	rows := decode[[]planstate.DayStatus](t, rec)
	if len(rows) != plan.DefaultRange().Days() {
		t.Fatalf("rows=%d want %d", len(rows), plan.DefaultRange().Days())
	}
	if rows[0].Date != "2025-09-18" || rows[0].Phase != model.PhaseBase {
		t.Fatalf("first row: %+v", rows[0])
	}
}

func TestToggleTask_UpdatesAndPersists(t *testing.T) {
	f := newFixture(t, false)
	id := firstTaskID(t, f.mgr, "2025-09-20")

	rec := f.do(t, http.MethodPost, "/api/days/2025-09-20/tasks/"+id+"/toggle", `{"done":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	v := decode[dayView](t, rec)
	if !v.Tasks[0].Done || v.Completion == 0 {
		t.Fatalf("expected task done and completion > 0: %+v", v)
	}

	snap := f.flushed(t)
	if len(snap.History) != 1 || snap.History[0].Action != model.ActionCheck {
		t.Fatalf("expected one CHECK entry persisted, got %+v", snap.History)
	}
}

func TestToggleTask_RequiresDone(t *testing.T) {
	f := newFixture(t, false)
	id := firstTaskID(t, f.mgr, "2025-09-20")
	rec := f.do(t, http.MethodPost, "/api/days/2025-09-20/tasks/"+id+"/toggle", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", rec.Code)
	}
	if rec := f.do(t, http.MethodPost, "/api/days/2025-09-20/tasks/"+id+"/toggle", `{"done":`); rec.Code != http.StatusBadRequest {
		t.Fatalf("truncated body: status=%d", rec.Code)
	}
}

func TestCheckAllAndReset(t *testing.T) {
	f := newFixture(t, false)

	v := decode[dayView](t, f.do(t, http.MethodPost, "/api/days/2025-09-20/check-all", ""))
	if v.Completion != 100 {
		t.Fatalf("check-all completion=%d", v.Completion)
	}
	v = decode[dayView](t, f.do(t, http.MethodPost, "/api/days/2025-09-20/reset", ""))
	if v.Completion != 0 {
		t.Fatalf("reset completion=%d", v.Completion)
	}
}

func TestDeleteTask(t *testing.T) {
	f := newFixture(t, false)
	before, _ := f.mgr.Day("2025-09-20")
	id := before.Tasks[0].ID

	v := decode[dayView](t, f.do(t, http.MethodDelete, "/api/days/2025-09-20/tasks/"+id, ""))
	if len(v.Tasks) != len(before.Tasks)-1 {
		t.Fatalf("tasks=%d want %d", len(v.Tasks), len(before.Tasks)-1)
	}
}

func TestNotesAndMetrics(t *testing.T) {
	f := newFixture(t, false)

	v := decode[dayView](t, f.do(t, http.MethodPut, "/api/days/2025-09-20/notes", `{"notes":"legs heavy"}`))
	if v.Notes != "legs heavy" {
		t.Fatalf("notes=%q", v.Notes)
	}

	v = decode[dayView](t, f.do(t, http.MethodPut, "/api/days/2025-09-20/metrics/sleepHours", `{"value":7.5}`))
	if v.SleepHours == nil || *v.SleepHours != 7.5 {
		t.Fatalf("sleepHours=%v", v.SleepHours)
	}
	v = decode[dayView](t, f.do(t, http.MethodPut, "/api/days/2025-09-20/metrics/hrRest", `{"value":"52"}`))
	if v.HRRest == nil || *v.HRRest != 52 {
		t.Fatalf("hrRest=%v", v.HRRest)
	}
	v = decode[dayView](t, f.do(t, http.MethodPut, "/api/days/2025-09-20/metrics/sleepHours", `{"value":null}`))
	if v.SleepHours != nil {
		t.Fatalf("expected sleepHours cleared")
	}

	if rec := f.do(t, http.MethodPut, "/api/days/2025-09-20/metrics/hrRest", `{"value":"fast"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad metric value: status=%d", rec.Code)
	}
	if rec := f.do(t, http.MethodPut, "/api/days/2025-09-20/metrics/mood", `{"value":1}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown field: status=%d", rec.Code)
	}

	// Notes and metrics are not audited.
	if h := f.mgr.History(0); len(h) != 0 {
		t.Fatalf("expected no history, got %+v", h)
	}
}

func TestMove_TaskAndWholeDay(t *testing.T) {
	f := newFixture(t, false)
	id := firstTaskID(t, f.mgr, "2025-09-20")
	fromBefore, _ := f.mgr.Day("2025-09-20")
	toBefore, _ := f.mgr.Day("2025-09-21")

	rec := f.do(t, http.MethodPost, "/api/moves", `{"from":"2025-09-20","to":"2025-09-21","taskId":"`+id+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	out := decode[map[string]dayView](t, rec)
	if len(out["from"].Tasks) != len(fromBefore.Tasks)-1 || len(out["to"].Tasks) != len(toBefore.Tasks)+1 {
		t.Fatalf("unexpected counts after move-task: from=%d to=%d", len(out["from"].Tasks), len(out["to"].Tasks))
	}

	out = decode[map[string]dayView](t, f.do(t, http.MethodPost, "/api/moves", `{"from":"2025-09-20","to":"2025-09-21"}`))
	if len(out["from"].Tasks) != 0 {
		t.Fatalf("expected source day emptied, got %d tasks", len(out["from"].Tasks))
	}

	if rec := f.do(t, http.MethodPost, "/api/moves", `{"from":"2025-09-21","to":"2025-09-21"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("same-day move: status=%d", rec.Code)
	}
}

func TestHistory_ListLimitAndClear(t *testing.T) {
	f := newFixture(t, false)
	f.do(t, http.MethodPost, "/api/days/2025-09-20/check-all", "")
	f.do(t, http.MethodPost, "/api/days/2025-09-20/reset", "")

	items := decode[[]model.HistoryItem](t, f.do(t, http.MethodGet, "/api/history?limit=1", ""))
	if len(items) != 1 || items[0].Action != model.ActionResetDay {
		t.Fatalf("expected newest RESET_DAY first, got %+v", items)
	}
	if rec := f.do(t, http.MethodGet, "/api/history?limit=-1", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("negative limit: status=%d", rec.Code)
	}

	if rec := f.do(t, http.MethodDelete, "/api/history", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("clear: status=%d", rec.Code)
	}
	if items := decode[[]model.HistoryItem](t, f.do(t, http.MethodGet, "/api/history", "")); len(items) != 0 {
		t.Fatalf("expected empty history, got %d", len(items))
	}
}

func TestExportImport(t *testing.T) {
	f := newFixture(t, false)
	f.do(t, http.MethodPost, "/api/days/2025-09-20/check-all", "")

	rec := f.do(t, http.MethodGet, "/api/export", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("export status=%d", rec.Code)
	}
	exported := rec.Body.String()

	f.do(t, http.MethodPost, "/api/days/2025-09-20/reset", "")
	if got := f.mgr.Completion("2025-09-20"); got != 0 {
		t.Fatalf("completion after reset=%d", got)
	}

	if rec := f.do(t, http.MethodPost, "/api/import", exported); rec.Code != http.StatusOK {
		t.Fatalf("import status=%d body=%s", rec.Code, rec.Body.String())
	}
	if got := f.mgr.Completion("2025-09-20"); got != 100 {
		t.Fatalf("completion after import=%d", got)
	}
	if got := len(f.mgr.History(0)); got != 1 {
		t.Fatalf("history after import=%d, want the exported single entry", got)
	}

	if rec := f.do(t, http.MethodPost, "/api/import", `{"plans":[]}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed import: status=%d", rec.Code)
	}
}

func TestReadOnlyRejectsMutations(t *testing.T) {
	f := newFixture(t, true)
	if rec := f.do(t, http.MethodPost, "/api/days/2025-09-20/check-all", ""); rec.Code != http.StatusForbidden {
		t.Fatalf("status=%d", rec.Code)
	}
	if rec := f.do(t, http.MethodGet, "/api/days/2025-09-20", ""); rec.Code != http.StatusOK {
		t.Fatalf("reads should still work: status=%d", rec.Code)
	}
}

func TestDayPage_RendersChecklist(t *testing.T) {
	f := newFixture(t, false)
	f.do(t, http.MethodPut, "/api/days/2025-09-20/notes", `{"notes":"**felt strong**"}`)

	rec := f.do(t, http.MethodGet, "/days/2025-09-20", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"2025-09-20",
		`href="/days/2025-09-19"`,
		`href="/days/2025-09-21"`,
		"<strong>felt strong</strong>",
		`type="checkbox"`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in page", want)
		}
	}

	rec = f.do(t, http.MethodGet, "/", "")
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/days/today" {
		t.Fatalf("root redirect: status=%d location=%q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestDayPage_EscapesRawHTMLInNotes(t *testing.T) {
	f := newFixture(t, false)
	f.do(t, http.MethodPut, "/api/days/2025-09-20/notes", `{"notes":"hi <script>alert(1)</script>"}`)

	rec := f.do(t, http.MethodGet, "/days/2025-09-20", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "<script>alert(1)") {
		t.Fatalf("raw html leaked into page")
	}
}

func TestDayPages_WriteOmitsMissingNeighbors(t *testing.T) {
	p, err := newDayPages()
	if err != nil {
		t.Fatalf("newDayPages: %v", err)
	}
	v := dayView{DayPlan: model.DayPlan{Date: "2025-11-23", Phase: model.PhaseTaper, Week: 10, Tasks: []model.Task{}}}
	var b bytes.Buffer
	if err := p.write(&b, v, "2025-11-22", ""); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := b.String()
	if !strings.Contains(out, `href="/days/2025-11-22"`) || strings.Contains(out, "&rarr;") {
		t.Fatalf("unexpected nav:\n%s", out)
	}
}

func TestSonicSerializer_Indent(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	if err := (sonicSerializer{}).Serialize(c, map[string]int{"a": 1}, "  "); err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("\n  \"a\": 1")) {
		t.Fatalf("expected indented output, got %q", rec.Body.String())
	}
}
