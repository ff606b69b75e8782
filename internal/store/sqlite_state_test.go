package store

import (
	"context"
	"os"
	"reflect"
	"testing"
	"time"

	"dayplan-cli/internal/model"
	"dayplan-cli/internal/plan"
)

func withEnv(t *testing.T, k, v string, fn func()) {
	t.Helper()
	old, had := os.LookupEnv(k)
	if err := os.Setenv(k, v); err != nil {
		t.Fatalf("setenv %s: %v", k, err)
	}
	t.Cleanup(func() {
		if had {
			_ = os.Setenv(k, old)
		} else {
			_ = os.Unsetenv(k)
		}
	})
	fn()
}

func testSnapshot() model.Snapshot {
	plans := plan.Generate(plan.DefaultRange())
	plans[0].Tasks[0].Done = true
	plans[0].Notes = "first day"
	hr := 52
	plans[0].HRRest = &hr
	return model.Snapshot{
		Plans: plans,
		History: []model.HistoryItem{
			{TS: time.Date(2025, 9, 18, 8, 0, 1, 0, time.UTC), Date: plans[0].Date, Action: model.ActionCheck, Detail: plans[0].Tasks[0].Label},
			{TS: time.Date(2025, 9, 18, 8, 0, 0, 0, time.UTC), Date: plans[0].Date, Action: model.ActionResetDay, Detail: "9 tasks"},
		},
	}.Clone()
}

func TestSQLiteState_EmptyStoreReportsNotFound(t *testing.T) {
	s := Store{Dir: t.TempDir()}
	_, ok, err := s.LoadSnapshot(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ok {
		t.Fatalf("expected ok=false for an empty store")
	}
}

func TestSQLiteState_SaveLoad_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := Store{Dir: t.TempDir()}
	want := testSnapshot()

	if err := s.SaveSnapshot(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, ok, err := s.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !ok {
		t.Fatalf("expected ok=true after save")
	}
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("snapshot mismatch after round trip")
	}
	if got.History[0].Action != model.ActionCheck {
		t.Fatalf("expected newest-first history order; got %+v", got.History)
	}
}

func TestSQLiteState_SaveReplacesAll(t *testing.T) {
	ctx := context.Background()
	s := Store{Dir: t.TempDir()}

	if err := s.SaveSnapshot(ctx, testSnapshot()); err != nil {
		t.Fatalf("save 1: %v", err)
	}
	small := model.Snapshot{Plans: testSnapshot().Plans[:2], History: []model.HistoryItem{}}
	if err := s.SaveSnapshot(ctx, small); err != nil {
		t.Fatalf("save 2: %v", err)
	}
	got, _, err := s.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got.Plans) != 2 || len(got.History) != 0 {
		t.Fatalf("expected replace-all; got %d plans, %d history", len(got.Plans), len(got.History))
	}
}

func TestSQLiteState_DeviceIDStableAndSavedAt(t *testing.T) {
	ctx := context.Background()
	s := Store{Dir: t.TempDir()}

	if _, ok, err := s.SavedAt(ctx); err != nil || ok {
		t.Fatalf("expected no saved_at before first save; ok=%v err=%v", ok, err)
	}

	id1, err := s.DeviceID(ctx)
	if err != nil {
		t.Fatalf("device id: %v", err)
	}
	if err := s.SaveSnapshot(ctx, testSnapshot()); err != nil {
		t.Fatalf("save: %v", err)
	}
	id2, err := s.DeviceID(ctx)
	if err != nil {
		t.Fatalf("device id: %v", err)
	}
	if id1 == "" || id1 != id2 {
		t.Fatalf("expected stable device id; got %q then %q", id1, id2)
	}

	at, ok, err := s.SavedAt(ctx)
	if err != nil || !ok {
		t.Fatalf("expected saved_at after save; ok=%v err=%v", ok, err)
	}
	if time.Since(at) > time.Minute {
		t.Fatalf("unexpected saved_at %v", at)
	}
}
