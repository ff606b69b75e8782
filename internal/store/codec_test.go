package store

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"dayplan-cli/internal/model"
)

func TestCodec_ExportImportRoundTrip(t *testing.T) {
	want := testSnapshot()

	var buf bytes.Buffer
	if err := EncodeSnapshot(&buf, want, true); err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeSnapshot(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("round trip changed the snapshot")
	}
}

func TestCodec_EmptyStateRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeSnapshot(&buf, model.Snapshot{}, false); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != `{"plans":[],"history":[]}` {
		t.Fatalf("unexpected document: %s", got)
	}
	snap, err := DecodeSnapshot(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(snap.Plans) != 0 || len(snap.History) != 0 {
		t.Fatalf("expected empty snapshot")
	}
}

func TestCodec_RejectsMalformed(t *testing.T) {
	tests := map[string]string{
		"empty":             ``,
		"not json":          `plans: []`,
		"array":             `[]`,
		"missing history":   `{"plans":[]}`,
		"missing plans":     `{"history":[]}`,
		"plans not array":   `{"plans":{},"history":[]}`,
		"bad date":          `{"plans":[{"date":"2025-13-01","phase":"BASE","week":1,"tasks":[]}],"history":[]}`,
		"duplicate date":    `{"plans":[{"date":"2025-09-18","phase":"BASE","week":1,"tasks":[]},{"date":"2025-09-18","phase":"BASE","week":1,"tasks":[]}],"history":[]}`,
		"week zero":         `{"plans":[{"date":"2025-09-18","phase":"BASE","week":0,"tasks":[]}],"history":[]}`,
		"unknown phase":     `{"plans":[{"date":"2025-09-18","phase":"RACE","week":1,"tasks":[]}],"history":[]}`,
		"unknown category":  `{"plans":[{"date":"2025-09-18","phase":"BASE","week":1,"tasks":[{"id":"a","label":"x","done":false,"category":"RUN","tips":[]}]}],"history":[]}`,
		"duplicate task id": `{"plans":[{"date":"2025-09-18","phase":"BASE","week":1,"tasks":[{"id":"a","category":"MOB"},{"id":"a","category":"MOB"}]}],"history":[]}`,
		"unknown action":    `{"plans":[],"history":[{"ts":"2025-09-18T08:00:00Z","date":"2025-09-18","action":"UNDO","detail":""}]}`,
		"bad field type":    `{"plans":[{"date":"2025-09-18","phase":"BASE","week":"one","tasks":[]}],"history":[]}`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeSnapshot(strings.NewReader(doc))
			var mErr *MalformedSnapshotError
			if !errors.As(err, &mErr) {
				t.Fatalf("expected MalformedSnapshotError; got %v", err)
			}
		})
	}
}

func TestCodec_MissingTipsDecodeAsEmpty(t *testing.T) {
	doc := `{"plans":[{"date":"2025-09-18","phase":"BASE","week":1,"tasks":[{"id":"2025-09-18_MOB_0","label":"Hips","done":true,"category":"MOB"}]}],"history":[]}`
	snap, err := DecodeSnapshot(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	tk := snap.Plans[0].Tasks[0]
	if tk.Tips == nil || !tk.Done || tk.Category != model.CategoryMob {
		t.Fatalf("unexpected task: %+v", tk)
	}
}
