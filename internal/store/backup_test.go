package store

import (
	"os"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestBackup_WritesAndListsNewestFirst(t *testing.T) {
	s := Store{Dir: t.TempDir()}
	snap := testSnapshot()

	if got, err := s.ListBackups(); err != nil || len(got) != 0 {
		t.Fatalf("expected no backups; got %v err=%v", got, err)
	}

	t1 := time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC)
	t2 := t1.Add(90 * time.Second)
	p1, err := s.Backup(snap, t1)
	if err != nil {
		t.Fatalf("backup 1: %v", err)
	}
	p2, err := s.Backup(snap, t2)
	if err != nil {
		t.Fatalf("backup 2: %v", err)
	}
	if !strings.Contains(p1, "snapshot-20251001T090000.000Z.json") {
		t.Fatalf("unexpected backup name %s", p1)
	}

	list, err := s.ListBackups()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Path != p2 || list[1].Path != p1 {
		t.Fatalf("expected newest first; got %+v", list)
	}
	if !list[0].CreatedAt.Equal(t2) || list[0].Bytes == 0 {
		t.Fatalf("unexpected info: %+v", list[0])
	}

	f, err := os.Open(p1)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	got, err := DecodeSnapshot(f)
	if err != nil {
		t.Fatalf("decode backup: %v", err)
	}
	if !reflect.DeepEqual(snap, got) {
		t.Fatalf("backup does not restore the snapshot")
	}
}
