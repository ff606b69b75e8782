package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"dayplan-cli/internal/model"
)

// MalformedSnapshotError reports an export document that cannot be imported.
// Callers must leave their current state untouched when they see it.
type MalformedSnapshotError struct {
	Reason string
	Err    error
}

func (e *MalformedSnapshotError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed snapshot: %s: %v", e.Reason, e.Err)
	}
	return "malformed snapshot: " + e.Reason
}

func (e *MalformedSnapshotError) Unwrap() error { return e.Err }

func malformed(format string, args ...any) error {
	return &MalformedSnapshotError{Reason: fmt.Sprintf(format, args...)}
}

// EncodeSnapshot writes snap as the {"plans": [...], "history": [...]} export document.
func EncodeSnapshot(w io.Writer, snap model.Snapshot, pretty bool) error {
	snap = snap.Clone()
	var (
		b   []byte
		err error
	)
	if pretty {
		b, err = json.MarshalIndent(snap, "", "  ")
	} else {
		b, err = json.Marshal(snap)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

// DecodeSnapshot parses and validates an export document.
func DecodeSnapshot(r io.Reader) (model.Snapshot, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return model.Snapshot{}, err
	}
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return model.Snapshot{}, malformed("empty document")
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(b, &top); err != nil {
		return model.Snapshot{}, &MalformedSnapshotError{Reason: "not a JSON object", Err: err}
	}
	for _, k := range []string{"plans", "history"} {
		raw, ok := top[k]
		if !ok {
			return model.Snapshot{}, malformed("missing %q", k)
		}
		if !bytes.HasPrefix(bytes.TrimSpace(raw), []byte("[")) {
			return model.Snapshot{}, malformed("%q must be an array", k)
		}
	}

	var snap model.Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return model.Snapshot{}, &MalformedSnapshotError{Reason: "decode", Err: err}
	}
	if err := ValidateSnapshot(snap); err != nil {
		return model.Snapshot{}, err
	}
	return snap.Clone(), nil
}

// ValidateSnapshot checks the structural rules an imported snapshot must satisfy.
func ValidateSnapshot(snap model.Snapshot) error {
	seen := make(map[string]bool, len(snap.Plans))
	for i, d := range snap.Plans {
		date := strings.TrimSpace(d.Date)
		if _, err := time.Parse("2006-01-02", date); err != nil || date != d.Date {
			return malformed("plans[%d]: invalid date %q", i, d.Date)
		}
		if seen[date] {
			return malformed("plans[%d]: duplicate date %s", i, date)
		}
		seen[date] = true
		if d.Week < 1 {
			return malformed("%s: week must be >= 1", date)
		}
		if !d.Phase.Valid() {
			return malformed("%s: unknown phase %q", date, d.Phase)
		}
		ids := make(map[string]bool, len(d.Tasks))
		for _, t := range d.Tasks {
			if strings.TrimSpace(t.ID) == "" {
				return malformed("%s: task with empty id", date)
			}
			if ids[t.ID] {
				return malformed("%s: duplicate task id %s", date, t.ID)
			}
			ids[t.ID] = true
			if !t.Category.Valid() {
				return malformed("%s: task %s has unknown category %q", date, t.ID, t.Category)
			}
		}
	}
	for i, h := range snap.History {
		if !h.Action.Valid() {
			return malformed("history[%d]: unknown action %q", i, h.Action)
		}
	}
	return nil
}
