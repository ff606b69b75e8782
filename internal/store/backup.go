package store

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"dayplan-cli/internal/model"
)

const backupStampLayout = "20060102T150405.000Z"

type BackupInfo struct {
	Path      string    `json:"path" yaml:"path"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	Bytes     int64     `json:"bytes" yaml:"bytes"`
}

// Backup writes snap under <dir>/backups as snapshot-<UTC stamp>.json and returns the path.
func (s Store) Backup(snap model.Snapshot, now time.Time) (string, error) {
	var buf bytes.Buffer
	if err := EncodeSnapshot(&buf, snap, true); err != nil {
		return "", err
	}
	name := "snapshot-" + now.UTC().Format(backupStampLayout) + ".json"
	path := filepath.Join(s.backupsPath(), name)
	if err := WriteFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// ListBackups returns backups newest first.
func (s Store) ListBackups() ([]BackupInfo, error) {
	ents, err := os.ReadDir(s.backupsPath())
	if errors.Is(err, os.ErrNotExist) {
		return []BackupInfo{}, nil
	}
	if err != nil {
		return nil, err
	}
	out := []BackupInfo{}
	for _, e := range ents {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, "snapshot-") || !strings.HasSuffix(name, ".json") {
			continue
		}
		stamp := strings.TrimSuffix(strings.TrimPrefix(name, "snapshot-"), ".json")
		ts, err := time.Parse(backupStampLayout, stamp)
		if err != nil {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, err
		}
		out = append(out, BackupInfo{
			Path:      filepath.Join(s.backupsPath(), name),
			CreatedAt: ts.UTC(),
			Bytes:     info.Size(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
