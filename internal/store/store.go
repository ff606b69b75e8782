package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

const (
	dirName        = ".dayplan"
	sqliteFileName = "state.sqlite"
	configFileName = "config.yaml"
	backupsDirName = "backups"
)

// Store is a plan workspace directory: the SQLite snapshot, config.yaml and backups.
type Store struct {
	Dir string
}

// HomeDir is the per-user root (~/.dayplan). DAYPLAN_HOME overrides it.
func HomeDir() (string, error) {
	if v := strings.TrimSpace(os.Getenv("DAYPLAN_HOME")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, dirName), nil
}

// DiscoverDir walks upward from start looking for a .dayplan directory.
func DiscoverDir(start string) (string, bool) {
	dir := start
	for {
		candidate := filepath.Join(dir, dirName)
		if st, err := os.Stat(candidate); err == nil && st.IsDir() {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// ResolveDir picks the workspace dir: explicit flag, DAYPLAN_DIR, a .dayplan found
// above cwd, then ~/.dayplan/default.
func ResolveDir(flagDir string) (string, error) {
	if v := strings.TrimSpace(flagDir); v != "" {
		return filepath.Clean(v), nil
	}
	if v := strings.TrimSpace(os.Getenv("DAYPLAN_DIR")); v != "" {
		return filepath.Clean(v), nil
	}
	if cwd, err := os.Getwd(); err == nil {
		if found, ok := DiscoverDir(cwd); ok {
			return found, nil
		}
	}
	home, err := HomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "default"), nil
}

func (s Store) Ensure() error {
	if strings.TrimSpace(s.Dir) == "" {
		return errors.New("store: empty dir")
	}
	return os.MkdirAll(s.Dir, 0o755)
}

func (s Store) sqlitePath() string  { return filepath.Join(s.Dir, sqliteFileName) }
func (s Store) configPath() string  { return filepath.Join(s.Dir, configFileName) }
func (s Store) backupsPath() string { return filepath.Join(s.Dir, backupsDirName) }

func (s Store) openSQLite(ctx context.Context) (*sql.DB, error) {
	if err := s.Ensure(); err != nil {
		return nil, err
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", s.sqlitePath())
	if err != nil {
		return nil, err
	}
	// WAL lets the CLI read while the TUI or web server writes.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrateSQLiteState(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
