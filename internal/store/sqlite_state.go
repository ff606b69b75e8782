package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"dayplan-cli/internal/model"
)

const stateVersion = 1

// LoadSnapshot reads the persisted plans and history. ok is false when no plan rows
// exist yet, in which case the caller seeds a fresh plan.
func (s Store) LoadSnapshot(ctx context.Context) (model.Snapshot, bool, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return model.Snapshot{}, false, err
	}
	defer db.Close()

	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(1) FROM plans`).Scan(&n); err != nil {
		return model.Snapshot{}, false, err
	}
	if n == 0 {
		return model.Snapshot{}, false, nil
	}

	plans, err := readJSONRows[model.DayPlan](ctx, db, `SELECT json FROM plans ORDER BY date ASC`)
	if err != nil {
		return model.Snapshot{}, false, err
	}
	history, err := readJSONRows[model.HistoryItem](ctx, db, `SELECT json FROM history ORDER BY seq ASC`)
	if err != nil {
		return model.Snapshot{}, false, err
	}

	// Clone normalizes nil slices for stable callers.
	return model.Snapshot{Plans: plans, History: history}.Clone(), true, nil
}

// SaveSnapshot replaces all persisted state with snap in one transaction.
func (s Store) SaveSnapshot(ctx context.Context, snap model.Snapshot) error {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := ensureMetaUUID(ctx, db, "device_id"); err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	nowMs := time.Now().UTC().UnixMilli()

	meta := map[string]string{
		"version":         strconv.Itoa(stateVersion),
		"saved_at_unixms": strconv.FormatInt(nowMs, 10),
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO state_meta(k, v) VALUES(?, ?)`, k, v); err != nil {
			return err
		}
	}

	for _, t := range []string{"plans", "history"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+t); err != nil {
			return err
		}
	}

	for _, d := range snap.Plans {
		raw, err := json.Marshal(d)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO plans(date, week, phase, json, updated_at_unixms) VALUES(?, ?, ?, ?, ?)`,
			d.Date, d.Week, string(d.Phase), string(raw), nowMs); err != nil {
			return err
		}
	}
	// seq preserves the newest-first order.
	for i, h := range snap.History {
		raw, err := json.Marshal(h)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO history(seq, ts_unixms, date, action, json) VALUES(?, ?, ?, ?, ?)`,
			i, h.TS.UTC().UnixMilli(), h.Date, string(h.Action), string(raw)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// DeviceID returns the stable identifier for this workspace copy, creating it on first use.
func (s Store) DeviceID(ctx context.Context) (string, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return "", err
	}
	defer db.Close()
	return ensureMetaUUID(ctx, db, "device_id")
}

// SavedAt reports when the snapshot was last written, if ever.
func (s Store) SavedAt(ctx context.Context) (time.Time, bool, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return time.Time{}, false, err
	}
	defer db.Close()

	var v string
	err = db.QueryRowContext(ctx, `SELECT v FROM state_meta WHERE k = ?`, "saved_at_unixms").Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	ms, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return time.Time{}, false, err
	}
	return time.UnixMilli(ms).UTC(), true, nil
}

func migrateSQLiteState(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS state_meta (
			k TEXT PRIMARY KEY,
			v TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS plans (
			date TEXT PRIMARY KEY,
			week INTEGER NOT NULL,
			phase TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_plans_week ON plans(week);`,
		`CREATE TABLE IF NOT EXISTS history (
			seq INTEGER PRIMARY KEY,
			ts_unixms INTEGER NOT NULL,
			date TEXT NOT NULL,
			action TEXT NOT NULL,
			json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_history_date ON history(date, ts_unixms);`,
	}
	for _, st := range stmts {
		if _, err := db.ExecContext(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

func ensureMetaUUID(ctx context.Context, db *sql.DB, key string) (string, error) {
	var v string
	err := db.QueryRowContext(ctx, `SELECT v FROM state_meta WHERE k = ?`, key).Scan(&v)
	if err == nil && strings.TrimSpace(v) != "" {
		return v, nil
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}
	id := uuid.NewString()
	if _, err := db.ExecContext(ctx, `INSERT OR REPLACE INTO state_meta(k, v) VALUES(?, ?)`, key, id); err != nil {
		return "", err
	}
	return id, nil
}

func readJSONRows[T any](ctx context.Context, db *sql.DB, query string) ([]T, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var js string
		if err := rows.Scan(&js); err != nil {
			return nil, err
		}
		var v T
		if err := json.Unmarshal([]byte(js), &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
