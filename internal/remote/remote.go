package remote

import (
	"context"
	"errors"
	"strings"

	log "github.com/sirupsen/logrus"

	"dayplan-cli/internal/model"
	"dayplan-cli/internal/store"
)

// Open builds the remote backend described by cfg: Table Storage, fronted by redis
// when a redis URL is configured.
func Open(ctx context.Context, cfg store.RemoteConfig, logger *log.Logger) (Backend, error) {
	if !cfg.Enabled() {
		return nil, errors.New("remote not configured: set remote.userId and remote.tablesConnectionString")
	}
	tables, err := NewTables(cfg.TablesConnectionString, cfg.PlansTable, cfg.HistoryTable)
	if err != nil {
		return nil, err
	}
	if err := tables.EnsureTables(ctx); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.RedisURL) == "" {
		return tables, nil
	}
	rc, err := NewRedisClient(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	return NewCache(tables, rc, cfg.CacheTTL, logger), nil
}

// UserSink binds a Backend to one user so it can act as a persistence sink.
type UserSink struct {
	Backend Backend
	UserID  string
}

func (s UserSink) Save(ctx context.Context, snap model.Snapshot) error {
	return s.Backend.Save(ctx, s.UserID, snap)
}
