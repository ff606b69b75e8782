package remote

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"dayplan-cli/internal/model"
)

const snapshotCachePrefix = "dayplan:snapshot:"

func cacheKey(userID string) string { return snapshotCachePrefix + userID }

type cachedSnapshot struct {
	Version  int            `json:"version"`
	CachedAt time.Time      `json:"cachedAt"`
	Snapshot model.Snapshot `json:"snapshot"`
}

// Cache fronts a Backend with redis. Loads read through on a miss; saves write to the
// backend and evict. Redis failures fall back to the backend.
type Cache struct {
	backend Backend
	redis   *redis.Client
	ttl     time.Duration
	logger  *log.Logger
	now     func() time.Time
}

func NewCache(backend Backend, rc *redis.Client, ttl time.Duration, logger *log.Logger) *Cache {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Cache{backend: backend, redis: rc, ttl: ttl, logger: logger, now: time.Now}
}

// NewRedisClient parses a redis:// URL.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opts), nil
}

func (c *Cache) Load(ctx context.Context, userID string) (model.Snapshot, bool, error) {
	key := cacheKey(userID)
	raw, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var payload cachedSnapshot
		if jerr := json.Unmarshal(raw, &payload); jerr == nil {
			return payload.Snapshot.Clone(), true, nil
		}
		c.logger.WithField("user", userID).Warn("discarding unreadable cached snapshot")
	case !errors.Is(err, redis.Nil):
		c.logger.WithError(err).WithField("user", userID).Debug("snapshot cache read failed")
	}

	snap, ok, err := c.backend.Load(ctx, userID)
	if err != nil || !ok {
		return snap, ok, err
	}
	payload, err := json.Marshal(cachedSnapshot{Version: 1, CachedAt: c.now().UTC(), Snapshot: snap})
	if err == nil {
		if serr := c.redis.Set(ctx, key, payload, c.ttl).Err(); serr != nil {
			c.logger.WithError(serr).WithField("user", userID).Debug("snapshot cache write failed")
		}
	}
	return snap, true, nil
}

func (c *Cache) Save(ctx context.Context, userID string, snap model.Snapshot) error {
	err := c.backend.Save(ctx, userID, snap)
	if derr := c.redis.Del(ctx, cacheKey(userID)).Err(); derr != nil {
		c.logger.WithError(derr).WithField("user", userID).Debug("snapshot cache evict failed")
	}
	return err
}
