package namecache

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// Entry is a cached display name. Stale entries are past their refresh
// interval but are still served when the directory cannot be reached.
type Entry struct {
	Name  string
	Stale bool
}

// Cache keeps display names by user id. Entries are never evicted; the
// refresh interval only marks them stale. A miss is never an error.
type Cache interface {
	Get(ctx context.Context, userID int64) (Entry, bool)
	Set(ctx context.Context, userID int64, name string)
}

type memoryItem struct {
	name     string
	storedAt time.Time
}

// Memory is a process-local Cache.
type Memory struct {
	store   *cache.Cache
	refresh time.Duration
	now     func() time.Time
}

func NewMemory(refresh time.Duration) *Memory {
	return &Memory{
		store:   cache.New(cache.NoExpiration, 0),
		refresh: refresh,
		now:     time.Now,
	}
}

func (m *Memory) Get(_ context.Context, userID int64) (Entry, bool) {
	v, found := m.store.Get(strconv.FormatInt(userID, 10))
	if !found {
		return Entry{}, false
	}
	item, ok := v.(memoryItem)
	if !ok {
		return Entry{}, false
	}
	return Entry{Name: item.name, Stale: isStale(item.storedAt, m.now(), m.refresh)}, true
}

func (m *Memory) Set(_ context.Context, userID int64, name string) {
	m.store.Set(strconv.FormatInt(userID, 10), memoryItem{name: name, storedAt: m.now()}, cache.NoExpiration)
}

const (
	redisKeyPrefix = "planning:username:"
	fieldName      = "name"
	fieldStoredAt  = "stored_at"
)

// Redis is a Cache shared between replicas. Each name is a hash holding the
// name and the unix time it was stored, without a key expiry.
type Redis struct {
	client  *redis.Client
	refresh time.Duration
	now     func() time.Time
}

func NewRedis(client *redis.Client, refresh time.Duration) *Redis {
	return &Redis{
		client:  client,
		refresh: refresh,
		now:     time.Now,
	}
}

func (r *Redis) Get(ctx context.Context, userID int64) (Entry, bool) {
	fields, err := r.client.HGetAll(ctx, redisKey(userID)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.WarnContext(ctx, "name cache read failed",
				slog.Int64("user_id", userID),
				slog.String("error", err.Error()),
			)
		}
		return Entry{}, false
	}
	name, ok := fields[fieldName]
	if !ok {
		return Entry{}, false
	}
	storedAt, err := strconv.ParseInt(fields[fieldStoredAt], 10, 64)
	if err != nil {
		return Entry{Name: name, Stale: true}, true
	}
	return Entry{Name: name, Stale: isStale(time.Unix(storedAt, 0), r.now(), r.refresh)}, true
}

func (r *Redis) Set(ctx context.Context, userID int64, name string) {
	err := r.client.HSet(ctx, redisKey(userID),
		fieldName, name,
		fieldStoredAt, r.now().Unix(),
	).Err()
	if err != nil {
		slog.WarnContext(ctx, "name cache write failed",
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
}

func redisKey(userID int64) string {
	return redisKeyPrefix + strconv.FormatInt(userID, 10)
}

func isStale(storedAt, now time.Time, refresh time.Duration) bool {
	return refresh > 0 && now.Sub(storedAt) >= refresh
}
