// Package storage tracks which authenticated sessions are currently online.
// Records live in redis with a TTL so a crashed gateway's sessions age out on
// their own. This is observability state only: delivery always goes through
// the in-process connection registry, never through redis.
package storage

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"shopchat/logger"
)

const (
	sessionKeyPrefix = "online:conn:"
	indexKey         = "online:index"
)

type OnlineConfig struct {
	TTL time.Duration // session record lifetime; refreshed on ping
}

type OnlineStore struct {
	rdb  *redis.Client
	conf OnlineConfig
}

func NewOnlineStore(rdb *redis.Client, conf OnlineConfig) *OnlineStore {
	if conf.TTL <= 0 {
		conf.TTL = 5 * time.Minute
	}
	return &OnlineStore{rdb: rdb, conf: conf}
}

// MarkOnline records an authenticated session. The index ZSET is scored by
// expiry so listing can skip entries whose TTL already lapsed.
func (s *OnlineStore) MarkOnline(ctx context.Context, connID, userEmail string) error {
	expireAt := time.Now().Add(s.conf.TTL)
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, sessionKeyPrefix+connID, userEmail, s.conf.TTL)
	pipe.ZAdd(ctx, indexKey, redis.Z{Score: float64(expireAt.Unix()), Member: connID})
	_, err := pipe.Exec(ctx)
	return err
}

// Touch extends a session's lifetime; called on client pings.
func (s *OnlineStore) Touch(ctx context.Context, connID string) error {
	expireAt := time.Now().Add(s.conf.TTL)
	pipe := s.rdb.TxPipeline()
	pipe.Expire(ctx, sessionKeyPrefix+connID, s.conf.TTL)
	pipe.ZAdd(ctx, indexKey, redis.Z{Score: float64(expireAt.Unix()), Member: connID})
	_, err := pipe.Exec(ctx)
	return err
}

// MarkOffline drops a session record.
func (s *OnlineStore) MarkOffline(ctx context.Context, connID string) error {
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, sessionKeyPrefix+connID)
	pipe.ZRem(ctx, indexKey, connID)
	_, err := pipe.Exec(ctx)
	return err
}

// ListOnline returns the emails of sessions whose records have not expired.
// Index entries whose session key already aged out are pruned as a side
// effect.
func (s *OnlineStore) ListOnline(ctx context.Context) ([]string, error) {
	now := time.Now().Unix()

	// Drop index entries that expired.
	if err := s.rdb.ZRemRangeByScore(ctx, indexKey, "0", formatUnix(now)).Err(); err != nil {
		logger.Warnf("[online] prune index: %v", err)
	}

	connIDs, err := s.rdb.ZRangeByScore(ctx, indexKey, &redis.ZRangeBy{
		Min: formatUnix(now), Max: "+inf",
	}).Result()
	if err != nil {
		return nil, err
	}
	if len(connIDs) == 0 {
		return []string{}, nil
	}

	keys := make([]string, 0, len(connIDs))
	for _, id := range connIDs {
		keys = append(keys, sessionKeyPrefix+id)
	}
	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	emails := make([]string, 0, len(vals))
	for _, v := range vals {
		if str, ok := v.(string); ok && str != "" {
			emails = append(emails, str)
		}
	}
	return emails, nil
}

func formatUnix(ts int64) string {
	return strconv.FormatInt(ts, 10)
}
