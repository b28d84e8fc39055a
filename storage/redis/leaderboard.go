// Package redisstore caches leaderboard listings in Redis. The cache is a
// shortcut only: any Redis failure is logged and the caller falls through to
// the database.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/leaderboard"
)

type LeaderboardCache struct {
	client *redis.Client
	ttl    time.Duration
	logger core.Logger
}

var _ leaderboard.Cache = (*LeaderboardCache)(nil) // interface compliance check

func NewLeaderboardCache(conf *core.Config, logger core.Logger) (*LeaderboardCache, error) {
	opt, err := redis.ParseURL(conf.Redis.URL)
	if err != nil {
		return nil, err
	}
	return &LeaderboardCache{
		client: redis.NewClient(opt),
		ttl:    conf.Redis.LeaderboardTTL,
		logger: logger,
	}, nil
}

func topKey(cohort, n int) string {
	return fmt.Sprintf("leaderboard:%d:top:%d", cohort, n)
}

func (c *LeaderboardCache) GetTop(ctx context.Context, cohort, n int) ([]leaderboard.Entry, bool) {
	raw, err := c.client.Get(ctx, topKey(cohort, n)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("leaderboard cache read failed", "error", err)
		}
		return nil, false
	}
	var entries []leaderboard.Entry
	if err = json.Unmarshal(raw, &entries); err != nil {
		c.logger.Warn("leaderboard cache entry corrupt", "error", err)
		return nil, false
	}
	return entries, true
}

func (c *LeaderboardCache) SetTop(ctx context.Context, cohort, n int, entries []leaderboard.Entry) {
	raw, err := json.Marshal(entries)
	if err != nil {
		c.logger.Warn("leaderboard cache encode failed", "error", err)
		return
	}
	if err = c.client.Set(ctx, topKey(cohort, n), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("leaderboard cache write failed", "error", err)
	}
}

func (c *LeaderboardCache) Invalidate(ctx context.Context, cohort int) {
	pattern := fmt.Sprintf("leaderboard:%d:top:*", cohort)
	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			c.logger.Warn("leaderboard cache invalidation failed", "error", err)
			return
		}
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn("leaderboard cache invalidation failed", "error", err)
	}
}

func (c *LeaderboardCache) Close() error { return c.client.Close() }
