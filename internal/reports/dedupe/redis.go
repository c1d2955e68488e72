package dedupe

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"atiende/internal/platform/config"
	"atiende/internal/platform/redis"
)

// RedisChecker keeps a GEO index of recent submissions per category so the
// duplicate check avoids a table scan on the hot creation path. Members
// expire with the configured window.
type RedisChecker struct {
	client *redis.Client
	cfg    config.DedupeConfig
}

func NewRedisChecker(client *redis.Client, cfg config.DedupeConfig) *RedisChecker {
	return &RedisChecker{client: client, cfg: cfg}
}

func key(tipo string) string { return "dedupe:geo:" + tipo }

func (c *RedisChecker) IsDuplicate(ctx context.Context, tipo string, lat, lng float64) (bool, error) {
	locs, err := c.client.GeoSearch(ctx, key(tipo), &goredis.GeoSearchQuery{
		Longitude:  lng,
		Latitude:   lat,
		Radius:     c.cfg.RadiusMeters,
		RadiusUnit: "m",
		Count:      1,
	}).Result()
	if err != nil {
		return false, fmt.Errorf("dedupe geo search: %w", err)
	}
	return len(locs) > 0, nil
}

// Observe records a created report so later submissions can match it. The
// whole per-category key expires with the window; precise per-member expiry
// is not worth the bookkeeping for an advisory check.
func (c *RedisChecker) Observe(ctx context.Context, tipo, reportID string, lat, lng float64) error {
	k := key(tipo)
	if err := c.client.GeoAdd(ctx, k, &goredis.GeoLocation{
		Name:      reportID,
		Longitude: lng,
		Latitude:  lat,
	}).Err(); err != nil {
		return fmt.Errorf("dedupe geo add: %w", err)
	}
	if err := c.client.Expire(ctx, k, c.cfg.Window+time.Minute).Err(); err != nil {
		return fmt.Errorf("dedupe expire: %w", err)
	}
	return nil
}
