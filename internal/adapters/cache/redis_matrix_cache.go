package cache

import (
	"context"
	"errors"
	"fmt"
	"route-optimizer-service/internal/platform/obs"
	"route-optimizer-service/internal/ports"
	"strconv"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const redisLegPrefix = "leg:"

// RedisMatrixCache stores directed travel legs as "meters,seconds" strings
// under leg:<from>|<to>. Expiry is delegated to Redis via TTL.
type RedisMatrixCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisMatrixCache(rdb *redis.Client, ttl time.Duration) *RedisMatrixCache {
	return &RedisMatrixCache{rdb: rdb, ttl: ttl}
}

// NewRedisMatrixCacheFromURL parses a redis:// URL and pings the server.
func NewRedisMatrixCacheFromURL(ctx context.Context, url string, ttl time.Duration) (*RedisMatrixCache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis matrix cache: parse url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis matrix cache: ping: %w", err)
	}
	return &RedisMatrixCache{rdb: rdb, ttl: ttl}, nil
}

func (c *RedisMatrixCache) Close() error { return c.rdb.Close() }

func (c *RedisMatrixCache) GetLegs(ctx context.Context, keys []ports.LegKey) (_ map[ports.LegKey]ports.Leg, err error) {
	defer obs.Time(ctx, "matrix.cache.redis.GetLegs")(&err)

	out := make(map[ports.LegKey]ports.Leg, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	redisKeys := make([]string, len(keys))
	for i, k := range keys {
		redisKeys[i] = legRedisKey(k)
	}

	vals, err := c.rdb.MGet(ctx, redisKeys...).Result()
	if err != nil {
		return nil, fmt.Errorf("get matrix cache: mget: %w", err)
	}

	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		leg, err := parseLeg(s)
		if err != nil {
			return nil, fmt.Errorf("get matrix cache: key %q: %w", redisKeys[i], err)
		}
		out[keys[i]] = leg
	}
	return out, nil
}

func (c *RedisMatrixCache) PutLegs(ctx context.Context, legs map[ports.LegKey]ports.Leg) (err error) {
	defer obs.Time(ctx, "matrix.cache.redis.PutLegs")(&err)

	if len(legs) == 0 {
		return nil
	}

	pipe := c.rdb.Pipeline()
	for k, leg := range legs {
		if k.From == "" || k.To == "" {
			return errors.New("insert matrix cache: empty leg key")
		}
		pipe.Set(ctx, legRedisKey(k), formatLeg(leg), c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("insert matrix cache: pipeline exec: %w", err)
	}
	return nil
}

func legRedisKey(k ports.LegKey) string { return redisLegPrefix + k.From + "|" + k.To }

func formatLeg(l ports.Leg) string {
	return strconv.FormatFloat(l.DistanceMeters, 'f', -1, 64) + "," + strconv.FormatFloat(l.DurationSeconds, 'f', -1, 64)
}

func parseLeg(s string) (ports.Leg, error) {
	meters, seconds, ok := strings.Cut(s, ",")
	if !ok {
		return ports.Leg{}, fmt.Errorf("malformed leg %q", s)
	}
	d, err := strconv.ParseFloat(meters, 64)
	if err != nil {
		return ports.Leg{}, fmt.Errorf("malformed leg distance %q: %w", s, err)
	}
	t, err := strconv.ParseFloat(seconds, 64)
	if err != nil {
		return ports.Leg{}, fmt.Errorf("malformed leg duration %q: %w", s, err)
	}
	return ports.Leg{DistanceMeters: d, DurationSeconds: t}, nil
}
