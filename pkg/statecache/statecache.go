// Package statecache provides an optional checkpoint store for
// in-progress automask sampler state, so a
// restarted agent can resume background-learning progress rather than
// starting over. Grounded on the teacher's pkg/redis/interfaces.go
// Client abstraction, narrowed from its general sorted-set/hash/list
// surface to the plain get/set-with-TTL shape this checkpoint actually
// needs (spec.md names no persistence requirement beyond on-disk
// config, so this is explicitly optional, no-op-safe infrastructure,
// not a hard dependency of core perception logic).
package statecache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is the minimal checkpoint surface the orchestrator uses.
type Cache interface {
	SaveAutomaskProgress(ctx context.Context, serial string, scansRemaining int, thresholds map[string]float32) error
	LoadAutomaskProgress(ctx context.Context, serial string) (scansRemaining int, thresholds map[string]float32, ok bool, err error)
	ClearAutomaskProgress(ctx context.Context, serial string) error
	Close() error
}

func automaskKey(serial string) string { return fmt.Sprintf("lidar2d:automask:%s", serial) }

type automaskCheckpoint struct {
	ScansRemaining int                `json:"scansRemaining"`
	Thresholds     map[string]float32 `json:"thresholds"`
}

// RedisCache persists checkpoints to Redis.
type RedisCache struct {
	client *redis.Client
	logger *slog.Logger
	ttl    time.Duration
}

// NewRedisCache constructs a Redis-backed checkpoint store. addr is
// host:port; db selects the logical database.
func NewRedisCache(addr, password string, db int, logger *slog.Logger) *RedisCache {
	return &RedisCache{
		client: redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db}),
		logger: logger,
		ttl:    24 * time.Hour,
	}
}

func (c *RedisCache) SaveAutomaskProgress(ctx context.Context, serial string, scansRemaining int, thresholds map[string]float32) error {
	data, err := json.Marshal(automaskCheckpoint{ScansRemaining: scansRemaining, Thresholds: thresholds})
	if err != nil {
		return fmt.Errorf("statecache: marshal checkpoint: %w", err)
	}
	if err := c.client.Set(ctx, automaskKey(serial), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("statecache: save checkpoint for %s: %w", serial, err)
	}
	return nil
}

func (c *RedisCache) LoadAutomaskProgress(ctx context.Context, serial string) (int, map[string]float32, bool, error) {
	val, err := c.client.Get(ctx, automaskKey(serial)).Result()
	if err == redis.Nil {
		return 0, nil, false, nil
	}
	if err != nil {
		return 0, nil, false, fmt.Errorf("statecache: load checkpoint for %s: %w", serial, err)
	}
	var cp automaskCheckpoint
	if err := json.Unmarshal([]byte(val), &cp); err != nil {
		return 0, nil, false, fmt.Errorf("statecache: unmarshal checkpoint for %s: %w", serial, err)
	}
	return cp.ScansRemaining, cp.Thresholds, true, nil
}

func (c *RedisCache) ClearAutomaskProgress(ctx context.Context, serial string) error {
	if err := c.client.Del(ctx, automaskKey(serial)).Err(); err != nil {
		return fmt.Errorf("statecache: clear checkpoint for %s: %w", serial, err)
	}
	return nil
}

func (c *RedisCache) Close() error { return c.client.Close() }

// Ping verifies connectivity, logging success the way the teacher's
// redis client does on startup.
func (c *RedisCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("statecache: ping: %w", err)
	}
	c.logger.Info("connected to state cache")
	return nil
}

// NopCache is a no-op Cache used when no Redis address is configured;
// automask progress simply does not survive a restart.
type NopCache struct{}

func (NopCache) SaveAutomaskProgress(context.Context, string, int, map[string]float32) error {
	return nil
}
func (NopCache) LoadAutomaskProgress(context.Context, string) (int, map[string]float32, bool, error) {
	return 0, nil, false, nil
}
func (NopCache) ClearAutomaskProgress(context.Context, string) error { return nil }
func (NopCache) Close() error                                       { return nil }
