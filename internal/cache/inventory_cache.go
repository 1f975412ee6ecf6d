package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wagonworks/wagonerp/internal/config"
	"github.com/wagonworks/wagonerp/internal/domain"
)

const (
	liveInventoryKeyPrefix = "inventory:live"
	buildableSetsKeyPrefix = "inventory:sets"
)

// InventoryCache caches the per-project live balance and buildable-set
// count between ledger appends. Dashboards poll these far more often
// than entries are committed.
type InventoryCache interface {
	GetSnapshot(ctx context.Context, projectID string) (domain.InventorySnapshot, bool, error)
	SetSnapshot(ctx context.Context, projectID string, snapshot domain.InventorySnapshot) error
	GetBuildableSets(ctx context.Context, projectID string) (int, bool, error)
	SetBuildableSets(ctx context.Context, projectID string, sets int) error
	// Invalidate drops both figures for a project; called after every
	// committed append so readers never see a pre-append balance.
	Invalidate(ctx context.Context, projectID string) error
}

type redisInventoryCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopInventoryCache struct{}

// NewInventoryCache returns the redis-backed cache, or a noop cache
// when caching is disabled in config.
func NewInventoryCache(cfg config.CacheConfig) (InventoryCache, error) {
	if !cfg.Enabled {
		return &noopInventoryCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}
	return &redisInventoryCache{client: client, ttl: ttl}, nil
}

// NewNoopInventoryCache returns a cache that never hits.
func NewNoopInventoryCache() InventoryCache {
	return &noopInventoryCache{}
}

func (c *redisInventoryCache) GetSnapshot(ctx context.Context, projectID string) (domain.InventorySnapshot, bool, error) {
	payload, err := c.client.Get(ctx, snapshotKey(projectID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var snapshot domain.InventorySnapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return nil, false, fmt.Errorf("decode cached snapshot: %w", err)
	}
	return snapshot, true, nil
}

func (c *redisInventoryCache) SetSnapshot(ctx context.Context, projectID string, snapshot domain.InventorySnapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot cache: %w", err)
	}
	if err := c.client.Set(ctx, snapshotKey(projectID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisInventoryCache) GetBuildableSets(ctx context.Context, projectID string) (int, bool, error) {
	value, err := c.client.Get(ctx, setsKey(projectID)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("redis get failed: %w", err)
	}

	sets, err := strconv.Atoi(value)
	if err != nil {
		return 0, false, fmt.Errorf("decode cached sets count: %w", err)
	}
	return sets, true, nil
}

func (c *redisInventoryCache) SetBuildableSets(ctx context.Context, projectID string, sets int) error {
	if err := c.client.Set(ctx, setsKey(projectID), strconv.Itoa(sets), c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisInventoryCache) Invalidate(ctx context.Context, projectID string) error {
	return c.client.Del(ctx, snapshotKey(projectID), setsKey(projectID)).Err()
}

func (n *noopInventoryCache) GetSnapshot(ctx context.Context, projectID string) (domain.InventorySnapshot, bool, error) {
	return nil, false, nil
}

func (n *noopInventoryCache) SetSnapshot(ctx context.Context, projectID string, snapshot domain.InventorySnapshot) error {
	return nil
}

func (n *noopInventoryCache) GetBuildableSets(ctx context.Context, projectID string) (int, bool, error) {
	return 0, false, nil
}

func (n *noopInventoryCache) SetBuildableSets(ctx context.Context, projectID string, sets int) error {
	return nil
}

func (n *noopInventoryCache) Invalidate(ctx context.Context, projectID string) error {
	return nil
}

func snapshotKey(projectID string) string {
	return fmt.Sprintf("%s:%s", liveInventoryKeyPrefix, projectID)
}

func setsKey(projectID string) string {
	return fmt.Sprintf("%s:%s", buildableSetsKeyPrefix, projectID)
}
