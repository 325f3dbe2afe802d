package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// DiffEntry 缓存的差异渲染结果，只含差异本身，不含页面外壳
type DiffEntry struct {
	Fragment   string    `json:"fragment"`
	Added      int       `json:"added"`
	Removed    int       `json:"removed"`
	RenderedAt time.Time `json:"renderedAt"`
}

type DiffCache struct {
	rdb    redis.UniversalClient
	policy TTLPolicy
}

func NewDiffCache(rdb redis.UniversalClient, policy TTLPolicy) *DiffCache {
	return &DiffCache{rdb: rdb, policy: policy}
}

// Get 未命中返回 nil, false, nil
func (c *DiffCache) Get(ctx context.Context, key DiffKey) (*DiffEntry, bool, error) {
	if c == nil || c.rdb == nil {
		return nil, false, nil
	}
	b, err := c.rdb.Get(ctx, key.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var e DiffEntry
	if err := json.Unmarshal(b, &e); err != nil {
		// 格式不对按未命中处理，后面会覆盖写
		return nil, false, nil
	}
	return &e, true, nil
}

func (c *DiffCache) Set(ctx context.Context, key DiffKey, e *DiffEntry) error {
	if c == nil || c.rdb == nil || e == nil {
		return nil
	}
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key.String(), b, c.policy.ttl()).Err()
}

// Purge 对应 action=purge
func (c *DiffCache) Purge(ctx context.Context, key DiffKey) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Del(ctx, key.String()).Err()
}
