package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"compare-service/backend/internal/title"
)

// PageLookup 查询页面最新修订，页面不存在时 exists=false
type PageLookup interface {
	LatestRevisionID(ctx context.Context, t title.Title) (int64, bool, error)
}

// PageCache 在 PageLookup 前面加一层 redis
type PageCache struct {
	rdb    redis.UniversalClient
	sf     singleflight.Group
	next   PageLookup
	policy TTLPolicy
}

// 确保 PageCache 实现了 PageLookup 接口
var _ PageLookup = (*PageCache)(nil)

func NewPageCache(rdb redis.UniversalClient, next PageLookup, policy TTLPolicy) *PageCache {
	return &PageCache{rdb: rdb, next: next, policy: policy}
}

type latestResult struct {
	id     int64
	exists bool
}

type lookupState int

const (
	stateMiss lookupState = iota
	stateHit
	stateMissingPage
)

func (c *PageCache) LatestRevisionID(ctx context.Context, t title.Title) (int64, bool, error) {
	if c.rdb == nil {
		return c.next.LatestRevisionID(ctx, t)
	}
	key := pageLatestKey(t)

	// Singleflight 合并同一页面的并发回源
	val, err, _ := c.sf.Do(key, func() (interface{}, error) {
		id, state, err := c.read(ctx, key)
		if err != nil {
			// 缓存故障不影响主流程，直接回源
			log.WithError(err).WithField("key", key).Warn("page cache read failed")
		}
		switch state {
		case stateHit:
			return latestResult{id: id, exists: true}, nil
		case stateMissingPage:
			return latestResult{}, nil
		}

		id, exists, err := c.next.LatestRevisionID(ctx, t)
		if err != nil {
			return nil, err
		}
		// 填入真实值或者空值缓存，防止缓存穿透
		if !exists {
			c.write(ctx, key, EmptyCacheMarker, c.policy.Null)
			return latestResult{}, nil
		}
		c.write(ctx, key, id, c.policy.ttl())
		return latestResult{id: id, exists: true}, nil
	})
	if err != nil {
		return 0, false, err
	}
	// 使用断言确保不会panic
	res, ok := val.(latestResult)
	if !ok {
		return 0, false, errors.New("internal type error")
	}
	return res.id, res.exists, nil
}

// Forget 页面有新修订后调用
func (c *PageCache) Forget(ctx context.Context, t title.Title) error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Del(ctx, pageLatestKey(t)).Err()
}

func (c *PageCache) read(ctx context.Context, key string) (int64, lookupState, error) {
	res, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, stateMiss, nil
		}
		return 0, stateMiss, err
	}
	// 不能使用ParseUint，遇到 -1 会报错
	v, err := strconv.ParseInt(res, 10, 64)
	if err != nil {
		return 0, stateMiss, err
	}
	if v == EmptyCacheMarker {
		return 0, stateMissingPage, nil
	}
	return v, stateHit, nil
}

func (c *PageCache) write(ctx context.Context, key string, val int64, ttl time.Duration) {
	if err := c.rdb.Set(ctx, key, val, ttl).Err(); err != nil {
		log.WithError(err).WithField("key", key).Warn("page cache write failed")
	}
}
