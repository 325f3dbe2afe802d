package cache

import (
	"math/rand"
	"time"
)

const (
	EmptyCacheMarker = -1 // 空值标记
)

type TTLPolicy struct {
	Base   time.Duration // 基础过期时间
	Jitter time.Duration // 随机抖动范围
	Null   time.Duration // 空值缓存过期时间
}

var DefaultPagePolicy = TTLPolicy{
	Base:   30 * time.Second,
	Jitter: 10 * time.Second,
	Null:   5 * time.Second,
}

var DefaultDiffPolicy = TTLPolicy{
	Base:   24 * time.Hour,
	Jitter: 60 * time.Minute,
}

// 获取随机TTL，防止缓存雪崩
func (p TTLPolicy) ttl() time.Duration {
	if p.Jitter <= 0 {
		return p.Base
	}
	return p.Base + time.Duration(rand.Int63n(int64(p.Jitter)))
}
