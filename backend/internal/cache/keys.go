package cache

import (
	"fmt"

	"compare-service/backend/internal/title"
)

// 键语义：
// - pageLatestKey(t):      页面最新修订 ID（String），-1 表示页面不存在
// - diffKey(old,new,...):  渲染好的差异片段（String，JSON）
//
// {} 内为 hash tag，集群模式下同一页面/同一旧修订的键落在同一 slot

const (
	keyPageLatestFmt = "page:latest:{ns:%d:%s}"
	keyDiffFmt       = "diff:{rev:%d}:%d:%s:%s"

	// 差异引擎版本，渲染格式变化时递增，让旧缓存自然失效
	DiffEngineVersion = "dmp1"
)

func pageLatestKey(t title.Title) string {
	return fmt.Sprintf(keyPageLatestFmt, t.Namespace, t.DBKey)
}

type DiffKey struct {
	OldID int64
	NewID int64
	Model string
}

func (k DiffKey) String() string {
	return fmt.Sprintf(keyDiffFmt, k.OldID, k.NewID, k.Model, DiffEngineVersion)
}
