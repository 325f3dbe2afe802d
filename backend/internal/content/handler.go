package content

import (
	"context"
	"errors"
	"html/template"
	"time"

	"compare-service/backend/internal/cache"
	"compare-service/backend/internal/revision"
)

var ErrUnknownModel = errors.New("unknown content model")

// Handler 按内容模型提供差异渲染器
type Handler interface {
	Model() string
	CreateDiffRenderer(rc RenderContext, oldID, newID, rcID int64, purge, unhide bool) DiffRenderer
}

type DiffRenderer interface {
	// asPage=true 时带上修订信息以及（非 diffonly 时）新修订正文
	Render(ctx context.Context, asPage bool) (*DiffPage, error)
}

// RenderContext 请求级别的渲染参数
type RenderContext struct {
	DiffOnly  bool
	RequestID string
}

type RevisionInfo struct {
	ID        int64     `json:"id"`
	PageID    uint64    `json:"pageId"`
	ParentID  int64     `json:"parentId"`
	Timestamp time.Time `json:"timestamp"`
	Comment   string    `json:"comment,omitempty"`
	Size      uint64    `json:"size"`
	Deleted   uint8     `json:"deleted,omitempty"`
}

type DiffPage struct {
	OldRevision int64         `json:"oldRevision"`
	NewRevision int64         `json:"newRevision"`
	Model       string        `json:"model"`
	Old         *RevisionInfo `json:"old,omitempty"`
	New         *RevisionInfo `json:"new,omitempty"`
	Fragment    template.HTML `json:"fragment"`
	Added       int           `json:"added"`
	Removed     int           `json:"removed"`
	Identical   bool          `json:"identical"`
	// Notice 非空时表示差异未渲染（修订缺失或内容被隐藏）
	Notice     string `json:"notice,omitempty"`
	NewContent string `json:"newContent,omitempty"`
	Cached     bool   `json:"cached"`
	Purged     bool   `json:"purged"`
	Unhidden   bool   `json:"unhidden"`
}

type RevisionSource interface {
	GetRevisionByID(ctx context.Context, id int64) (*revision.Record, error)
}

type ContentSource interface {
	LoadContent(ctx context.Context, id uint64) (string, error)
}

type DiffCache interface {
	Get(ctx context.Context, key cache.DiffKey) (*cache.DiffEntry, bool, error)
	Set(ctx context.Context, key cache.DiffKey, e *cache.DiffEntry) error
	Purge(ctx context.Context, key cache.DiffKey) error
}

// Deps 所有 handler 共享的依赖；Cache 可以为 nil
type Deps struct {
	Revisions RevisionSource
	Contents  ContentSource
	Cache     DiffCache
	// 上下文行数
	ContextLines int
}
