package compare

import (
	"context"

	"compare-service/backend/internal/cache"
	"compare-service/backend/internal/content"
	"compare-service/backend/internal/events"
	"compare-service/backend/internal/revision"
	"compare-service/backend/internal/title"
)

// RevisionLookup 没找到返回 nil, nil
type RevisionLookup interface {
	GetRevisionByID(ctx context.Context, id int64) (*revision.Record, error)
}

type TitleResolver interface {
	Parse(text string) (title.Title, error)
	// LatestRevisionID 页面不存在时 exists=false
	LatestRevisionID(ctx context.Context, t title.Title) (id int64, exists bool, err error)
}

type HandlerRegistry interface {
	HandlerFor(model string) (content.Handler, error)
}

type EventPublisher interface {
	Enqueue(ctx context.Context, evt events.DiffViewedEvent) error
}

type titleResolver struct {
	parser *title.Parser
	pages  cache.PageLookup
}

// NewTitleResolver 组合标题解析与页面查询（通常是带缓存的 PageLookup）
func NewTitleResolver(parser *title.Parser, pages cache.PageLookup) TitleResolver {
	return &titleResolver{parser: parser, pages: pages}
}

func (r *titleResolver) Parse(text string) (title.Title, error) {
	return r.parser.Parse(text)
}

func (r *titleResolver) LatestRevisionID(ctx context.Context, t title.Title) (int64, bool, error) {
	// 特殊页面不会有修订
	if !t.CanExist() {
		return 0, false, nil
	}
	return r.pages.LatestRevisionID(ctx, t)
}
