package compare

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"compare-service/backend/internal/content"
	"compare-service/backend/internal/events"
	"compare-service/backend/internal/metrics"
	"compare-service/backend/internal/revision"
)

const (
	OutcomeInvalid  = "invalid"
	OutcomeNoop     = "noop"
	OutcomeRendered = "rendered"
	OutcomeError    = "error"
)

// 事件入队最多等待的时间，超时直接放弃
const enqueueTimeout = 50 * time.Millisecond

// Service 比较页的请求处理：校验 -> 解析修订 -> 按内容模型分派渲染
type Service struct {
	revisions RevisionLookup
	titles    TitleResolver
	registry  HandlerRegistry
	// 依赖注入，可以为 nil
	publisher EventPublisher
}

func NewService(revisions RevisionLookup, titles TitleResolver, registry HandlerRegistry, publisher EventPublisher) *Service {
	return &Service{
		revisions: revisions,
		titles:    titles,
		registry:  registry,
		publisher: publisher,
	}
}

// Result 一次提交的完整结果，页面与 JSON 接口共用
type Result struct {
	Request     ComparisonRequest
	Errors      FieldErrors
	OldRevision int64
	NewRevision int64
	Diff        *content.DiffPage
	Outcome     string
}

// HandleSubmission 两边都解析出修订时渲染差异，否则什么都不做（返回 nil, nil）
func (s *Service) HandleSubmission(ctx context.Context, req ComparisonRequest) (*content.DiffPage, error) {
	rev1, rev2, err := s.resolvePair(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.render(ctx, req, rev1, rev2)
}

func (s *Service) resolvePair(ctx context.Context, req ComparisonRequest) (int64, int64, error) {
	rev1, err := s.ResolveRevision(ctx, req.Rev1, req.Page1)
	if err != nil {
		return 0, 0, err
	}
	rev2, err := s.ResolveRevision(ctx, req.Rev2, req.Page2)
	if err != nil {
		return 0, 0, err
	}
	return rev1, rev2, nil
}

func (s *Service) render(ctx context.Context, req ComparisonRequest, rev1, rev2 int64) (*content.DiffPage, error) {
	if rev1 == 0 || rev2 == 0 {
		return nil, nil
	}
	rec, err := s.revisions.GetRevisionByID(ctx, rev1)
	if err != nil {
		return nil, fmt.Errorf("lookup revision %d: %w", rev1, err)
	}
	// rev1 已经校验过，正常不会为空
	if rec == nil {
		return nil, nil
	}

	model := mainModel(rec)
	handler, err := s.registry.HandlerFor(model)
	if err != nil {
		return nil, err
	}
	rc := content.RenderContext{
		DiffOnly:  req.DiffOnlyFlag(),
		RequestID: req.RequestID,
	}
	start := time.Now()
	renderer := handler.CreateDiffRenderer(rc, rev1, rev2, 0, req.Purge(), req.UnhideDeleted())
	page, err := renderer.Render(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("render diff %d..%d: %w", rev1, rev2, err)
	}
	metrics.DiffRender.WithLabelValues(model).Observe(time.Since(start).Seconds())
	return page, nil
}

func mainModel(rec *revision.Record) string {
	return rec.MainModel()
}

// Submit 页面入口：先校验，校验失败只返回字段错误
func (s *Service) Submit(ctx context.Context, req ComparisonRequest) (*Result, error) {
	req.Normalize()
	res := &Result{Request: req}
	logger := log.WithFields(log.Fields{
		"request_id": req.RequestID,
		"page1":      req.Page1,
		"rev1":       req.Rev1,
		"page2":      req.Page2,
		"rev2":       req.Rev2,
	})

	fe, err := s.Validate(ctx, req)
	if err != nil {
		metrics.Submissions.WithLabelValues(OutcomeError).Inc()
		logger.WithError(err).Error("compare validation failed")
		return nil, err
	}
	if len(fe) > 0 {
		res.Errors = fe
		res.Outcome = OutcomeInvalid
		metrics.Submissions.WithLabelValues(OutcomeInvalid).Inc()
		logger.WithField("errors", fe.Messages()).Info("compare form has field errors")
		return res, nil
	}

	res.OldRevision, res.NewRevision, err = s.resolvePair(ctx, req)
	if err != nil {
		metrics.Submissions.WithLabelValues(OutcomeError).Inc()
		logger.WithError(err).Error("compare resolve failed")
		return nil, err
	}
	page, err := s.render(ctx, req, res.OldRevision, res.NewRevision)
	if err != nil {
		metrics.Submissions.WithLabelValues(OutcomeError).Inc()
		logger.WithError(err).Error("compare render failed")
		return nil, err
	}
	if page == nil {
		res.Outcome = OutcomeNoop
		metrics.Submissions.WithLabelValues(OutcomeNoop).Inc()
		return res, nil
	}

	res.Diff = page
	res.Outcome = OutcomeRendered
	metrics.Submissions.WithLabelValues(OutcomeRendered).Inc()
	metrics.DiffCache.WithLabelValues(cacheResult(page)).Inc()
	logger.WithFields(log.Fields{
		"old":     page.OldRevision,
		"new":     page.NewRevision,
		"model":   page.Model,
		"cached":  page.Cached,
		"purged":  page.Purged,
		"added":   page.Added,
		"removed": page.Removed,
	}).Info("diff rendered")

	s.publish(ctx, req, page)
	return res, nil
}

func cacheResult(page *content.DiffPage) string {
	switch {
	case page.Notice != "" || page.Unhidden:
		return "bypass"
	case page.Purged:
		return "purge"
	case page.Cached:
		return "hit"
	default:
		return "miss"
	}
}

func (s *Service) publish(ctx context.Context, req ComparisonRequest, page *content.DiffPage) {
	if s.publisher == nil {
		return
	}
	// 不跟随请求取消，请求结束后事件仍可入队
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), enqueueTimeout)
	defer cancel()
	err := s.publisher.Enqueue(ctx, events.DiffViewedEvent{
		RequestID:   req.RequestID,
		OldRevision: page.OldRevision,
		NewRevision: page.NewRevision,
		Model:       page.Model,
		Purged:      page.Purged,
		Unhidden:    page.Unhidden,
		Cached:      page.Cached,
		Added:       page.Added,
		Removed:     page.Removed,
	})
	if err != nil {
		log.WithError(err).WithField("request_id", req.RequestID).Warn("enqueue diff event failed")
	}
}
