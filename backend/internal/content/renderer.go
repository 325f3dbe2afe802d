package content

import (
	"context"
	"fmt"
	"html/template"
	"time"

	log "github.com/sirupsen/logrus"

	"compare-service/backend/internal/cache"
	"compare-service/backend/internal/revision"
)

const (
	NoticeMissingRevision = "One or both of the revisions could not be found."
	NoticeHiddenContent   = "One or both of the revisions has had its text hidden."
)

const defaultContextLines = 2

type textDiffRenderer struct {
	h      *textHandler
	rc     RenderContext
	oldID  int64
	newID  int64
	rcID   int64
	purge  bool
	unhide bool
}

func (r *textDiffRenderer) Render(ctx context.Context, asPage bool) (*DiffPage, error) {
	deps := r.h.deps
	page := &DiffPage{
		OldRevision: r.oldID,
		NewRevision: r.newID,
		Model:       r.h.model,
		Purged:      r.purge,
	}

	oldRev, err := deps.Revisions.GetRevisionByID(ctx, r.oldID)
	if err != nil {
		return nil, fmt.Errorf("load revision %d: %w", r.oldID, err)
	}
	newRev, err := deps.Revisions.GetRevisionByID(ctx, r.newID)
	if err != nil {
		return nil, fmt.Errorf("load revision %d: %w", r.newID, err)
	}
	if oldRev == nil || newRev == nil {
		page.Notice = NoticeMissingRevision
		return page, nil
	}
	if asPage {
		page.Old = revisionInfo(oldRev)
		page.New = revisionInfo(newRev)
	}

	hidden := oldRev.IsDeleted(revision.DeletedText) || newRev.IsDeleted(revision.DeletedText)
	if hidden && !r.unhide {
		page.Notice = NoticeHiddenContent
		return page, nil
	}
	page.Unhidden = hidden

	// 含隐藏内容的差异不进缓存
	cacheable := !hidden && deps.Cache != nil
	key := cache.DiffKey{OldID: r.oldID, NewID: r.newID, Model: r.h.model}
	logger := log.WithFields(log.Fields{
		"request_id": r.rc.RequestID,
		"old":        r.oldID,
		"new":        r.newID,
		"model":      r.h.model,
	})

	var entry *cache.DiffEntry
	if cacheable {
		if r.purge {
			if err := deps.Cache.Purge(ctx, key); err != nil {
				logger.WithError(err).Warn("diff cache purge failed")
			}
		} else {
			e, hit, err := deps.Cache.Get(ctx, key)
			if err != nil {
				logger.WithError(err).Warn("diff cache read failed")
			}
			if hit {
				entry = e
				page.Cached = true
			}
		}
	}

	var newText string
	if entry == nil {
		oldText, err := r.loadText(ctx, oldRev)
		if err != nil {
			return nil, err
		}
		newText, err = r.loadText(ctx, newRev)
		if err != nil {
			return nil, err
		}
		res := renderDiff(r.h.normalize(oldText), r.h.normalize(newText), r.contextLines())
		entry = &cache.DiffEntry{
			Fragment:   res.fragment,
			Added:      res.added,
			Removed:    res.removed,
			RenderedAt: time.Now().UTC(),
		}
		if cacheable {
			if err := deps.Cache.Set(ctx, key, entry); err != nil {
				logger.WithError(err).Warn("diff cache write failed")
			}
		}
	}

	page.Fragment = template.HTML(entry.Fragment)
	page.Added = entry.Added
	page.Removed = entry.Removed
	page.Identical = entry.Added == 0 && entry.Removed == 0

	if asPage && !r.rc.DiffOnly {
		if newText == "" {
			if newText, err = r.loadText(ctx, newRev); err != nil {
				return nil, err
			}
		}
		page.NewContent = newText
	}
	return page, nil
}

func (r *textDiffRenderer) loadText(ctx context.Context, rev *revision.Record) (string, error) {
	slot, ok := rev.Slot(revision.SlotMain)
	if !ok {
		return "", nil
	}
	text, err := r.h.deps.Contents.LoadContent(ctx, slot.ContentID)
	if err != nil {
		return "", fmt.Errorf("load content %d of revision %d: %w", slot.ContentID, rev.ID, err)
	}
	return text, nil
}

func (r *textDiffRenderer) contextLines() int {
	if r.h.deps.ContextLines > 0 {
		return r.h.deps.ContextLines
	}
	return defaultContextLines
}

func revisionInfo(rec *revision.Record) *RevisionInfo {
	info := &RevisionInfo{
		ID:        rec.ID,
		PageID:    rec.PageID,
		ParentID:  rec.ParentID,
		Timestamp: rec.Timestamp,
		Deleted:   rec.Deleted,
	}
	if !rec.IsDeleted(revision.DeletedComment) {
		info.Comment = rec.Comment
	}
	if s, ok := rec.Slot(revision.SlotMain); ok {
		info.Size = s.Size
	}
	return info
}
