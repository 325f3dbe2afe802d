package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"compare-service/backend/internal/revision"
	"compare-service/backend/internal/title"
)

type RevisionStore struct {
	db *gorm.DB
}

func NewRevisionStore(db *gorm.DB) *RevisionStore {
	return &RevisionStore{db: db}
}

// GetRevisionByID 没找到返回 nil, nil
func (s *RevisionStore) GetRevisionByID(ctx context.Context, id int64) (*revision.Record, error) {
	if id <= 0 {
		return nil, nil
	}
	var rev Revision
	err := s.db.WithContext(ctx).Preload("Slots").First(&rev, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return rev.toRecord(), nil
}

// LatestRevisionID 页面不存在时 exists=false
func (s *RevisionStore) LatestRevisionID(ctx context.Context, t title.Title) (int64, bool, error) {
	var page Page
	err := s.db.WithContext(ctx).
		Select("id", "latest").
		Where("namespace = ? AND title = ?", t.Namespace, t.DBKey).
		First(&page).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return page.Latest, true, nil
}

type NewRevision struct {
	Title     title.Title
	Model     string
	ContentID uint64
	Size      uint64
	Sha1      string
	Comment   string
	Deleted   uint8
	Timestamp time.Time
}

// InsertRevision 在一个事务里：锁定/创建页面 -> 写 revision 与 main 槽位 -> 推进 page.latest
func (s *RevisionStore) InsertRevision(ctx context.Context, nr NewRevision) (int64, error) {
	if !nr.Title.CanExist() {
		return 0, fmt.Errorf("page %q cannot have revisions", nr.Title.PrefixedText())
	}
	if nr.Timestamp.IsZero() {
		nr.Timestamp = time.Now().UTC()
	}
	if nr.Model == "" {
		nr.Model = revision.ModelWikitext
	}

	var revID int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		page := Page{Namespace: nr.Title.Namespace, Title: nr.Title.DBKey}
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("namespace = ? AND title = ?", page.Namespace, page.Title).
			Attrs(Page{ContentModel: nr.Model, Touched: nr.Timestamp}).
			FirstOrCreate(&page).Error
		if err != nil {
			return err
		}

		rev := Revision{
			PageID:    page.ID,
			ParentID:  page.Latest,
			Timestamp: nr.Timestamp,
			Comment:   nr.Comment,
			Deleted:   nr.Deleted,
			Sha1:      nr.Sha1,
		}
		if err := tx.Create(&rev).Error; err != nil {
			return err
		}
		slot := Slot{
			RevisionID: rev.ID,
			Role:       revision.SlotMain,
			Model:      nr.Model,
			ContentID:  nr.ContentID,
			Size:       nr.Size,
			Sha1:       nr.Sha1,
		}
		if err := tx.Create(&slot).Error; err != nil {
			return err
		}

		err = tx.Model(&Page{}).Where("id = ?", page.ID).Updates(map[string]any{
			"latest":        rev.ID,
			"content_model": nr.Model,
			"touched":       nr.Timestamp,
		}).Error
		if err != nil {
			return err
		}
		revID = rev.ID
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("insert revision for %q: %w", nr.Title.PrefixedText(), err)
	}
	return revID, nil
}
