package store

import (
	"time"

	"compare-service/backend/internal/revision"
)

// 表结构与 MediaWiki 的 page / revision / slots 对应，做了简化
type Page struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement"`
	Namespace    int       `gorm:"not null;uniqueIndex:uniq_page_ns_title,priority:1"`
	Title        string    `gorm:"type:varbinary(255);not null;uniqueIndex:uniq_page_ns_title,priority:2"`
	Latest       int64     `gorm:"not null;default:0"`
	ContentModel string    `gorm:"type:varbinary(32)"`
	IsRedirect   bool      `gorm:"not null;default:false"`
	Touched      time.Time `gorm:"not null"`
}

func (Page) TableName() string { return "page" }

type Revision struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	PageID    uint64    `gorm:"not null;index:idx_rev_page_ts,priority:1"`
	ParentID  int64     `gorm:"not null;default:0"`
	Timestamp time.Time `gorm:"not null;index:idx_rev_page_ts,priority:2"`
	Comment   string    `gorm:"type:varchar(767)"`
	Deleted   uint8     `gorm:"not null;default:0"`
	Sha1      string    `gorm:"type:varbinary(40)"`
	Slots     []Slot    `gorm:"foreignKey:RevisionID"`
}

func (Revision) TableName() string { return "revision" }

type Slot struct {
	RevisionID int64  `gorm:"primaryKey"`
	Role       string `gorm:"primaryKey;type:varbinary(64)"`
	Model      string `gorm:"type:varbinary(32);not null"`
	ContentID  uint64 `gorm:"not null"`
	Size       uint64 `gorm:"not null;default:0"`
	Sha1       string `gorm:"type:varbinary(40)"`
}

func (Slot) TableName() string { return "slots" }

// toRecord 把 gorm 实体转成领域对象
func (r *Revision) toRecord() *revision.Record {
	rec := &revision.Record{
		ID:        r.ID,
		PageID:    r.PageID,
		ParentID:  r.ParentID,
		Timestamp: r.Timestamp,
		Comment:   r.Comment,
		Deleted:   r.Deleted,
		Sha1:      r.Sha1,
		Slots:     make(map[string]revision.Slot, len(r.Slots)),
	}
	for _, s := range r.Slots {
		rec.Slots[s.Role] = revision.Slot{
			Role:      s.Role,
			Model:     s.Model,
			ContentID: s.ContentID,
			Size:      s.Size,
			Sha1:      s.Sha1,
		}
	}
	return rec
}
