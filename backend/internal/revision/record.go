package revision

import "time"

// 槽位角色，目前只用到 main
const SlotMain = "main"

// rev_deleted 位图
const (
	DeletedText       uint8 = 1 << 0
	DeletedComment    uint8 = 1 << 1
	DeletedUser       uint8 = 1 << 2
	DeletedRestricted uint8 = 1 << 3
)

// 内容模型
const (
	ModelWikitext   = "wikitext"
	ModelText       = "text"
	ModelCSS        = "css"
	ModelJavaScript = "javascript"
	ModelJSON       = "json"
)

type Slot struct {
	Role      string
	Model     string
	ContentID uint64
	Size      uint64
	Sha1      string
}

// Record 是某个页面在某一时刻的不可变快照
type Record struct {
	ID        int64
	PageID    uint64
	ParentID  int64
	Timestamp time.Time
	Comment   string
	Deleted   uint8
	Sha1      string
	Slots     map[string]Slot
}

// Slot 返回指定角色的槽位，不存在时 ok=false
func (r *Record) Slot(role string) (Slot, bool) {
	if r == nil || r.Slots == nil {
		return Slot{}, false
	}
	s, ok := r.Slots[role]
	return s, ok
}

// MainModel 返回 main 槽位的内容模型；没有 main 槽位时按 wikitext 处理
func (r *Record) MainModel() string {
	if s, ok := r.Slot(SlotMain); ok && s.Model != "" {
		return s.Model
	}
	return ModelWikitext
}

func (r *Record) IsDeleted(field uint8) bool {
	return r != nil && r.Deleted&field == field
}
