package compare

import (
	"strconv"
	"strings"
)

// 表单字段名
const (
	FieldPage1 = "page1"
	FieldRev1  = "rev1"
	FieldPage2 = "page2"
	FieldRev2  = "rev2"
)

// ComparisonRequest 一次 GET 提交的全部参数，原样保留字符串，类型在校验阶段解释
type ComparisonRequest struct {
	Page1    string `form:"page1" json:"page1"`
	Rev1     string `form:"rev1" json:"rev1"`
	Page2    string `form:"page2" json:"page2"`
	Rev2     string `form:"rev2" json:"rev2"`
	Action   string `form:"action" json:"action,omitempty"`
	DiffOnly string `form:"diffonly" json:"diffonly,omitempty"`
	Unhide   string `form:"unhide" json:"unhide,omitempty"`

	RequestID string `form:"-" json:"-"`
}

// Normalize 去掉首尾空白
func (r *ComparisonRequest) Normalize() {
	r.Page1 = strings.TrimSpace(r.Page1)
	r.Rev1 = strings.TrimSpace(r.Rev1)
	r.Page2 = strings.TrimSpace(r.Page2)
	r.Rev2 = strings.TrimSpace(r.Rev2)
	r.Action = strings.TrimSpace(r.Action)
	r.DiffOnly = strings.TrimSpace(r.DiffOnly)
	r.Unhide = strings.TrimSpace(r.Unhide)
}

// Purge 只有 action=purge 才清缓存
func (r ComparisonRequest) Purge() bool { return r.Action == "purge" }

func (r ComparisonRequest) UnhideDeleted() bool { return r.Unhide == "1" }

func (r ComparisonRequest) DiffOnlyFlag() bool {
	switch strings.ToLower(r.DiffOnly) {
	case "", "0", "false", "no", "off":
		return false
	}
	return true
}

// Empty 所有比较字段都没填（首次打开页面）
func (r ComparisonRequest) Empty() bool {
	return r.Page1 == "" && r.Rev1 == "" && r.Page2 == "" && r.Rev2 == ""
}

// parseRevisionID 空串返回 0, true；非整数返回 0, false
func parseRevisionID(s string) (int64, bool) {
	if s == "" {
		return 0, true
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
