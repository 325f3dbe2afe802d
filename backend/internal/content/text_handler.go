package content

import (
	"bytes"
	"strings"

	json "github.com/goccy/go-json"

	"compare-service/backend/internal/revision"
)

// textHandler 覆盖所有按行比较的模型，normalize 决定比较前如何整理正文
type textHandler struct {
	model     string
	deps      Deps
	normalize func(string) string
}

func NewTextHandler(model string, deps Deps) Handler {
	return &textHandler{model: model, deps: deps, normalize: normalizeText}
}

// NewJSONHandler JSON 先统一缩进与键顺序再比较，解析失败按原文比较
func NewJSONHandler(deps Deps) Handler {
	return &textHandler{
		model: revision.ModelJSON,
		deps:  deps,
		normalize: func(s string) string {
			return normalizeText(canonicalJSON(s))
		},
	}
}

func (h *textHandler) Model() string { return h.model }

func (h *textHandler) CreateDiffRenderer(rc RenderContext, oldID, newID, rcID int64, purge, unhide bool) DiffRenderer {
	return &textDiffRenderer{
		h:      h,
		rc:     rc,
		oldID:  oldID,
		newID:  newID,
		rcID:   rcID,
		purge:  purge,
		unhide: unhide,
	}
}

// 统一换行，结尾保留一个换行，避免“只差最后一个换行”的噪音
func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return ""
	}
	return s + "\n"
}

func canonicalJSON(s string) string {
	// 只接受单个完整的 JSON 值
	if !json.Valid([]byte(s)) {
		return s
	}
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return s
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return s
	}
	return buf.String()
}
