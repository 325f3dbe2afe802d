package content

import (
	"fmt"
	"sort"

	"compare-service/backend/internal/revision"
)

// Registry 内容模型 -> Handler
type Registry struct {
	handlers map[string]Handler
	fallback Handler
}

// NewRegistry 注册内置模型；fallbackToText 为 true 时未知模型按纯文本处理
func NewRegistry(deps Deps, fallbackToText bool) *Registry {
	r := &Registry{handlers: make(map[string]Handler)}
	for _, m := range []string{revision.ModelWikitext, revision.ModelText, revision.ModelCSS, revision.ModelJavaScript} {
		r.Register(NewTextHandler(m, deps))
	}
	r.Register(NewJSONHandler(deps))
	if fallbackToText {
		r.fallback = NewTextHandler(revision.ModelText, deps)
	}
	return r
}

func (r *Registry) Register(h Handler) {
	r.handlers[h.Model()] = h
}

func (r *Registry) HandlerFor(model string) (Handler, error) {
	if h, ok := r.handlers[model]; ok {
		return h, nil
	}
	if r.fallback != nil {
		return r.fallback, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownModel, model)
}

func (r *Registry) Models() []string {
	out := make([]string, 0, len(r.handlers))
	for m := range r.handlers {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}
