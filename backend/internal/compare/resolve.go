package compare

import (
	"context"
	"fmt"
)

// ResolveRevision 修订号优先，其次取标题的最新修订；都没有或无效时返回 0
func (s *Service) ResolveRevision(ctx context.Context, revisionID, titleText string) (int64, error) {
	if revisionID != "" {
		// 0 与非整数视为未填写
		if id, ok := parseRevisionID(revisionID); ok && id != 0 {
			return id, nil
		}
	}
	if titleText == "" {
		return 0, nil
	}
	t, err := s.titles.Parse(titleText)
	if err != nil {
		return 0, nil
	}
	id, exists, err := s.titles.LatestRevisionID(ctx, t)
	if err != nil {
		return 0, fmt.Errorf("resolve title %q: %w", t.PrefixedText(), err)
	}
	if !exists {
		return 0, nil
	}
	return id, nil
}
