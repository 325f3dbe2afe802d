package compare

import (
	"context"
	"fmt"
)

// ValidateTitle 空值合法（字段可选）
func (s *Service) ValidateTitle(ctx context.Context, value string) error {
	if value == "" {
		return nil
	}
	t, err := s.titles.Parse(value)
	if err != nil {
		return ErrInvalidTitle
	}
	_, exists, err := s.titles.LatestRevisionID(ctx, t)
	if err != nil {
		return fmt.Errorf("lookup title %q: %w", t.PrefixedText(), err)
	}
	if !exists {
		return ErrTitleNotFound
	}
	return nil
}

// ValidateRevision 空值合法
func (s *Service) ValidateRevision(ctx context.Context, value string) error {
	if value == "" {
		return nil
	}
	id, ok := parseRevisionID(value)
	if !ok {
		return ErrInvalidRevision
	}
	rec, err := s.revisions.GetRevisionByID(ctx, id)
	if err != nil {
		return fmt.Errorf("lookup revision %d: %w", id, err)
	}
	if rec == nil {
		return ErrRevisionNotFound
	}
	return nil
}

// Validate 依次校验四个字段；字段错误收集到 FieldErrors，其余错误直接返回
func (s *Service) Validate(ctx context.Context, req ComparisonRequest) (FieldErrors, error) {
	fe := make(FieldErrors)
	checks := []struct {
		field string
		value string
		fn    func(context.Context, string) error
	}{
		{FieldPage1, req.Page1, s.ValidateTitle},
		{FieldRev1, req.Rev1, s.ValidateRevision},
		{FieldPage2, req.Page2, s.ValidateTitle},
		{FieldRev2, req.Rev2, s.ValidateRevision},
	}
	for _, c := range checks {
		err := c.fn(ctx, c.value)
		if err == nil {
			continue
		}
		if !isFieldError(err) {
			return nil, err
		}
		fe.add(c.field, err)
	}
	return fe, nil
}
