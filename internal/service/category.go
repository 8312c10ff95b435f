package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/eringen/storyboard/internal/domain"
)

type CategoryService struct {
	categories CategoryStore
	logger     *zap.Logger
}

func NewCategoryService(categories CategoryStore, logger *zap.Logger) *CategoryService {
	return &CategoryService{categories: categories, logger: logger.Named("categories")}
}

func (s *CategoryService) ListCategories(ctx context.Context) ([]CategoryDTO, error) {
	rows, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make([]CategoryDTO, 0, len(rows))
	for _, c := range rows {
		out = append(out, NewCategoryDTO(c))
	}
	return out, nil
}

func (s *CategoryService) GetCategoryByURL(ctx context.Context, canonicalURL string) (CategoryDTO, error) {
	c, err := s.categories.GetByCanonicalURL(ctx, canonicalURL)
	if err != nil {
		return CategoryDTO{}, fmt.Errorf("get category %q: %w", canonicalURL, err)
	}
	return NewCategoryDTO(c), nil
}

// CreateCategory stores a category. A duplicate canonical URL yields
// domain.ErrConstraintViolation.
func (s *CategoryService) CreateCategory(ctx context.Context, in CategoryInput) (CategoryDTO, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.CanonicalURL = strings.TrimSpace(in.CanonicalURL)
	if err := validateCategoryInput(in); err != nil {
		return CategoryDTO{}, err
	}
	c := domain.Category{Name: in.Name, CanonicalURL: in.CanonicalURL}
	if err := s.categories.Insert(ctx, &c); err != nil {
		return CategoryDTO{}, fmt.Errorf("create category: %w", err)
	}
	s.logger.Info("category created", zap.Int64("id", c.ID), zap.String("canonical_url", c.CanonicalURL))
	return NewCategoryDTO(c), nil
}
