package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/eringen/storyboard/internal/domain"
)

type SlugService struct {
	slugs     SlugStore
	publisher Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewSlugService(slugs SlugStore, publisher Publisher, logger *zap.Logger) *SlugService {
	return &SlugService{
		slugs:     slugs,
		publisher: publisher,
		logger:    logger.Named("slugs"),
		now:       time.Now,
	}
}

// GetSlugs lists slugs newest first. Drafts are included only when
// includeUnpublished is set.
func (s *SlugService) GetSlugs(ctx context.Context, includeUnpublished bool) ([]SlugDTO, error) {
	return s.list(ctx, domain.SlugFilter{PublishedOnly: !includeUnpublished})
}

func (s *SlugService) list(ctx context.Context, f domain.SlugFilter) ([]SlugDTO, error) {
	rows, err := s.slugs.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("get slugs: %w", err)
	}
	out := make([]SlugDTO, 0, len(rows))
	for _, sl := range rows {
		out = append(out, NewSlugDTO(sl))
	}
	return out, nil
}

// GetSlugByID returns domain.ErrNotFound when no slug has id, and a
// *domain.ValidationError when the stored row is malformed.
func (s *SlugService) GetSlugByID(ctx context.Context, id int64) (SlugDTO, error) {
	sl, err := s.slugs.GetByID(ctx, id)
	if err != nil {
		return SlugDTO{}, fmt.Errorf("get slug %d: %w", id, err)
	}
	if err := validateSlugRow(sl); err != nil {
		return SlugDTO{}, err
	}
	return NewSlugDTO(sl), nil
}

// GetPublishedSlug finds a published slug by its URL. Drafts are reported
// as domain.ErrNotFound.
func (s *SlugService) GetPublishedSlug(ctx context.Context, canonicalURL string) (SlugDTO, error) {
	sl, err := s.slugs.GetByCanonicalURL(ctx, canonicalURL)
	if err != nil {
		return SlugDTO{}, fmt.Errorf("get slug %q: %w", canonicalURL, err)
	}
	if !sl.Published {
		return SlugDTO{}, fmt.Errorf("get slug %q: %w", canonicalURL, domain.ErrNotFound)
	}
	if err := validateSlugRow(sl); err != nil {
		return SlugDTO{}, err
	}
	return NewSlugDTO(sl), nil
}

// SaveSlug inserts a new slug and returns the stored row.
func (s *SlugService) SaveSlug(ctx context.Context, in SlugInput) (domain.Slug, error) {
	in.ID = 0
	if err := validateSlugInput(in); err != nil {
		return domain.Slug{}, err
	}
	sl := in.toDomain()
	if err := s.slugs.Insert(ctx, &sl); err != nil {
		return domain.Slug{}, fmt.Errorf("save slug: %w", err)
	}
	s.logger.Info("slug saved", zap.Int64("id", sl.ID), zap.String("canonical_url", sl.CanonicalURL))
	s.publish(ctx, domain.SlugCreated, sl)
	return s.reload(ctx, sl), nil
}

// UpdateSlug overwrites the slug with in.ID.
func (s *SlugService) UpdateSlug(ctx context.Context, in SlugInput) (domain.Slug, error) {
	if in.ID <= 0 {
		return domain.Slug{}, &domain.ValidationError{Entity: "slug", Fields: map[string]string{"id": "is required"}}
	}
	if err := validateSlugInput(in); err != nil {
		return domain.Slug{}, err
	}
	sl := in.toDomain()
	if err := s.slugs.Update(ctx, &sl); err != nil {
		return domain.Slug{}, fmt.Errorf("update slug %d: %w", in.ID, err)
	}
	s.logger.Info("slug updated", zap.Int64("id", sl.ID), zap.Bool("published", sl.Published))
	s.publish(ctx, domain.SlugUpdated, sl)
	return s.reload(ctx, sl), nil
}

// DeleteSlug removes the slug with id. The removed row is returned so
// callers can report what went away.
func (s *SlugService) DeleteSlug(ctx context.Context, id int64) (domain.Slug, error) {
	sl, err := s.slugs.GetByID(ctx, id)
	if err != nil {
		return domain.Slug{}, fmt.Errorf("delete slug %d: %w", id, err)
	}
	if err := s.slugs.Delete(ctx, id); err != nil {
		return domain.Slug{}, fmt.Errorf("delete slug %d: %w", id, err)
	}
	s.logger.Info("slug deleted", zap.Int64("id", id), zap.String("canonical_url", sl.CanonicalURL))
	s.publish(ctx, domain.SlugDeleted, sl)
	return sl, nil
}

// reload reads sl back with its category and author. On failure the
// written row is returned as is.
func (s *SlugService) reload(ctx context.Context, sl domain.Slug) domain.Slug {
	full, err := s.slugs.GetByID(ctx, sl.ID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("reload slug", zap.Int64("id", sl.ID), zap.Error(err))
		}
		return sl
	}
	return full
}

func (s *SlugService) publish(ctx context.Context, action string, sl domain.Slug) {
	event := domain.SlugEvent{
		Action:       action,
		SlugID:       sl.ID,
		CanonicalURL: sl.CanonicalURL,
		Published:    sl.Published,
		AuthorID:     sl.AuthorID,
		Timestamp:    s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish slug event", zap.String("action", action), zap.Int64("id", sl.ID), zap.Error(err))
	}
}
