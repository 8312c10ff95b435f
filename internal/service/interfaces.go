package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"github.com/eringen/storyboard/internal/domain"
)

type SlugStore interface {
	List(ctx context.Context, f domain.SlugFilter) ([]domain.Slug, error)
	GetByID(ctx context.Context, id int64) (domain.Slug, error)
	GetByCanonicalURL(ctx context.Context, canonicalURL string) (domain.Slug, error)
	Insert(ctx context.Context, sl *domain.Slug) error
	Update(ctx context.Context, sl *domain.Slug) error
	Delete(ctx context.Context, id int64) error
}

type CategoryStore interface {
	List(ctx context.Context) ([]domain.Category, error)
	GetByCanonicalURL(ctx context.Context, canonicalURL string) (domain.Category, error)
	Insert(ctx context.Context, c *domain.Category) error
}

type UserStore interface {
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	Insert(ctx context.Context, u *domain.User) error
	UpdateProfile(ctx context.Context, u *domain.User) error
}

type FeedbackStore interface {
	Insert(ctx context.Context, f *domain.Feedback) error
	List(ctx context.Context, approvedOnly bool) ([]domain.Feedback, error)
	Approve(ctx context.Context, id int64, at time.Time) error
}

type Publisher interface {
	Publish(ctx context.Context, event domain.SlugEvent) error
	Close() error
}
