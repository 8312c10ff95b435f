package storyboard

import (
	"context"
	"sync"
	"time"

	"github.com/eringen/storyboard/internal/service"
)

type slugLister interface {
	GetSlugs(ctx context.Context, includeUnpublished bool) ([]service.SlugDTO, error)
	GetPublishedSlug(ctx context.Context, canonicalURL string) (service.SlugDTO, error)
}

type categoryLister interface {
	ListCategories(ctx context.Context) ([]service.CategoryDTO, error)
	GetCategoryByURL(ctx context.Context, canonicalURL string) (service.CategoryDTO, error)
}

// SlugCache is an in-memory cache of published slugs and categories with TTL.
type SlugCache struct {
	mu         sync.RWMutex
	slugs      []service.SlugDTO
	categories []service.CategoryDTO
	fetched    time.Time
	ttl        time.Duration
	now        func() time.Time

	slugSource     slugLister
	categorySource categoryLister
}

func NewSlugCache(slugs slugLister, categories categoryLister, ttl time.Duration) *SlugCache {
	return &SlugCache{slugSource: slugs, categorySource: categories, ttl: ttl, now: time.Now}
}

func (c *SlugCache) valid() bool {
	return c.slugs != nil && c.now().Sub(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *SlugCache) Invalidate() {
	c.mu.Lock()
	c.slugs = nil
	c.categories = nil
	c.mu.Unlock()
}

func (c *SlugCache) load(ctx context.Context) error {
	if c.valid() {
		return nil
	}
	slugs, err := c.slugSource.GetSlugs(ctx, false)
	if err != nil {
		return err
	}
	categories, err := c.categorySource.ListCategories(ctx)
	if err != nil {
		return err
	}
	if slugs == nil {
		slugs = []service.SlugDTO{}
	}
	c.slugs = slugs
	c.categories = categories
	c.fetched = c.now()
	return nil
}

// ensureLoaded returns cached data after making sure it is fresh. Only a
// reload takes the write lock.
func (c *SlugCache) ensureLoaded(ctx context.Context) ([]service.SlugDTO, []service.CategoryDTO, error) {
	c.mu.RLock()
	if c.valid() {
		slugs, categories := c.slugs, c.categories
		c.mu.RUnlock()
		return slugs, categories, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.load(ctx); err != nil {
		return nil, nil, err
	}
	return c.slugs, c.categories, nil
}

// Published returns published slugs, newest first. A non-zero categoryID
// keeps only that category.
func (c *SlugCache) Published(ctx context.Context, categoryID int64) ([]service.SlugDTO, error) {
	slugs, _, err := c.ensureLoaded(ctx)
	if err != nil {
		return nil, err
	}
	if categoryID == 0 {
		return slugs, nil
	}
	var filtered []service.SlugDTO
	for _, s := range slugs {
		if s.CategoryID == categoryID {
			filtered = append(filtered, s)
		}
	}
	return filtered, nil
}

// Categories returns every category, ordered by name.
func (c *SlugCache) Categories(ctx context.Context) ([]service.CategoryDTO, error) {
	_, categories, err := c.ensureLoaded(ctx)
	return categories, err
}

// Category finds a category by its canonical URL. Categories created since
// the last load are read from the source.
func (c *SlugCache) Category(ctx context.Context, canonicalURL string) (service.CategoryDTO, error) {
	categories, err := c.Categories(ctx)
	if err != nil {
		return service.CategoryDTO{}, err
	}
	for _, cat := range categories {
		if cat.CanonicalURL == canonicalURL {
			return cat, nil
		}
	}
	return c.categorySource.GetCategoryByURL(ctx, canonicalURL)
}

// Story returns a single published slug by canonical URL, falling back to
// the source when the cached list does not have it yet.
func (c *SlugCache) Story(ctx context.Context, canonicalURL string) (service.SlugDTO, error) {
	slugs, _, err := c.ensureLoaded(ctx)
	if err != nil {
		return service.SlugDTO{}, err
	}
	for _, s := range slugs {
		if s.CanonicalURL == canonicalURL {
			return s, nil
		}
	}
	return c.slugSource.GetPublishedSlug(ctx, canonicalURL)
}
