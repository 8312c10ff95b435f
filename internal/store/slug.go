package store

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/eringen/storyboard/internal/domain"
)

// slugRow is a slug joined with its category and author.
type slugRow struct {
	ID              int64     `db:"id"`
	Title           *string   `db:"title"`
	SubTitle        *string   `db:"sub_title"`
	ShortStory      *string   `db:"short_story"`
	FullStory       *string   `db:"full_story"`
	MetaDescription *string   `db:"meta_description"`
	MetaKeywords    *string   `db:"meta_keywords"`
	MetaTitle       *string   `db:"meta_title"`
	OGDescription   *string   `db:"og_description"`
	OGImage         *string   `db:"og_image"`
	CanonicalURL    string    `db:"canonical_url"`
	CanonicalLink   *string   `db:"canonical_link"`
	StorySlug       *string   `db:"story_slug"`
	Genre           *string   `db:"genre"`
	Byline          *string   `db:"byline"`
	Published       bool      `db:"published"`
	AuthorID        string    `db:"author_id"`
	CategoryID      int64     `db:"category_id"`
	ReadingTime     *int      `db:"reading_time"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`

	CategoryName         string  `db:"category_name"`
	CategoryCanonicalURL string  `db:"category_canonical_url"`
	AuthorName           string  `db:"author_name"`
	AuthorLogin          string  `db:"author_login"`
	AuthorImage          *string `db:"author_image"`
}

func (r slugRow) toDomain() domain.Slug {
	return domain.Slug{
		ID:              r.ID,
		Title:           r.Title,
		SubTitle:        r.SubTitle,
		ShortStory:      r.ShortStory,
		FullStory:       r.FullStory,
		MetaDescription: r.MetaDescription,
		MetaKeywords:    r.MetaKeywords,
		MetaTitle:       r.MetaTitle,
		OGDescription:   r.OGDescription,
		OGImage:         r.OGImage,
		CanonicalURL:    r.CanonicalURL,
		CanonicalLink:   r.CanonicalLink,
		StorySlug:       r.StorySlug,
		Genre:           r.Genre,
		Byline:          r.Byline,
		Published:       r.Published,
		AuthorID:        r.AuthorID,
		CategoryID:      r.CategoryID,
		ReadingTime:     r.ReadingTime,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
		Category: &domain.Category{
			ID:           r.CategoryID,
			Name:         r.CategoryName,
			CanonicalURL: r.CategoryCanonicalURL,
		},
		Author: &domain.User{
			ID:    r.AuthorID,
			Name:  r.AuthorName,
			Login: r.AuthorLogin,
			Image: r.AuthorImage,
		},
	}
}

var slugColumns = []string{
	"s.id", "s.title", "s.sub_title", "s.short_story", "s.full_story",
	"s.meta_description", "s.meta_keywords", "s.meta_title", "s.og_description",
	"s.og_image", "s.canonical_url", "s.canonical_link", "s.story_slug",
	"s.genre", "s.byline", "s.published", "s.author_id", "s.category_id",
	"s.reading_time", "s.created_at", "s.updated_at",
	"c.name AS category_name", "c.canonical_url AS category_canonical_url",
	"u.name AS author_name", "u.login AS author_login", "u.image AS author_image",
}

type SlugStore struct {
	db *DB
}

func NewSlugStore(db *DB) *SlugStore {
	return &SlugStore{db: db}
}

func (s *SlugStore) selectSlugs() sq.SelectBuilder {
	return s.db.builder().
		Select(slugColumns...).
		From("slugs s").
		Join("categories c ON c.id = s.category_id").
		Join("users u ON u.id = s.author_id")
}

// List returns slugs newest first, each with its category and author.
func (s *SlugStore) List(ctx context.Context, f domain.SlugFilter) ([]domain.Slug, error) {
	q := s.selectSlugs().OrderBy("s.created_at DESC", "s.id DESC")
	if f.PublishedOnly {
		q = q.Where(sq.Eq{"s.published": true})
	}
	if f.CategoryID != 0 {
		q = q.Where(sq.Eq{"s.category_id": f.CategoryID})
	}
	if f.AuthorID != "" {
		q = q.Where(sq.Eq{"s.author_id": f.AuthorID})
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build slug list: %w", err)
	}
	var rows []slugRow
	if err := sqlx.SelectContext(ctx, s.db.executor(ctx), &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list slugs: %w", mapError(err))
	}
	out := make([]domain.Slug, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *SlugStore) GetByID(ctx context.Context, id int64) (domain.Slug, error) {
	return s.getOne(ctx, sq.Eq{"s.id": id})
}

// GetByCanonicalURL looks a slug up by its unique URL path segment.
func (s *SlugStore) GetByCanonicalURL(ctx context.Context, canonicalURL string) (domain.Slug, error) {
	return s.getOne(ctx, sq.Eq{"s.canonical_url": canonicalURL})
}

func (s *SlugStore) getOne(ctx context.Context, where sq.Eq) (domain.Slug, error) {
	query, args, err := s.selectSlugs().Where(where).ToSql()
	if err != nil {
		return domain.Slug{}, fmt.Errorf("build slug query: %w", err)
	}
	var row slugRow
	if err := sqlx.GetContext(ctx, s.db.executor(ctx), &row, query, args...); err != nil {
		return domain.Slug{}, fmt.Errorf("get slug: %w", mapError(err))
	}
	return row.toDomain(), nil
}

func slugValues(sl *domain.Slug) map[string]any {
	return map[string]any{
		"title":            sl.Title,
		"sub_title":        sl.SubTitle,
		"short_story":      sl.ShortStory,
		"full_story":       sl.FullStory,
		"meta_description": sl.MetaDescription,
		"meta_keywords":    sl.MetaKeywords,
		"meta_title":       sl.MetaTitle,
		"og_description":   sl.OGDescription,
		"og_image":         sl.OGImage,
		"canonical_url":    sl.CanonicalURL,
		"canonical_link":   sl.CanonicalLink,
		"story_slug":       sl.StorySlug,
		"genre":            sl.Genre,
		"byline":           sl.Byline,
		"published":        sl.Published,
		"author_id":        sl.AuthorID,
		"category_id":      sl.CategoryID,
		"reading_time":     sl.ReadingTime,
		"updated_at":       sl.UpdatedAt,
	}
}

// Insert stores sl and fills in its ID and timestamps.
func (s *SlugStore) Insert(ctx context.Context, sl *domain.Slug) error {
	now := time.Now().UTC()
	sl.CreatedAt, sl.UpdatedAt = now, now

	values := slugValues(sl)
	values["created_at"] = sl.CreatedAt

	query, args, err := s.db.builder().
		Insert("slugs").
		SetMap(values).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build slug insert: %w", err)
	}
	if err := s.db.executor(ctx).QueryRowxContext(ctx, query, args...).Scan(&sl.ID); err != nil {
		return fmt.Errorf("insert slug: %w", mapError(err))
	}
	return nil
}

// Update overwrites every column of the row with sl.ID.
func (s *SlugStore) Update(ctx context.Context, sl *domain.Slug) error {
	sl.UpdatedAt = time.Now().UTC()

	query, args, err := s.db.builder().
		Update("slugs").
		SetMap(slugValues(sl)).
		Where(sq.Eq{"id": sl.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build slug update: %w", err)
	}
	res, err := s.db.executor(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update slug: %w", mapError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update slug: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update slug %d: %w", sl.ID, domain.ErrNotFound)
	}
	return nil
}

func (s *SlugStore) Delete(ctx context.Context, id int64) error {
	query, args, err := s.db.builder().Delete("slugs").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build slug delete: %w", err)
	}
	res, err := s.db.executor(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete slug: %w", mapError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete slug: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete slug %d: %w", id, domain.ErrNotFound)
	}
	return nil
}
