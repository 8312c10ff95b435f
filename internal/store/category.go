package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/eringen/storyboard/internal/domain"
)

type categoryRow struct {
	ID           int64  `db:"id"`
	Name         string `db:"name"`
	CanonicalURL string `db:"canonical_url"`
}

func (r categoryRow) toDomain() domain.Category {
	return domain.Category{ID: r.ID, Name: r.Name, CanonicalURL: r.CanonicalURL}
}

type CategoryStore struct {
	db *DB
}

func NewCategoryStore(db *DB) *CategoryStore {
	return &CategoryStore{db: db}
}

// List returns all categories ordered by name.
func (s *CategoryStore) List(ctx context.Context) ([]domain.Category, error) {
	var rows []categoryRow
	err := sqlx.SelectContext(ctx, s.db.executor(ctx), &rows,
		`SELECT id, name, canonical_url FROM categories ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", mapError(err))
	}
	out := make([]domain.Category, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *CategoryStore) GetByCanonicalURL(ctx context.Context, canonicalURL string) (domain.Category, error) {
	var row categoryRow
	err := sqlx.GetContext(ctx, s.db.executor(ctx), &row,
		s.db.Rebind(`SELECT id, name, canonical_url FROM categories WHERE canonical_url = ?`), canonicalURL)
	if err != nil {
		return domain.Category{}, fmt.Errorf("get category: %w", mapError(err))
	}
	return row.toDomain(), nil
}

func (s *CategoryStore) Insert(ctx context.Context, c *domain.Category) error {
	err := s.db.executor(ctx).QueryRowxContext(ctx,
		s.db.Rebind(`INSERT INTO categories (name, canonical_url) VALUES (?, ?) RETURNING id`),
		c.Name, c.CanonicalURL,
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("insert category: %w", mapError(err))
	}
	return nil
}
