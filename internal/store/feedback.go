package store

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/eringen/storyboard/internal/domain"
)

type feedbackRow struct {
	ID         int64      `db:"id"`
	Comment    string     `db:"comment"`
	Name       string     `db:"name"`
	Email      string     `db:"email"`
	UserID     *string    `db:"user_id"`
	Approved   bool       `db:"approved"`
	ReviewedAt *time.Time `db:"reviewed_at"`
	CreatedAt  time.Time  `db:"created_at"`
}

type FeedbackStore struct {
	db *DB
}

func NewFeedbackStore(db *DB) *FeedbackStore {
	return &FeedbackStore{db: db}
}

func (s *FeedbackStore) Insert(ctx context.Context, f *domain.Feedback) error {
	f.CreatedAt = time.Now().UTC()
	query, args, err := s.db.builder().
		Insert("feedback").
		Columns("comment", "name", "email", "user_id", "approved", "created_at").
		Values(f.Comment, f.Name, f.Email, f.UserID, f.Approved, f.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build feedback insert: %w", err)
	}
	if err := s.db.executor(ctx).QueryRowxContext(ctx, query, args...).Scan(&f.ID); err != nil {
		return fmt.Errorf("insert feedback: %w", mapError(err))
	}
	return nil
}

// List returns feedback newest first. With approvedOnly only reviewed and
// approved entries are returned.
func (s *FeedbackStore) List(ctx context.Context, approvedOnly bool) ([]domain.Feedback, error) {
	q := s.db.builder().
		Select("id", "comment", "name", "email", "user_id", "approved", "reviewed_at", "created_at").
		From("feedback").
		OrderBy("created_at DESC", "id DESC")
	if approvedOnly {
		q = q.Where(sq.Eq{"approved": true})
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build feedback list: %w", err)
	}
	var rows []feedbackRow
	if err := sqlx.SelectContext(ctx, s.db.executor(ctx), &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list feedback: %w", mapError(err))
	}
	out := make([]domain.Feedback, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.Feedback(r))
	}
	return out, nil
}

// Approve marks the entry approved and stamps reviewed_at.
func (s *FeedbackStore) Approve(ctx context.Context, id int64, at time.Time) error {
	query, args, err := s.db.builder().
		Update("feedback").
		Set("approved", true).
		Set("reviewed_at", at.UTC()).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build feedback approve: %w", err)
	}
	res, err := s.db.executor(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("approve feedback: %w", mapError(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("approve feedback %d: %w", id, domain.ErrNotFound)
	}
	return nil
}
