package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/eringen/storyboard/internal/domain"
)

type verificationRow struct {
	ID         string    `db:"id"`
	Identifier string    `db:"identifier"`
	Value      string    `db:"value"`
	ExpiresAt  time.Time `db:"expires_at"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

type VerificationStore struct {
	db *DB
}

func NewVerificationStore(db *DB) *VerificationStore {
	return &VerificationStore{db: db}
}

func (s *VerificationStore) Insert(ctx context.Context, v *domain.Verification) error {
	now := time.Now().UTC()
	v.CreatedAt, v.UpdatedAt = now, now
	_, err := s.db.executor(ctx).ExecContext(ctx, s.db.Rebind(`
		INSERT INTO verifications (id, identifier, value, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`),
		v.ID, v.Identifier, v.Value, v.ExpiresAt.UTC(), v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert verification: %w", mapError(err))
	}
	return nil
}

// Consume deletes and returns the unexpired verification for identifier.
// A verification can be consumed once.
func (s *VerificationStore) Consume(ctx context.Context, identifier string, now time.Time) (domain.Verification, error) {
	var row verificationRow
	exec := s.db.executor(ctx)
	err := sqlx.GetContext(ctx, exec, &row, s.db.Rebind(`
		SELECT id, identifier, value, expires_at, created_at, updated_at
		FROM verifications WHERE identifier = ? AND expires_at > ?
		ORDER BY created_at DESC LIMIT 1`), identifier, now.UTC())
	if err != nil {
		return domain.Verification{}, fmt.Errorf("get verification: %w", mapError(err))
	}
	res, err := exec.ExecContext(ctx, s.db.Rebind(`DELETE FROM verifications WHERE id = ?`), row.ID)
	if err != nil {
		return domain.Verification{}, fmt.Errorf("consume verification: %w", mapError(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.Verification{}, fmt.Errorf("consume verification: %w", domain.ErrNotFound)
	}
	return domain.Verification(row), nil
}

func (s *VerificationStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.executor(ctx).ExecContext(ctx,
		s.db.Rebind(`DELETE FROM verifications WHERE expires_at <= ?`), now.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired verifications: %w", mapError(err))
	}
	return res.RowsAffected()
}
