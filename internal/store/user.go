package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/eringen/storyboard/internal/domain"
)

type userRow struct {
	ID            string    `db:"id"`
	Name          string    `db:"name"`
	Role          string    `db:"role"`
	Email         string    `db:"email"`
	EmailVerified bool      `db:"email_verified"`
	Image         *string   `db:"image"`
	Login         string    `db:"login"`
	Credits       int       `db:"credits"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func (r userRow) toDomain() domain.User {
	return domain.User{
		ID:            r.ID,
		Name:          r.Name,
		Role:          domain.Role(r.Role),
		Email:         r.Email,
		EmailVerified: r.EmailVerified,
		Image:         r.Image,
		Login:         r.Login,
		Credits:       r.Credits,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

const userColumns = `id, name, role, email, email_verified, image, login, credits, created_at, updated_at`

type UserStore struct {
	db *DB
}

func NewUserStore(db *DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) get(ctx context.Context, where string, arg any) (domain.User, error) {
	var row userRow
	query := s.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE ` + where + ` = ?`)
	if err := sqlx.GetContext(ctx, s.db.executor(ctx), &row, query, arg); err != nil {
		return domain.User{}, fmt.Errorf("get user: %w", mapError(err))
	}
	return row.toDomain(), nil
}

// GetByEmail returns domain.ErrNotFound when no user has that email.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return s.get(ctx, "email", email)
}

func (s *UserStore) Insert(ctx context.Context, u *domain.User) error {
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	if u.Role == "" {
		u.Role = domain.RoleUser
	}

	_, err := s.db.executor(ctx).ExecContext(ctx, s.db.Rebind(`
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		u.ID, u.Name, string(u.Role), u.Email, u.EmailVerified, u.Image,
		u.Login, u.Credits, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", mapError(err))
	}
	return nil
}

// UpdateProfile refreshes the fields a sign-in provider owns.
func (s *UserStore) UpdateProfile(ctx context.Context, u *domain.User) error {
	u.UpdatedAt = time.Now().UTC()
	res, err := s.db.executor(ctx).ExecContext(ctx, s.db.Rebind(`
		UPDATE users SET name = ?, image = ?, email_verified = ?, updated_at = ?
		WHERE id = ?`),
		u.Name, u.Image, u.EmailVerified, u.UpdatedAt, u.ID,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", mapError(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update user %s: %w", u.ID, domain.ErrNotFound)
	}
	return nil
}
