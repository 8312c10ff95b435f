package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/eringen/storyboard/internal/domain"
)

type sessionRow struct {
	ID        string    `db:"id"`
	Token     string    `db:"token"`
	ExpiresAt time.Time `db:"expires_at"`
	IPAddress *string   `db:"ip_address"`
	UserAgent *string   `db:"user_agent"`
	UserID    string    `db:"user_id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r sessionRow) toDomain() domain.Session {
	return domain.Session{
		ID:        r.ID,
		Token:     r.Token,
		ExpiresAt: r.ExpiresAt,
		IPAddress: r.IPAddress,
		UserAgent: r.UserAgent,
		UserID:    r.UserID,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type SessionStore struct {
	db *DB
}

func NewSessionStore(db *DB) *SessionStore {
	return &SessionStore{db: db}
}

func (s *SessionStore) Insert(ctx context.Context, sess *domain.Session) error {
	now := time.Now().UTC()
	sess.CreatedAt, sess.UpdatedAt = now, now
	_, err := s.db.executor(ctx).ExecContext(ctx, s.db.Rebind(`
		INSERT INTO sessions (id, token, expires_at, ip_address, user_agent, user_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		sess.ID, sess.Token, sess.ExpiresAt.UTC(), sess.IPAddress, sess.UserAgent,
		sess.UserID, sess.CreatedAt, sess.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", mapError(err))
	}
	return nil
}

// GetByToken returns the session with its user. Expired sessions are
// reported as domain.ErrNotFound.
func (s *SessionStore) GetByToken(ctx context.Context, token string, now time.Time) (domain.AuthSession, error) {
	var row struct {
		sessionRow
		User userRow `db:"u"`
	}
	query := s.db.Rebind(`
		SELECT s.id, s.token, s.expires_at, s.ip_address, s.user_agent, s.user_id,
		       s.created_at, s.updated_at,
		       u.id AS "u.id", u.name AS "u.name", u.role AS "u.role", u.email AS "u.email",
		       u.email_verified AS "u.email_verified", u.image AS "u.image",
		       u.login AS "u.login", u.credits AS "u.credits",
		       u.created_at AS "u.created_at", u.updated_at AS "u.updated_at"
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.token = ? AND s.expires_at > ?`)
	if err := sqlx.GetContext(ctx, s.db.executor(ctx), &row, query, token, now.UTC()); err != nil {
		return domain.AuthSession{}, fmt.Errorf("get session: %w", mapError(err))
	}
	return domain.AuthSession{
		Session: row.sessionRow.toDomain(),
		User:    row.User.toDomain(),
	}, nil
}

func (s *SessionStore) DeleteByToken(ctx context.Context, token string) error {
	_, err := s.db.executor(ctx).ExecContext(ctx,
		s.db.Rebind(`DELETE FROM sessions WHERE token = ?`), token)
	if err != nil {
		return fmt.Errorf("delete session: %w", mapError(err))
	}
	return nil
}

// DeleteExpired removes sessions that expired before now and reports how
// many were removed.
func (s *SessionStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.executor(ctx).ExecContext(ctx,
		s.db.Rebind(`DELETE FROM sessions WHERE expires_at <= ?`), now.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", mapError(err))
	}
	return res.RowsAffected()
}
