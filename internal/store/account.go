package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/eringen/storyboard/internal/domain"
)

type accountRow struct {
	ID                    string     `db:"id"`
	AccountID             string     `db:"account_id"`
	ProviderID            string     `db:"provider_id"`
	UserID                string     `db:"user_id"`
	AccessToken           *string    `db:"access_token"`
	RefreshToken          *string    `db:"refresh_token"`
	IDToken               *string    `db:"id_token"`
	AccessTokenExpiresAt  *time.Time `db:"access_token_expires_at"`
	RefreshTokenExpiresAt *time.Time `db:"refresh_token_expires_at"`
	Scope                 *string    `db:"scope"`
	Password              *string    `db:"password"`
	CreatedAt             time.Time  `db:"created_at"`
	UpdatedAt             time.Time  `db:"updated_at"`
}

func (r accountRow) toDomain() domain.Account {
	return domain.Account(r)
}

type AccountStore struct {
	db *DB
}

func NewAccountStore(db *DB) *AccountStore {
	return &AccountStore{db: db}
}

func (s *AccountStore) GetByProvider(ctx context.Context, providerID, accountID string) (domain.Account, error) {
	var row accountRow
	err := sqlx.GetContext(ctx, s.db.executor(ctx), &row, s.db.Rebind(`
		SELECT id, account_id, provider_id, user_id, access_token, refresh_token, id_token,
		       access_token_expires_at, refresh_token_expires_at, scope, password,
		       created_at, updated_at
		FROM accounts WHERE provider_id = ? AND account_id = ?`),
		providerID, accountID)
	if err != nil {
		return domain.Account{}, fmt.Errorf("get account: %w", mapError(err))
	}
	return row.toDomain(), nil
}

// Upsert inserts a or, when the provider identity already exists, refreshes
// its tokens.
func (s *AccountStore) Upsert(ctx context.Context, a *domain.Account) error {
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now
	_, err := s.db.executor(ctx).ExecContext(ctx, s.db.Rebind(`
		INSERT INTO accounts (id, account_id, provider_id, user_id, access_token, refresh_token,
		                      id_token, access_token_expires_at, refresh_token_expires_at,
		                      scope, password, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (provider_id, account_id) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = COALESCE(EXCLUDED.refresh_token, accounts.refresh_token),
			id_token = EXCLUDED.id_token,
			access_token_expires_at = EXCLUDED.access_token_expires_at,
			scope = EXCLUDED.scope,
			updated_at = EXCLUDED.updated_at`),
		a.ID, a.AccountID, a.ProviderID, a.UserID, a.AccessToken, a.RefreshToken,
		a.IDToken, a.AccessTokenExpiresAt, a.RefreshTokenExpiresAt,
		a.Scope, a.Password, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert account: %w", mapError(err))
	}
	return nil
}
