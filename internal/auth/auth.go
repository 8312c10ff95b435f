// Package auth resolves database sessions and runs Google sign-in.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/eringen/storyboard/internal/domain"
	"github.com/eringen/storyboard/internal/service"
)

const (
	ProviderGoogle      = "google"
	googleUserInfoURL   = "https://openidconnect.googleapis.com/v1/userinfo"
	stateIdentifierBase = "oauth-state:"
	stateTTL            = 10 * time.Minute
)

var ErrInvalidState = errors.New("invalid or expired sign-in state")

type SessionStore interface {
	Insert(ctx context.Context, sess *domain.Session) error
	GetByToken(ctx context.Context, token string, now time.Time) (domain.AuthSession, error)
	DeleteByToken(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type AccountStore interface {
	Upsert(ctx context.Context, a *domain.Account) error
}

type VerificationStore interface {
	Insert(ctx context.Context, v *domain.Verification) error
	Consume(ctx context.Context, identifier string, now time.Time) (domain.Verification, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type UserEnsurer interface {
	EnsureUser(ctx context.Context, p service.Profile) (domain.User, error)
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	SessionTTL   time.Duration
	// Endpoint and UserInfoURL default to Google's.
	Endpoint    oauth2.Endpoint
	UserInfoURL string
	HTTPClient  *http.Client
}

type Manager struct {
	sessions      SessionStore
	accounts      AccountStore
	verifications VerificationStore
	users         UserEnsurer
	tx            TransactionManager
	oauth         *oauth2.Config
	userInfoURL   string
	httpClient    *http.Client
	sessionTTL    time.Duration
	logger        *zap.Logger
	now           func() time.Time
}

func NewManager(
	cfg Config,
	sessions SessionStore,
	accounts AccountStore,
	verifications VerificationStore,
	users UserEnsurer,
	tx TransactionManager,
	logger *zap.Logger,
) *Manager {
	if cfg.Endpoint.AuthURL == "" {
		cfg.Endpoint = endpoints.Google
	}
	if cfg.UserInfoURL == "" {
		cfg.UserInfoURL = googleUserInfoURL
	}
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = 30 * 24 * time.Hour
	}
	return &Manager{
		sessions:      sessions,
		accounts:      accounts,
		verifications: verifications,
		users:         users,
		tx:            tx,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     cfg.Endpoint,
			Scopes:       []string{"openid", "email", "profile"},
		},
		userInfoURL: cfg.UserInfoURL,
		httpClient:  cfg.HTTPClient,
		sessionTTL:  cfg.SessionTTL,
		logger:      logger.Named("auth"),
		now:         time.Now,
	}
}

// AssertAuthenticated returns the session's user, or an authentication
// error when there is no active session.
func AssertAuthenticated(sess *domain.AuthSession) (domain.User, error) {
	if sess == nil || sess.User.ID == "" {
		return domain.User{}, domain.NewAuthenticationError()
	}
	return sess.User, nil
}

// GetSession resolves a session token. Unknown, expired or empty tokens
// yield nil without an error.
func (m *Manager) GetSession(ctx context.Context, token string) (*domain.AuthSession, error) {
	if token == "" {
		return nil, nil
	}
	sess, err := m.sessions.GetByToken(ctx, token, m.now())
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &sess, nil
}

// BeginSignIn stores a one-time state and returns the provider URL to send
// the browser to. redirectTo is where the user lands after sign-in.
func (m *Manager) BeginSignIn(ctx context.Context, redirectTo string) (string, error) {
	state, err := randomToken()
	if err != nil {
		return "", err
	}
	v := domain.Verification{
		ID:         uuid.NewString(),
		Identifier: stateIdentifierBase + state,
		Value:      redirectTo,
		ExpiresAt:  m.now().Add(stateTTL),
	}
	if err := m.verifications.Insert(ctx, &v); err != nil {
		return "", fmt.Errorf("store sign-in state: %w", err)
	}
	return m.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline), nil
}

// RequestMeta describes the browser that is signing in.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

type SignInResult struct {
	User       domain.User
	Token      string
	ExpiresAt  time.Time
	RedirectTo string
}

type googleUserInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// CompleteSignIn finishes the authorization-code flow: it checks state,
// exchanges code, then creates or refreshes the user, its account link
// and a new session in one transaction.
func (m *Manager) CompleteSignIn(ctx context.Context, state, code string, meta RequestMeta) (SignInResult, error) {
	if state == "" || code == "" {
		return SignInResult{}, ErrInvalidState
	}
	v, err := m.verifications.Consume(ctx, stateIdentifierBase+state, m.now())
	if errors.Is(err, domain.ErrNotFound) {
		return SignInResult{}, ErrInvalidState
	}
	if err != nil {
		return SignInResult{}, fmt.Errorf("check sign-in state: %w", err)
	}

	if m.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)
	}
	tok, err := m.oauth.Exchange(ctx, code)
	if err != nil {
		return SignInResult{}, fmt.Errorf("exchange code: %w", err)
	}
	info, err := m.fetchUserInfo(ctx, tok)
	if err != nil {
		return SignInResult{}, err
	}

	res := SignInResult{RedirectTo: v.Value}
	err = m.tx.WithTransaction(ctx, func(ctx context.Context) error {
		user, err := m.users.EnsureUser(ctx, service.Profile{
			Email:         info.Email,
			Name:          info.Name,
			Image:         info.Picture,
			EmailVerified: info.EmailVerified,
		})
		if err != nil {
			return err
		}

		acct := domain.Account{
			ID:           uuid.NewString(),
			AccountID:    info.Sub,
			ProviderID:   ProviderGoogle,
			UserID:       user.ID,
			AccessToken:  optional(tok.AccessToken),
			RefreshToken: optional(tok.RefreshToken),
			Scope:        optional(scopeOf(tok)),
		}
		if idToken, ok := tok.Extra("id_token").(string); ok {
			acct.IDToken = optional(idToken)
		}
		if !tok.Expiry.IsZero() {
			exp := tok.Expiry.UTC()
			acct.AccessTokenExpiresAt = &exp
		}
		if err := m.accounts.Upsert(ctx, &acct); err != nil {
			return err
		}

		token, err := randomToken()
		if err != nil {
			return err
		}
		sess := domain.Session{
			ID:        uuid.NewString(),
			Token:     token,
			ExpiresAt: m.now().Add(m.sessionTTL).UTC(),
			IPAddress: optional(meta.IPAddress),
			UserAgent: optional(meta.UserAgent),
			UserID:    user.ID,
		}
		if err := m.sessions.Insert(ctx, &sess); err != nil {
			return err
		}

		res.User = user
		res.Token = sess.Token
		res.ExpiresAt = sess.ExpiresAt
		return nil
	})
	if err != nil {
		return SignInResult{}, fmt.Errorf("complete sign-in: %w", err)
	}

	m.logger.Info("user signed in", zap.String("user_id", res.User.ID), zap.String("ip", meta.IPAddress))
	return res, nil
}

func (m *Manager) fetchUserInfo(ctx context.Context, tok *oauth2.Token) (googleUserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.userInfoURL, nil)
	if err != nil {
		return googleUserInfo{}, fmt.Errorf("build userinfo request: %w", err)
	}
	resp, err := m.oauth.Client(ctx, tok).Do(req)
	if err != nil {
		return googleUserInfo{}, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return googleUserInfo{}, fmt.Errorf("fetch userinfo: status %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return googleUserInfo{}, fmt.Errorf("decode userinfo: %w", err)
	}
	if info.Sub == "" || info.Email == "" {
		return googleUserInfo{}, errors.New("userinfo: missing subject or email")
	}
	return info, nil
}

// SignOut deletes the session behind token. Unknown tokens are ignored.
func (m *Manager) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := m.sessions.DeleteByToken(ctx, token); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

// PurgeExpired removes expired sessions and sign-in states.
func (m *Manager) PurgeExpired(ctx context.Context) error {
	now := m.now()
	sessions, err := m.sessions.DeleteExpired(ctx, now)
	if err != nil {
		return err
	}
	states, err := m.verifications.DeleteExpired(ctx, now)
	if err != nil {
		return err
	}
	if sessions > 0 || states > 0 {
		m.logger.Info("purged expired auth records",
			zap.Int64("sessions", sessions),
			zap.Int64("verifications", states),
		)
	}
	return nil
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func scopeOf(tok *oauth2.Token) string {
	s, _ := tok.Extra("scope").(string)
	return s
}
