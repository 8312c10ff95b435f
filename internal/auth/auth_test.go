package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/eringen/storyboard/internal/domain"
	"github.com/eringen/storyboard/internal/service"
	"github.com/eringen/storyboard/internal/store"
)

type fakeGoogle struct {
	server *httptest.Server
	email  string
}

func newFakeGoogle(t *testing.T, email string) *fakeGoogle {
	t.Helper()
	g := &fakeGoogle{email: email}
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.Form.Get("code") != "good-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "access-1",
			"token_type":    "Bearer",
			"expires_in":    3600,
			"refresh_token": "refresh-1",
			"id_token":      "id-1",
			"scope":         "openid email profile",
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-1" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"sub":            "google-sub-1",
			"email":          g.email,
			"email_verified": true,
			"name":           "Test Writer",
			"picture":        "https://example.com/me.png",
		})
	})
	g.server = httptest.NewServer(mux)
	t.Cleanup(g.server.Close)
	return g
}

type fixture struct {
	db      *store.DB
	manager *Manager
	google  *fakeGoogle
}

func setup(t *testing.T, email string) fixture {
	t.Helper()
	ctx := context.Background()
	db, err := store.Open(ctx, store.DriverSQLite, filepath.Join(t.TempDir(), "auth.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	google := newFakeGoogle(t, email)
	users := service.NewUserService(store.NewUserStore(db), func(e string) bool {
		return e == "admin@example.com"
	}, zap.NewNop())
	m := NewManager(Config{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost/auth/google/callback",
		Endpoint: oauth2.Endpoint{
			AuthURL:   google.server.URL + "/auth",
			TokenURL:  google.server.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
		UserInfoURL: google.server.URL + "/userinfo",
		HTTPClient:  google.server.Client(),
		SessionTTL:  time.Hour,
	},
		store.NewSessionStore(db),
		store.NewAccountStore(db),
		store.NewVerificationStore(db),
		users,
		store.NewTransactionManager(db),
		zap.NewNop(),
	)
	return fixture{db: db, manager: m, google: google}
}

func stateFrom(t *testing.T, authURL string) string {
	t.Helper()
	u, err := url.Parse(authURL)
	if err != nil {
		t.Fatalf("parse auth url: %v", err)
	}
	state := u.Query().Get("state")
	if state == "" {
		t.Fatalf("auth url has no state: %s", authURL)
	}
	return state
}

func TestAssertAuthenticated(t *testing.T) {
	_, err := AssertAuthenticated(nil)
	if !domain.IsAuthenticationError(err) {
		t.Fatalf("expected authentication error, got %v", err)
	}
	var ae *domain.ActionError
	if !errors.As(err, &ae) || ae.Code != 401 || ae.Message != "You must be logged in to view this content" {
		t.Fatalf("unexpected error shape: %#v", err)
	}

	sess := &domain.AuthSession{User: domain.User{ID: "u1", Email: "a@example.com", Role: domain.RoleAdmin}}
	u, err := AssertAuthenticated(sess)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u != sess.User {
		t.Errorf("user changed: %+v", u)
	}
}

func TestSignInFlow(t *testing.T) {
	f := setup(t, "writer@example.com")
	ctx := context.Background()

	authURL, err := f.manager.BeginSignIn(ctx, "/admin/")
	if err != nil {
		t.Fatalf("BeginSignIn: %v", err)
	}
	state := stateFrom(t, authURL)

	res, err := f.manager.CompleteSignIn(ctx, state, "good-code", RequestMeta{IPAddress: "203.0.113.5", UserAgent: "test"})
	if err != nil {
		t.Fatalf("CompleteSignIn: %v", err)
	}
	if res.RedirectTo != "/admin/" || res.Token == "" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.User.Email != "writer@example.com" || res.User.Role != domain.RoleUser {
		t.Errorf("unexpected user: %+v", res.User)
	}

	sess, err := f.manager.GetSession(ctx, res.Token)
	if err != nil || sess == nil {
		t.Fatalf("GetSession = %v, %v", sess, err)
	}
	if sess.User.ID != res.User.ID || sess.Session.IPAddress == nil || *sess.Session.IPAddress != "203.0.113.5" {
		t.Errorf("unexpected session: %+v", sess)
	}

	acct, err := store.NewAccountStore(f.db).GetByProvider(ctx, ProviderGoogle, "google-sub-1")
	if err != nil {
		t.Fatalf("account not linked: %v", err)
	}
	if acct.RefreshToken == nil || *acct.RefreshToken != "refresh-1" || acct.IDToken == nil {
		t.Errorf("tokens not stored: %+v", acct)
	}

	if _, err := f.manager.CompleteSignIn(ctx, state, "good-code", RequestMeta{}); err != ErrInvalidState {
		t.Errorf("state reuse: expected ErrInvalidState, got %v", err)
	}

	if err := f.manager.SignOut(ctx, res.Token); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if sess, _ := f.manager.GetSession(ctx, res.Token); sess != nil {
		t.Errorf("session survived sign out")
	}
}

func TestSignInAdminEmail(t *testing.T) {
	f := setup(t, "admin@example.com")
	ctx := context.Background()

	authURL, err := f.manager.BeginSignIn(ctx, "/")
	if err != nil {
		t.Fatalf("BeginSignIn: %v", err)
	}
	res, err := f.manager.CompleteSignIn(ctx, stateFrom(t, authURL), "good-code", RequestMeta{})
	if err != nil {
		t.Fatalf("CompleteSignIn: %v", err)
	}
	if !res.User.IsAdmin() {
		t.Errorf("expected admin role, got %q", res.User.Role)
	}
}

func TestCompleteSignInRejectsUnknownState(t *testing.T) {
	f := setup(t, "writer@example.com")
	if _, err := f.manager.CompleteSignIn(context.Background(), "forged", "good-code", RequestMeta{}); err != ErrInvalidState {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestCompleteSignInBadCode(t *testing.T) {
	f := setup(t, "writer@example.com")
	ctx := context.Background()
	authURL, _ := f.manager.BeginSignIn(ctx, "/")

	if _, err := f.manager.CompleteSignIn(ctx, stateFrom(t, authURL), "bad-code", RequestMeta{}); err == nil {
		t.Fatal("expected exchange error")
	}
	var count int
	if err := f.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users`); err != nil {
		t.Fatalf("count users: %v", err)
	}
	if count != 0 {
		t.Errorf("no user should be created, got %d", count)
	}
}

func TestGetSessionEmptyAndUnknown(t *testing.T) {
	f := setup(t, "writer@example.com")
	ctx := context.Background()
	for _, token := range []string{"", "missing"} {
		sess, err := f.manager.GetSession(ctx, token)
		if err != nil || sess != nil {
			t.Errorf("GetSession(%q) = %v, %v", token, sess, err)
		}
	}
}

func TestPurgeExpired(t *testing.T) {
	f := setup(t, "writer@example.com")
	ctx := context.Background()
	authURL, _ := f.manager.BeginSignIn(ctx, "/")
	res, err := f.manager.CompleteSignIn(ctx, stateFrom(t, authURL), "good-code", RequestMeta{})
	if err != nil {
		t.Fatalf("CompleteSignIn: %v", err)
	}
	if _, err := f.manager.BeginSignIn(ctx, "/"); err != nil {
		t.Fatalf("BeginSignIn: %v", err)
	}

	f.manager.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if err := f.manager.PurgeExpired(ctx); err != nil {
		t.Fatalf("PurgeExpired: %v", err)
	}

	f.manager.now = time.Now
	if sess, _ := f.manager.GetSession(ctx, res.Token); sess != nil {
		t.Error("expired session should have been purged")
	}
	var states int
	if err := f.db.GetContext(ctx, &states, `SELECT COUNT(*) FROM verifications`); err != nil {
		t.Fatalf("count verifications: %v", err)
	}
	if states != 0 {
		t.Errorf("expected verifications purged, %d left", states)
	}
}
