package storyboard

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/storyboard/internal/auth"
	"github.com/eringen/storyboard/internal/config"
	"github.com/eringen/storyboard/internal/domain"
	"github.com/eringen/storyboard/internal/publisher"
	"github.com/eringen/storyboard/internal/service"
	"github.com/eringen/storyboard/internal/store"
)

const testAppURL = "http://blog.example.com"

type fixture struct {
	t        *testing.T
	app      *App
	db       *store.DB
	clock    *fakeClock
	category service.CategoryDTO
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Env:    config.EnvTest,
		Addr:   ":0",
		AppURL: testAppURL,
		Site: config.SiteConfig{
			Name:        "Test Blog",
			Description: "Stories for tests",
			Author:      "Tester",
		},
		Storage: config.StorageConfig{
			UploadDir:    t.TempDir(),
			ImageBaseURL: testAppURL + "/uploads",
		},
		RateLimit:   config.RateLimitConfig{Max: 5, Window: 10 * time.Second},
		Session:     config.SessionConfig{Secret: "0123456789abcdef0123456789abcdef", MaxAge: time.Hour},
		AdminEmails: []string{"admin@example.com"},
		CacheTTL:    time.Minute,
	}
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	ctx := context.Background()
	db, err := store.Open(ctx, store.DriverSQLite, filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	cfg := testConfig(t)
	logger := zap.NewNop()
	users := service.NewUserService(store.NewUserStore(db), cfg.IsAdminEmail, logger)
	svc := Services{
		Slugs:      service.NewSlugService(store.NewSlugStore(db), publisher.Nop{}, logger),
		Users:      users,
		Categories: service.NewCategoryService(store.NewCategoryStore(db), logger),
		Feedback:   service.NewFeedbackService(store.NewFeedbackStore(db), logger),
		Auth: auth.NewManager(auth.Config{ClientID: "client", ClientSecret: "secret", RedirectURL: testAppURL + "/auth/google/callback"},
			store.NewSessionStore(db),
			store.NewAccountStore(db),
			store.NewVerificationStore(db),
			users,
			store.NewTransactionManager(db),
			logger,
		),
	}

	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	app := New(cfg, svc, logger, append([]Option{WithClock(clock.now), WithStaticDir(t.TempDir())}, opts...)...)

	cat, err := svc.Categories.CreateCategory(ctx, service.CategoryInput{Name: "Travel", CanonicalURL: "travel"})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	return &fixture{t: t, app: app, db: db, clock: clock, category: cat}
}

// signIn creates the user with email and returns a cookie carrying a fresh
// session token.
func (f *fixture) signIn(email string) (domain.User, *http.Cookie) {
	f.t.Helper()
	ctx := context.Background()
	user, err := f.app.Services.Users.EnsureUser(ctx, service.Profile{Email: email, Name: strings.Split(email, "@")[0]})
	if err != nil {
		f.t.Fatalf("ensure user: %v", err)
	}
	token := uuid.NewString()
	err = store.NewSessionStore(f.db).Insert(ctx, &domain.Session{
		ID:        uuid.NewString(),
		Token:     token,
		ExpiresAt: time.Now().Add(time.Hour),
		UserID:    user.ID,
	})
	if err != nil {
		f.t.Fatalf("insert session: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	sess, err := f.app.sessionStore.Get(req, sessionName)
	if err != nil {
		f.t.Fatalf("get session: %v", err)
	}
	sess.Values[sessionTokenKey] = token
	if err := sess.Save(req, rec); err != nil {
		f.t.Fatalf("save session: %v", err)
	}
	return user, rec.Result().Cookies()[0]
}

// publish stores a published story by author.
func (f *fixture) publish(author domain.User, url, title string) service.SlugDTO {
	f.t.Helper()
	in := publishableInput(f.category.ID, url, title)
	in.AuthorID = author.ID
	sl, err := f.app.Services.Slugs.SaveSlug(context.Background(), in)
	if err != nil {
		f.t.Fatalf("save slug: %v", err)
	}
	f.app.Cache.Invalidate()
	return service.NewSlugDTO(sl)
}

func strPtr(s string) *string { return &s }

func publishableInput(categoryID int64, url, title string) service.SlugInput {
	return service.SlugInput{
		Title:           strPtr(title),
		MetaDescription: strPtr(strings.Repeat("A description that is long enough for search. ", 3)),
		ShortStory:      strPtr("A short story summary that easily clears fifty characters."),
		FullStory:       strPtr("# Heading\n\nThe **full** story."),
		StorySlug:       strPtr(url),
		CanonicalURL:    url,
		CategoryID:      categoryID,
		Published:       true,
	}
}

func (f *fixture) do(req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		if c != nil {
			req.AddCookie(c)
		}
	}
	rec := httptest.NewRecorder()
	f.app.Echo.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) get(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	return f.do(httptest.NewRequest(http.MethodGet, path, nil), cookies...)
}

type actionResponse struct {
	Data  json.RawMessage `json:"data"`
	Error *ErrorBody      `json:"error"`
}

func (f *fixture) action(name string, input any, cookies ...*http.Cookie) (int, actionResponse) {
	f.t.Helper()
	var body []byte
	if input != nil {
		var err error
		if body, err = json.Marshal(input); err != nil {
			f.t.Fatalf("marshal input: %v", err)
		}
	}
	return f.rawAction(name, bytes.NewReader(body), cookies...)
}

func (f *fixture) rawAction(name string, body io.Reader, cookies ...*http.Cookie) (int, actionResponse) {
	f.t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/actions/"+name, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := f.do(req, cookies...)
	var out actionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		f.t.Fatalf("decode %s response %q: %v", name, rec.Body.String(), err)
	}
	return rec.Code, out
}

// csrf fetches a page so the CSRF middleware issues its cookie.
func (f *fixture) csrf(cookies ...*http.Cookie) *http.Cookie {
	f.t.Helper()
	rec := f.get("/", cookies...)
	for _, c := range rec.Result().Cookies() {
		if c.Name == "_csrf" {
			return c
		}
	}
	f.t.Fatal("no _csrf cookie issued")
	return nil
}

func (f *fixture) postForm(path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	f.t.Helper()
	token := f.csrf(cookies...)
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	req.Header.Set("X-CSRF-Token", token.Value)
	return f.do(req, append(cookies, token)...)
}

func newPost(path string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, nil)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return req
}
