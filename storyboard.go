// Package storyboard is a story and SEO publishing app built with Go, Echo
// and templ. It serves the public site, the admin editor, Google sign-in
// and the JSON action endpoints on top of the internal service layer.
//
// Pages are rendered through the ViewFuncs struct. DefaultViews supplies a
// complete set; callers may replace any component with their own.
package storyboard

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/a-h/templ"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/storyboard/editor"
	"github.com/eringen/storyboard/internal/auth"
	"github.com/eringen/storyboard/internal/config"
	"github.com/eringen/storyboard/internal/objectstore"
	"github.com/eringen/storyboard/internal/service"
	"github.com/eringen/storyboard/views"
)

// ViewFuncs holds the templ components the app renders pages with.
type ViewFuncs struct {
	Home        func(views.HomePage) templ.Component
	Story       func(views.StoryPage) templ.Component
	SignIn      func(views.SignInPage) templ.Component
	Dashboard   func(views.DashboardPage) templ.Component
	Editor      func(views.EditorPage) templ.Component
	EditorPanel func(editor.State) templ.Component
	NotFound    func(views.Page) templ.Component
	ServerError func(views.Page) templ.Component
}

// DefaultViews returns the components of the views package.
func DefaultViews() ViewFuncs {
	return ViewFuncs{
		Home:        views.Home,
		Story:       views.Story,
		SignIn:      views.SignIn,
		Dashboard:   views.Dashboard,
		Editor:      views.Editor,
		EditorPanel: views.EditorPanel,
		NotFound:    views.NotFound,
		ServerError: views.ServerError,
	}
}

// Services are the domain operations the app exposes.
type Services struct {
	Slugs      *service.SlugService
	Users      *service.UserService
	Categories *service.CategoryService
	Feedback   *service.FeedbackService
	Auth       *auth.Manager
}

// App wires the services, cache, limiter, image store, middleware and routes
// together.
type App struct {
	Config   *config.Config
	Echo     *echo.Echo
	Services Services
	Cache    *SlugCache
	Limiter  Limiter
	Views    ViewFuncs
	Images   objectstore.Store
	Logger   *zap.Logger

	actions      map[string]Action
	sessionStore *sessions.CookieStore
	customRoutes []func(*App)
	staticDir    string
	host         string
	clock        func() time.Time
}

// New builds an App with routes registered. The returned app can serve
// requests through Echo.ServeHTTP before Start is called.
func New(cfg *config.Config, svc Services, logger *zap.Logger, opts ...Option) *App {
	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		Services:  svc,
		Cache:     NewSlugCache(svc.Slugs, svc.Categories, cfg.CacheTTL),
		Limiter:   NewRateLimiter(cfg.RateLimit.Max, cfg.RateLimit.Window),
		Views:     DefaultViews(),
		Images:    objectstore.NewLocal(cfg.Storage.UploadDir, cfg.Storage.ImageBaseURL),
		Logger:    logger.Named("http"),
		actions:   make(map[string]Action),
		staticDir: "public",
	}
	if u, err := url.Parse(cfg.AppURL); err == nil {
		a.host = u.Host
	}
	a.Echo.HideBanner = true
	a.Echo.HidePort = true

	for _, act := range a.defaultActions() {
		a.RegisterAction(act)
	}
	for _, opt := range opts {
		opt(a)
	}
	if c, ok := a.Limiter.(interface{ setClock(func() time.Time) }); ok && a.clock != nil {
		c.setClock(a.clock)
	}

	a.sessionStore = a.newSessionStore()
	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	return a
}

// Start serves HTTP on the configured address until Shutdown is called.
func (a *App) Start() error {
	a.Logger.Info("listening", zap.String("addr", a.Config.Addr), zap.String("env", a.Config.Env))
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.GET("/public/editor.js", echo.WrapHandler(http.StripPrefix("/public/", http.FileServer(http.FS(assetsFS())))))
	e.Static("/public", a.staticDir)
	e.Static("/uploads", a.Config.Storage.UploadDir)

	e.GET("/robots.txt", a.handleRobots)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/", a.handleHome)
	e.GET("/category/:url/", a.handleCategory)
	e.GET("/story/:url/", a.handleStory)

	e.GET("/auth/sign-in", a.handleSignInPage)
	e.GET("/auth/google", a.handleGoogleSignIn)
	e.GET("/auth/google/callback", a.handleGoogleCallback)
	e.POST("/auth/sign-out", a.handleSignOut)

	admin := e.Group("/admin", a.requireAdmin)
	admin.GET("/", a.handleDashboard)
	admin.GET("/editor/", a.handleEditorNew)
	admin.GET("/editor/:id/", a.handleEditorEdit)
	admin.POST("/editor/derive/", a.handleEditorDerive)
	admin.POST("/editor/save/", a.handleEditorSave)
	admin.POST("/images/upload/", a.handleImageUpload)

	e.POST("/api/actions/:name", a.handleAction)
}

func (a *App) site() views.SiteConfig {
	return views.SiteConfig{
		Name:        a.Config.Site.Name,
		URL:         a.Config.AppURL,
		Description: a.Config.Site.Description,
		Author:      a.Config.Site.Author,
	}
}

// page fills the fields every page shares.
func (a *App) page(c echo.Context, meta views.PageMeta) views.Page {
	p := views.Page{Site: a.site(), Meta: meta, CSRF: CsrfToken(c)}
	if user, ok := CurrentUser(c); ok {
		v := &views.Viewer{Name: user.Name, Email: user.Email, Admin: user.IsAdmin()}
		if user.Image != nil {
			v.Image = *user.Image
		}
		p.Viewer = v
	}
	return p
}
