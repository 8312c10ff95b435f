package storyboard

import (
	"time"

	"github.com/eringen/storyboard/internal/objectstore"
)

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback runs after the built-in routes are registered.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for user-owned static assets (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// WithViews replaces the page components.
func WithViews(v ViewFuncs) Option {
	return func(a *App) {
		a.Views = v
	}
}

// WithAction registers an extra action, replacing any with the same name.
func WithAction(act Action) Option {
	return func(a *App) {
		a.RegisterAction(act)
	}
}

// WithClock makes the rate limiter read time from now.
func WithClock(now func() time.Time) Option {
	return func(a *App) {
		a.clock = now
	}
}

// WithLimiter replaces the in-process rate limiter, typically with a
// RedisLimiter shared by every instance.
func WithLimiter(l Limiter) Option {
	return func(a *App) {
		a.Limiter = l
	}
}

// WithImageStore sets where uploaded images are written.
func WithImageStore(s objectstore.Store) Option {
	return func(a *App) {
		a.Images = s
	}
}
