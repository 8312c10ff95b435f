package storyboard

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/storyboard/internal/domain"
	"github.com/eringen/storyboard/views"
)

const relatedStories = 3

func (a *App) handleHome(c echo.Context) error {
	ctx := c.Request().Context()
	slugs, err := a.Cache.Published(ctx, 0)
	if err != nil {
		return err
	}
	categories, err := a.Cache.Categories(ctx)
	if err != nil {
		return err
	}
	site := a.site()
	meta := views.PageMeta{
		Description: site.Description,
		URL:         views.BuildURL(site.URL),
		OGType:      "website",
		JSONLD:      WebsiteJSONLD(site),
	}
	return Render(c, a.Views.Home(views.HomePage{
		Page:       a.page(c, meta),
		Slugs:      slugs,
		Categories: categories,
	}))
}

func (a *App) handleCategory(c echo.Context) error {
	ctx := c.Request().Context()
	cat, err := a.Cache.Category(ctx, c.Param("url"))
	if err != nil {
		return err
	}
	slugs, err := a.Cache.Published(ctx, cat.ID)
	if err != nil {
		return err
	}
	categories, err := a.Cache.Categories(ctx)
	if err != nil {
		return err
	}
	site := a.site()
	meta := views.PageMeta{
		Title:       cat.Name,
		Description: fmt.Sprintf("%s stories on %s", cat.Name, site.Name),
		URL:         views.BuildURL(site.URL, "category", cat.CanonicalURL),
		OGType:      "website",
	}
	return Render(c, a.Views.Home(views.HomePage{
		Page:       a.page(c, meta),
		Slugs:      slugs,
		Categories: categories,
		Active:     cat.CanonicalURL,
	}))
}

func (a *App) handleStory(c echo.Context) error {
	ctx := c.Request().Context()
	story, err := a.Cache.Story(ctx, c.Param("url"))
	if err != nil {
		return err
	}
	siblings, err := a.Cache.Published(ctx, story.CategoryID)
	if err != nil {
		return err
	}
	return Render(c, a.Views.Story(views.StoryPage{
		Page:    a.page(c, storyMeta(story, a.site())),
		Slug:    story,
		Related: views.Related(story, siblings, relatedStories),
	}))
}

func (a *App) handleSitemap(c echo.Context) error {
	ctx := c.Request().Context()
	slugs, err := a.Cache.Published(ctx, 0)
	if err != nil {
		return err
	}
	categories, err := a.Cache.Categories(ctx)
	if err != nil {
		return err
	}
	return a.renderSitemap(c, slugs, categories)
}

func (a *App) handleFeed(c echo.Context) error {
	slugs, err := a.Cache.Published(c.Request().Context(), 0)
	if err != nil {
		return err
	}
	return a.renderRSS(c, slugs)
}

func (a *App) handleRobots(c echo.Context) error {
	body := "User-agent: *\nAllow: /\nDisallow: /admin/\nDisallow: /api/\nDisallow: /auth/\n\n" +
		"Sitemap: " + a.Config.AppURL + "/sitemap.xml\n"
	return c.String(http.StatusOK, body)
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	if errors.Is(err, domain.ErrNotFound) {
		err = echo.ErrNotFound
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound(a.page(c, views.PageMeta{Title: "Not found"})))
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		a.Logger.Error("server error", zap.String("uri", c.Request().RequestURI), zap.Error(err))
		_ = RenderStatus(c, code, a.Views.ServerError(a.page(c, views.PageMeta{Title: "Error"})))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
