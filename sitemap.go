package storyboard

import (
	"encoding/xml"

	"github.com/labstack/echo/v4"

	"github.com/eringen/storyboard/internal/service"
	"github.com/eringen/storyboard/views"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

func (a *App) renderSitemap(c echo.Context, slugs []service.SlugDTO, categories []service.CategoryDTO) error {
	base := a.Config.AppURL
	urls := []sitemapURL{{Loc: views.BuildURL(base)}}
	for _, cat := range categories {
		urls = append(urls, sitemapURL{Loc: views.BuildURL(base, "category", cat.CanonicalURL)})
	}
	for _, s := range slugs {
		urls = append(urls, sitemapURL{
			Loc:     views.BuildURL(base, "story", s.CanonicalURL),
			LastMod: s.UpdatedAt.UTC().Format("2006-01-02"),
		})
	}
	return renderXML(c, "application/xml; charset=utf-8", sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	})
}
