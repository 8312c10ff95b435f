package storyboard

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/eringen/storyboard/internal/service"
	"github.com/eringen/storyboard/views"
)

// WebsiteJSONLD returns a JSON-LD WebSite document for the site.
func WebsiteJSONLD(site views.SiteConfig) string {
	data := map[string]any{
		"@context":    "https://schema.org",
		"@type":       "WebSite",
		"name":        site.Name,
		"url":         views.BuildURL(site.URL),
		"description": site.Description,
	}
	if site.Author != "" {
		data["author"] = map[string]string{"@type": "Person", "name": site.Author}
	}
	return marshalJSONLD(data)
}

// ArticleJSONLD returns a JSON-LD Article document for a story page.
func ArticleJSONLD(s service.SlugDTO, site views.SiteConfig) string {
	storyURL := views.BuildURL(site.URL, "story", s.CanonicalURL)
	data := map[string]any{
		"@context":      "https://schema.org",
		"@type":         "Article",
		"headline":      s.TitleOr(s.CanonicalURL),
		"datePublished": s.CreatedAt.UTC().Format(time.RFC3339),
		"dateModified":  s.UpdatedAt.UTC().Format(time.RFC3339),
		"url":           storyURL,
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   storyURL,
		},
	}
	if s.MetaDescription != nil {
		data["description"] = *s.MetaDescription
	}
	if s.OGImage != nil {
		data["image"] = *s.OGImage
	}
	if s.MetaKeywords != nil {
		data["keywords"] = *s.MetaKeywords
	}
	if s.Genre != nil {
		data["genre"] = *s.Genre
	}
	if author := authorName(s, site); author != "" {
		data["author"] = map[string]string{"@type": "Person", "name": author}
	}
	if site.Name != "" {
		data["publisher"] = map[string]string{"@type": "Organization", "name": site.Name}
	}
	return marshalJSONLD(data)
}

func authorName(s service.SlugDTO, site views.SiteConfig) string {
	switch {
	case s.Byline != nil && *s.Byline != "":
		return *s.Byline
	case s.Author.Name != "":
		return s.Author.Name
	}
	return site.Author
}

func marshalJSONLD(data map[string]any) string {
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// safeRedirect keeps post sign-in redirects on this site.
func safeRedirect(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}

// storyMeta builds the page metadata of a story, preferring the SEO fields
// over the plain ones.
func storyMeta(s service.SlugDTO, site views.SiteConfig) views.PageMeta {
	meta := views.PageMeta{
		Title:  s.TitleOr(s.CanonicalURL),
		URL:    views.BuildURL(site.URL, "story", s.CanonicalURL),
		OGType: "article",
		JSONLD: ArticleJSONLD(s, site),
	}
	if s.MetaTitle != nil && *s.MetaTitle != "" {
		meta.Title = *s.MetaTitle
	}
	switch {
	case s.MetaDescription != nil && *s.MetaDescription != "":
		meta.Description = *s.MetaDescription
	case s.ShortStory != nil:
		meta.Description = *s.ShortStory
	}
	if s.CanonicalLink != nil && *s.CanonicalLink != "" {
		meta.URL = *s.CanonicalLink
	}
	if s.OGImage != nil {
		meta.Image = *s.OGImage
	}
	return meta
}
