package storyboard

import (
	"encoding/xml"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/storyboard/internal/service"
	"github.com/eringen/storyboard/markdown"
	"github.com/eringen/storyboard/views"
)

const feedSummaryRunes = 280

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	LastBuildDate string    `xml:"lastBuildDate,omitempty"`
	Items         []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string  `xml:"title"`
	Link        string  `xml:"link"`
	Description string  `xml:"description"`
	Author      string  `xml:"author,omitempty"`
	Category    string  `xml:"category,omitempty"`
	PubDate     string  `xml:"pubDate"`
	GUID        rssGUID `xml:"guid"`
}

type rssGUID struct {
	IsPermaLink bool   `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

func (a *App) renderRSS(c echo.Context, slugs []service.SlugDTO) error {
	base := a.Config.AppURL
	items := make([]rssItem, 0, len(slugs))
	for _, s := range slugs {
		link := views.BuildURL(base, "story", s.CanonicalURL)
		item := rssItem{
			Title:       s.TitleOr(s.CanonicalURL),
			Link:        link,
			Description: feedSummary(s),
			PubDate:     s.CreatedAt.UTC().Format(time.RFC1123Z),
			GUID:        rssGUID{IsPermaLink: true, Value: link},
		}
		if s.Byline != nil {
			item.Author = *s.Byline
		}
		if s.Category != nil {
			item.Category = s.Category.Name
		}
		items = append(items, item)
	}
	channel := rssChannel{
		Title:       a.Config.Site.Name,
		Link:        views.BuildURL(base),
		Description: a.Config.Site.Description,
		Items:       items,
	}
	if len(slugs) > 0 {
		channel.LastBuildDate = slugs[0].UpdatedAt.UTC().Format(time.RFC1123Z)
	}
	return renderXML(c, "application/rss+xml; charset=utf-8", rssXML{Version: "2.0", Channel: channel})
}

// feedSummary prefers the short story and falls back to the start of the
// story body as plain text.
func feedSummary(s service.SlugDTO) string {
	if s.ShortStory != nil && *s.ShortStory != "" {
		return *s.ShortStory
	}
	if s.FullStory == nil {
		return ""
	}
	text := []rune(markdown.PlainText(*s.FullStory))
	if len(text) <= feedSummaryRunes {
		return string(text)
	}
	return string(text[:feedSummaryRunes]) + "…"
}
