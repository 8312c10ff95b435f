package views

import (
	"github.com/eringen/storyboard/editor"
	"github.com/eringen/storyboard/internal/service"
)

// SiteConfig holds site-wide settings. Every page carries it so nothing is
// hardcoded in templates.
type SiteConfig struct {
	Name        string
	URL         string
	Description string
	Author      string
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head>.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	Image       string
	JSONLD      string
}

// Viewer is the signed-in user, if any.
type Viewer struct {
	Name  string
	Email string
	Image string
	Admin bool
}

// Page is embedded by every page model.
type Page struct {
	Site   SiteConfig
	Meta   PageMeta
	Viewer *Viewer
	CSRF   string
}

type HomePage struct {
	Page
	Slugs      []service.SlugDTO
	Categories []service.CategoryDTO
	Active     string // canonical URL of the selected category
}

type StoryPage struct {
	Page
	Slug    service.SlugDTO
	Related []service.SlugDTO
}

type EditorPage struct {
	Page
	State      editor.State
	Categories []service.CategoryDTO
	Message    string
}

type DashboardPage struct {
	Page
	Slugs    []service.SlugDTO
	Feedback []service.FeedbackDTO
	Message  string
}

type SignInPage struct {
	Page
	Next  string
	Error string
}
