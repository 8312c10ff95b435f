package views

import (
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/eringen/storyboard/internal/service"
)

// BuildURL joins path segments onto a base URL, ensuring a trailing slash.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// StoryPath is the site-relative path of a story page.
func StoryPath(canonicalURL string) string {
	return "/story/" + url.PathEscape(canonicalURL) + "/"
}

func CategoryPath(canonicalURL string) string {
	return "/category/" + url.PathEscape(canonicalURL) + "/"
}

// Related returns up to max other published slugs from the same category.
func Related(current service.SlugDTO, slugs []service.SlugDTO, max int) []service.SlugDTO {
	var related []service.SlugDTO
	for _, s := range slugs {
		if len(related) == max {
			break
		}
		if s.ID == current.ID || s.CategoryID != current.CategoryID {
			continue
		}
		related = append(related, s)
	}
	return related
}

// CategoryClass returns CSS classes for a category pill, with active variant.
func CategoryClass(active bool) string {
	base := "inline-flex items-center rounded border px-2.5 py-1 text-xs font-semibold uppercase tracking-wide"
	if active {
		base += " bg-ink text-white"
	}
	return base
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("January 2, 2006")
}
