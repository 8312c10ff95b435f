package editor

import "strings"

const (
	previewTitlePlaceholder       = "Your Article Title"
	previewDescriptionPlaceholder = "Your meta description will appear here. " +
		"Make it compelling to encourage clicks from search results."
)

// SearchPreview approximates how a story shows up in a search result.
type SearchPreview struct {
	URL         string `json:"url"`
	DisplayURL  string `json:"displayUrl"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Preview builds the search result card for f on the given host.
// Title and description are cut at the search engine display limits.
func Preview(f Form, host string) SearchPreview {
	if host == "" {
		host = "example.com"
	}
	p := SearchPreview{
		URL:         "https://" + host,
		DisplayURL:  host,
		Title:       truncate(f.Title, TitleLimit.Max),
		Description: truncate(f.Description, DescriptionLimit.Max),
	}
	if f.Slug != "" {
		p.URL += "/" + f.Slug
		p.DisplayURL += " › " + strings.ReplaceAll(f.Slug, "-", " ")
	}
	if p.Title == "" {
		p.Title = previewTitlePlaceholder
	}
	if p.Description == "" {
		p.Description = previewDescriptionPlaceholder
	}
	return p
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return strings.TrimRight(string(r[:max-1]), " ") + "…"
}
