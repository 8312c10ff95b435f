package editor

import (
	"regexp"
	"strings"
)

const storySlugMaxLen = 100

// space matches what browsers treat as whitespace, Unicode separators and
// the byte order mark included.
const space = `\s\v\p{Z}\x{FEFF}`

var (
	reSlugStrip  = regexp.MustCompile(`[^a-z0-9` + space + `-]`)
	reWhitespace = regexp.MustCompile(`[` + space + `]+`)
	reHyphens    = regexp.MustCompile(`-+`)
	reSlugChars  = regexp.MustCompile(`^[a-z0-9-]*$`)
)

// GenerateSlug turns a title into a URL slug: "Hello, World!!" -> "hello-world".
func GenerateSlug(title string) string {
	s := strings.ToLower(title)
	s = reSlugStrip.ReplaceAllString(s, "")
	s = reWhitespace.ReplaceAllString(s, "-")
	s = reHyphens.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// GenerateStorySlug is GenerateSlug capped at 100 characters.
func GenerateStorySlug(title string) string {
	s := GenerateSlug(title)
	if len(s) > storySlugMaxLen {
		s = s[:storySlugMaxLen]
	}
	return s
}

// IsSlug reports whether s only holds lowercase letters, digits and hyphens.
func IsSlug(s string) bool {
	return reSlugChars.MatchString(s)
}
