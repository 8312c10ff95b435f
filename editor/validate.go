package editor

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"unicode/utf8"
)

// Errors maps a form field name to its first validation message.
type Errors map[string]string

func (e Errors) add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

// Fields returns the failing field names in sorted order.
func (e Errors) Fields() []string {
	out := make([]string, 0, len(e))
	for k := range e {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

type rule struct {
	field    string
	label    string
	min, max int
	required bool
	slug     bool
	url      bool
}

var rules = []rule{
	{field: FieldTitle, label: "Title", min: 30, max: 60, required: true},
	{field: FieldDescription, label: "Description", min: 120, max: 160, required: true},
	{field: FieldKeywords, label: "Keywords", max: 200},
	{field: FieldAuthor, label: "Author name", max: 100},
	{field: FieldSlug, label: "Slug", max: 75, required: true, slug: true},
	{field: FieldOGTitle, label: "OG Title", max: 60},
	{field: FieldOGDescription, label: "OG Description", max: 160},
	{field: FieldOGImage, label: "OG Image", url: true},
	{field: FieldCanonicalURL, label: "Canonical URL", url: true},
	{field: FieldStorySummary, label: "Story summary", min: 50, max: 300, required: true},
	{field: FieldStorySlug, label: "Story slug", max: 100, required: true, slug: true},
	{field: FieldGenre, label: "Genre", max: 50},
	{field: FieldReadingTime, label: "Reading time", max: 20},
}

// Validate checks every field of f and returns the failures, or an empty
// map when the form is valid.
func Validate(f Form) Errors {
	errs := Errors{}
	for _, r := range rules {
		v := f.Value(r.field)
		n := utf8.RuneCountInString(v)
		switch {
		case r.min > 0 && n < r.min:
			errs.add(r.field, fmt.Sprintf("%s must be at least %d characters", r.label, r.min))
		case r.max > 0 && n > r.max:
			errs.add(r.field, fmt.Sprintf("%s must not exceed %d characters", r.label, r.max))
		}
		if r.slug && !IsSlug(v) {
			errs.add(r.field, r.label+" can only contain lowercase letters, numbers, and hyphens")
		}
		if r.required && strings.TrimSpace(v) == "" {
			errs.add(r.field, r.label+" is required")
		}
		if r.url && v != "" && !IsURL(v) {
			errs.add(r.field, "Must be a valid URL")
		}
	}
	if f.Content == "" {
		errs.add(FieldContent, "Content is required")
	}
	return errs
}

// IsURL reports whether s parses as an absolute URL.
func IsURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" {
		return false
	}
	return u.Host != "" || u.Opaque != ""
}
