package service

import (
	"strconv"

	"github.com/eringen/storyboard/editor"
)

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// InputFromForm maps the editor's fields onto slug columns.
func InputFromForm(f editor.Form) SlugInput {
	in := SlugInput{
		ID:              f.ID,
		Title:           optional(f.Title),
		MetaDescription: optional(f.Description),
		MetaKeywords:    optional(f.Keywords),
		Byline:          optional(f.Author),
		CanonicalURL:    f.Slug,
		MetaTitle:       optional(f.OGTitle),
		OGDescription:   optional(f.OGDescription),
		OGImage:         optional(f.OGImage),
		CanonicalLink:   optional(f.CanonicalURL),
		ShortStory:      optional(f.StorySummary),
		StorySlug:       optional(f.StorySlug),
		FullStory:       optional(f.Content),
		Genre:           optional(f.Genre),
		Published:       f.Published,
		CategoryID:      f.CategoryID,
	}
	if n, ok := editor.ParseReadingTime(f.ReadingTime); ok {
		in.ReadingTime = &n
	}
	return in
}

// FormFromSlug loads a stored slug back into the editor.
func FormFromSlug(d SlugDTO) editor.Form {
	f := editor.Form{
		ID:            d.ID,
		CategoryID:    d.CategoryID,
		Title:         deref(d.Title),
		Description:   deref(d.MetaDescription),
		Keywords:      deref(d.MetaKeywords),
		Author:        deref(d.Byline),
		Slug:          d.CanonicalURL,
		OGTitle:       deref(d.MetaTitle),
		OGDescription: deref(d.OGDescription),
		OGImage:       deref(d.OGImage),
		CanonicalURL:  deref(d.CanonicalLink),
		StorySummary:  deref(d.ShortStory),
		StorySlug:     deref(d.StorySlug),
		Content:       deref(d.FullStory),
		Genre:         deref(d.Genre),
		Published:     d.Published,
		PrevPublished: d.Published,
	}
	if d.ReadingTime != nil {
		f.ReadingTime = strconv.Itoa(*d.ReadingTime) + " min read"
	}
	return f
}
