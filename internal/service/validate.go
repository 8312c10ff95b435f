package service

import (
	"net/mail"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/eringen/storyboard/editor"
	"github.com/eringen/storyboard/internal/domain"
)

type checker struct {
	err domain.ValidationError
}

func newChecker(entity string) *checker {
	return &checker{err: domain.ValidationError{Entity: entity}}
}

func (c *checker) required(field, v string) {
	if strings.TrimSpace(v) == "" {
		c.err.Add(field, "is required")
	}
}

func (c *checker) maxLen(field string, v *string, max int) {
	if v != nil && utf8.RuneCountInString(*v) > max {
		c.err.Add(field, "must not exceed "+strconv.Itoa(max)+" characters")
	}
}

func (c *checker) minLen(field string, v *string, min int) {
	if v == nil || utf8.RuneCountInString(*v) < min {
		c.err.Add(field, "must be at least "+strconv.Itoa(min)+" characters")
	}
}

func (c *checker) slug(field, v string) {
	if !editor.IsSlug(v) {
		c.err.Add(field, "can only contain lowercase letters, numbers, and hyphens")
	}
}

func (c *checker) url(field string, v *string) {
	if v != nil && *v != "" && !editor.IsURL(*v) {
		c.err.Add(field, "must be a valid URL")
	}
}

func (c *checker) check(field string, ok bool, msg string) {
	if !ok {
		c.err.Add(field, msg)
	}
}

func (c *checker) result() error {
	return c.err.OrNil()
}

// validateSlugInput enforces the column limits of every write. A slug that
// is published must also meet the editor's minimum lengths.
func validateSlugInput(in SlugInput) error {
	c := newChecker("slug")
	c.required("canonicalUrl", in.CanonicalURL)
	c.maxLen("canonicalUrl", &in.CanonicalURL, 75)
	c.slug("canonicalUrl", in.CanonicalURL)
	c.check("categoryId", in.CategoryID > 0, "is required")
	c.required("authorId", in.AuthorID)
	c.maxLen("title", in.Title, 60)
	c.maxLen("metaDescription", in.MetaDescription, 160)
	c.maxLen("metaKeywords", in.MetaKeywords, 200)
	c.maxLen("metaTitle", in.MetaTitle, 60)
	c.maxLen("ogDescription", in.OGDescription, 160)
	c.maxLen("shortStory", in.ShortStory, 300)
	c.maxLen("storySlug", in.StorySlug, 100)
	if in.StorySlug != nil {
		c.slug("storySlug", *in.StorySlug)
	}
	c.maxLen("genre", in.Genre, 50)
	c.maxLen("byline", in.Byline, 100)
	c.url("ogImage", in.OGImage)
	c.url("canonicalLink", in.CanonicalLink)
	if in.ReadingTime != nil {
		c.check("readingTime", *in.ReadingTime >= 0, "must not be negative")
	}

	if in.Published {
		c.minLen("title", in.Title, 30)
		c.minLen("metaDescription", in.MetaDescription, 120)
		c.minLen("shortStory", in.ShortStory, 50)
		c.required("storySlug", deref(in.StorySlug))
		c.required("fullStory", deref(in.FullStory))
	}
	return c.result()
}

// validateSlugRow checks a row read back from storage.
func validateSlugRow(sl domain.Slug) error {
	c := newChecker("slug")
	c.check("id", sl.ID > 0, "must be positive")
	c.required("canonicalUrl", sl.CanonicalURL)
	c.required("authorId", sl.AuthorID)
	c.check("categoryId", sl.CategoryID > 0, "must be positive")
	if sl.ReadingTime != nil {
		c.check("readingTime", *sl.ReadingTime >= 0, "must not be negative")
	}
	if sl.Author != nil {
		c.required("author.login", sl.Author.Login)
	}
	return c.result()
}

func validateUserRow(u domain.User) error {
	c := newChecker("user")
	c.required("id", u.ID)
	c.required("name", u.Name)
	c.check("role", u.Role.Valid(), "must be user or admin")
	c.check("email", validEmail(u.Email), "must be a valid email")
	c.required("login", u.Login)
	c.check("credits", u.Credits >= 0, "must not be negative")
	return c.result()
}

func validateCategoryInput(in CategoryInput) error {
	c := newChecker("category")
	c.required("name", in.Name)
	c.maxLen("name", &in.Name, 100)
	c.required("canonicalUrl", in.CanonicalURL)
	c.maxLen("canonicalUrl", &in.CanonicalURL, 75)
	c.slug("canonicalUrl", in.CanonicalURL)
	return c.result()
}

func validateFeedbackInput(in FeedbackInput) error {
	c := newChecker("feedback")
	c.required("comment", in.Comment)
	c.maxLen("comment", &in.Comment, 2000)
	c.required("name", in.Name)
	c.maxLen("name", &in.Name, 100)
	c.check("email", validEmail(in.Email), "must be a valid email")
	return c.result()
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}
