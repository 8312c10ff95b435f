package domain

import "time"

// Slug is a published or draft story together with its SEO metadata.
type Slug struct {
	ID              int64
	Title           *string
	SubTitle        *string
	ShortStory      *string
	FullStory       *string
	MetaDescription *string
	MetaKeywords    *string
	MetaTitle       *string
	OGDescription   *string
	OGImage         *string
	CanonicalURL    string
	CanonicalLink   *string
	StorySlug       *string
	Genre           *string
	Byline          *string
	Published       bool
	AuthorID        string
	CategoryID      int64
	ReadingTime     *int
	CreatedAt       time.Time
	UpdatedAt       time.Time

	// Populated by listing and keyed reads.
	Category *Category
	Author   *User
}

type Category struct {
	ID           int64
	Name         string
	CanonicalURL string
}

type Feedback struct {
	ID         int64
	Comment    string
	Name       string
	Email      string
	UserID     *string
	Approved   bool
	ReviewedAt *time.Time
	CreatedAt  time.Time
}

// SlugFilter narrows a slug listing. Zero values match everything.
type SlugFilter struct {
	PublishedOnly bool
	CategoryID    int64
	AuthorID      string
	Limit         uint64
}
