package service

import (
	"time"

	"github.com/eringen/storyboard/internal/domain"
)

type CategoryDTO struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	CanonicalURL string `json:"canonicalUrl"`
}

// AuthorDTO is the public face of a slug's author.
type AuthorDTO struct {
	Login string  `json:"login"`
	Name  string  `json:"name,omitempty"`
	Image *string `json:"image,omitempty"`
}

type SlugDTO struct {
	ID              int64        `json:"id"`
	Title           *string      `json:"title"`
	SubTitle        *string      `json:"subTitle"`
	ShortStory      *string      `json:"shortStory"`
	FullStory       *string      `json:"fullStory"`
	MetaDescription *string      `json:"metaDescription"`
	MetaKeywords    *string      `json:"metaKeywords"`
	MetaTitle       *string      `json:"metaTitle"`
	OGDescription   *string      `json:"ogDescription"`
	OGImage         *string      `json:"ogImage"`
	CanonicalURL    string       `json:"canonicalUrl"`
	CanonicalLink   *string      `json:"canonicalLink"`
	StorySlug       *string      `json:"storySlug"`
	Genre           *string      `json:"genre"`
	Byline          *string      `json:"byline"`
	Published       bool         `json:"published"`
	AuthorID        string       `json:"authorId"`
	CategoryID      int64        `json:"categoryId"`
	ReadingTime     *int         `json:"readingTime"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
	Category        *CategoryDTO `json:"category,omitempty"`
	Author          AuthorDTO    `json:"author"`
}

// TitleOr returns the slug title, or fallback when it has none.
func (d SlugDTO) TitleOr(fallback string) string {
	if d.Title != nil && *d.Title != "" {
		return *d.Title
	}
	return fallback
}

func NewSlugDTO(sl domain.Slug) SlugDTO {
	d := SlugDTO{
		ID:              sl.ID,
		Title:           sl.Title,
		SubTitle:        sl.SubTitle,
		ShortStory:      sl.ShortStory,
		FullStory:       sl.FullStory,
		MetaDescription: sl.MetaDescription,
		MetaKeywords:    sl.MetaKeywords,
		MetaTitle:       sl.MetaTitle,
		OGDescription:   sl.OGDescription,
		OGImage:         sl.OGImage,
		CanonicalURL:    sl.CanonicalURL,
		CanonicalLink:   sl.CanonicalLink,
		StorySlug:       sl.StorySlug,
		Genre:           sl.Genre,
		Byline:          sl.Byline,
		Published:       sl.Published,
		AuthorID:        sl.AuthorID,
		CategoryID:      sl.CategoryID,
		ReadingTime:     sl.ReadingTime,
		CreatedAt:       sl.CreatedAt,
		UpdatedAt:       sl.UpdatedAt,
	}
	if sl.Category != nil {
		c := NewCategoryDTO(*sl.Category)
		d.Category = &c
	}
	if sl.Author != nil {
		d.Author = AuthorDTO{Login: sl.Author.Login, Name: sl.Author.Name, Image: sl.Author.Image}
	}
	return d
}

func NewCategoryDTO(c domain.Category) CategoryDTO {
	return CategoryDTO{ID: c.ID, Name: c.Name, CanonicalURL: c.CanonicalURL}
}

type UserDTO struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Role          domain.Role `json:"role"`
	Email         string      `json:"email"`
	EmailVerified bool        `json:"emailVerified"`
	Image         *string     `json:"image"`
	Login         string      `json:"login"`
	Credits       int         `json:"credits"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

func NewUserDTO(u domain.User) UserDTO {
	return UserDTO(u)
}

type FeedbackDTO struct {
	ID         int64      `json:"id"`
	Comment    string     `json:"comment"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	UserID     *string    `json:"userId"`
	Approved   bool       `json:"approved"`
	ReviewedAt *time.Time `json:"reviewedAt"`
	CreatedAt  time.Time  `json:"createdAt"`
}

func NewFeedbackDTO(f domain.Feedback) FeedbackDTO {
	return FeedbackDTO(f)
}

// SlugInput is the writable part of a slug. AuthorID is filled from the
// caller's session, never from the request body.
type SlugInput struct {
	ID              int64   `json:"id"`
	Title           *string `json:"title"`
	SubTitle        *string `json:"subTitle"`
	ShortStory      *string `json:"shortStory"`
	FullStory       *string `json:"fullStory"`
	MetaDescription *string `json:"metaDescription"`
	MetaKeywords    *string `json:"metaKeywords"`
	MetaTitle       *string `json:"metaTitle"`
	OGDescription   *string `json:"ogDescription"`
	OGImage         *string `json:"ogImage"`
	CanonicalURL    string  `json:"canonicalUrl"`
	CanonicalLink   *string `json:"canonicalLink"`
	StorySlug       *string `json:"storySlug"`
	Genre           *string `json:"genre"`
	Byline          *string `json:"byline"`
	Published       bool    `json:"published"`
	AuthorID        string  `json:"-"`
	CategoryID      int64   `json:"categoryId"`
	ReadingTime     *int    `json:"readingTime"`
}

func (in SlugInput) toDomain() domain.Slug {
	return domain.Slug{
		ID:              in.ID,
		Title:           in.Title,
		SubTitle:        in.SubTitle,
		ShortStory:      in.ShortStory,
		FullStory:       in.FullStory,
		MetaDescription: in.MetaDescription,
		MetaKeywords:    in.MetaKeywords,
		MetaTitle:       in.MetaTitle,
		OGDescription:   in.OGDescription,
		OGImage:         in.OGImage,
		CanonicalURL:    in.CanonicalURL,
		CanonicalLink:   in.CanonicalLink,
		StorySlug:       in.StorySlug,
		Genre:           in.Genre,
		Byline:          in.Byline,
		Published:       in.Published,
		AuthorID:        in.AuthorID,
		CategoryID:      in.CategoryID,
		ReadingTime:     in.ReadingTime,
	}
}

type CategoryInput struct {
	Name         string `json:"name"`
	CanonicalURL string `json:"canonicalUrl"`
}

type FeedbackInput struct {
	Comment string `json:"comment"`
	Name    string `json:"name"`
	Email   string `json:"email"`
}
