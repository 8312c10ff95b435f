// Package editor holds the story editor's pure logic: fields derived from
// other fields, validation, the SEO score and the publish guard.
package editor

const (
	FieldTitle         = "title"
	FieldDescription   = "description"
	FieldKeywords      = "keywords"
	FieldAuthor        = "author"
	FieldSlug          = "slug"
	FieldOGTitle       = "ogTitle"
	FieldOGDescription = "ogDescription"
	FieldOGImage       = "ogImage"
	FieldCanonicalURL  = "canonicalUrl"
	FieldStorySummary  = "storySummary"
	FieldStorySlug     = "storySlug"
	FieldContent       = "content"
	FieldGenre         = "genre"
	FieldReadingTime   = "readingTime"
)

// PublishWarning is shown when a published story no longer validates.
const PublishWarning = "This story is marked as published but contains validation errors. " +
	"Please fix the issues below or unpublish the story to prevent publishing invalid content."

// Form is the editor's working state. It is not persisted until saved.
type Form struct {
	ID            int64  `json:"id,omitempty" form:"id"`
	CategoryID    int64  `json:"categoryId" form:"categoryId"`
	Title         string `json:"title" form:"title"`
	Description   string `json:"description" form:"description"`
	Keywords      string `json:"keywords" form:"keywords"`
	Author        string `json:"author" form:"author"`
	Slug          string `json:"slug" form:"slug"`
	OGTitle       string `json:"ogTitle" form:"ogTitle"`
	OGDescription string `json:"ogDescription" form:"ogDescription"`
	OGImage       string `json:"ogImage" form:"ogImage"`
	CanonicalURL  string `json:"canonicalUrl" form:"canonicalUrl"`
	StorySummary  string `json:"storySummary" form:"storySummary"`
	StorySlug     string `json:"storySlug" form:"storySlug"`
	Content       string `json:"content" form:"content"`
	Genre         string `json:"genre" form:"genre"`
	ReadingTime   string `json:"readingTime" form:"readingTime"`
	Published     bool   `json:"published" form:"published"`
	// PrevPublished is the published flag the guard last accepted, carried
	// between evaluations of the same editing session.
	PrevPublished bool `json:"prevPublished" form:"prevPublished"`
}

// Value returns the string field named by one of the Field constants.
func (f Form) Value(field string) string {
	switch field {
	case FieldTitle:
		return f.Title
	case FieldDescription:
		return f.Description
	case FieldKeywords:
		return f.Keywords
	case FieldAuthor:
		return f.Author
	case FieldSlug:
		return f.Slug
	case FieldOGTitle:
		return f.OGTitle
	case FieldOGDescription:
		return f.OGDescription
	case FieldOGImage:
		return f.OGImage
	case FieldCanonicalURL:
		return f.CanonicalURL
	case FieldStorySummary:
		return f.StorySummary
	case FieldStorySlug:
		return f.StorySlug
	case FieldContent:
		return f.Content
	case FieldGenre:
		return f.Genre
	case FieldReadingTime:
		return f.ReadingTime
	}
	return ""
}

// Derive fills empty derived fields from their sources. Fields the author
// already typed are never overwritten.
func Derive(f Form) Form {
	if f.Title != "" {
		if f.Slug == "" {
			f.Slug = GenerateSlug(f.Title)
		}
		if f.StorySlug == "" {
			f.StorySlug = GenerateStorySlug(f.Title)
		}
		if f.OGTitle == "" {
			f.OGTitle = f.Title
		}
	}
	if f.Description != "" && f.OGDescription == "" {
		f.OGDescription = f.Description
	}
	if f.Content != "" && f.ReadingTime == "" {
		f.ReadingTime = CalculateReadingTime(f.Content)
	}
	return f
}

// State is everything the editor shows for a form.
type State struct {
	Form             Form          `json:"form"`
	Errors           Errors        `json:"errors"`
	Valid            bool          `json:"valid"`
	Score            string        `json:"score"`
	TitleCount       CountStatus   `json:"titleCount"`
	DescriptionCount CountStatus   `json:"descriptionCount"`
	SummaryCount     CountStatus   `json:"summaryCount"`
	SlugCount        CountStatus   `json:"slugCount"`
	Preview          SearchPreview `json:"preview"`
	Warning          string        `json:"warning,omitempty"`
	// CanPublish is false while the publish box must stay disabled.
	CanPublish bool `json:"canPublish"`
}

// Evaluate derives, validates, scores and guards f in one pass. host is the
// public site host used for the search preview.
func Evaluate(f Form, host string) State {
	f = Derive(f)
	errs := Validate(f)
	valid := len(errs) == 0
	f.Published = GuardPublish(f.PrevPublished, f.Published, valid)
	f.PrevPublished = f.Published

	st := State{
		Form:             f,
		Errors:           errs,
		Valid:            valid,
		Score:            SEOScore(f, errs).String(),
		TitleCount:       Count(runeLen(f.Title), TitleLimit),
		DescriptionCount: Count(runeLen(f.Description), DescriptionLimit),
		SummaryCount:     Count(runeLen(f.StorySummary), StorySummaryLimit),
		SlugCount:        Count(runeLen(f.Slug), SlugLimit),
		Preview:          Preview(f, host),
		CanPublish:       valid || f.Published,
	}
	if f.Published && !valid {
		st.Warning = PublishWarning
	}
	return st
}

// GuardPublish returns the published flag to keep. Switching publishing on
// is refused while the form is invalid; an already published story stays
// published.
func GuardPublish(prev, requested, valid bool) bool {
	if requested && !prev && !valid {
		return false
	}
	return requested
}
