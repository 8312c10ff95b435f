package editor

import "unicode/utf8"

// Score ranks how search-ready a form is. Higher is better.
type Score int

const (
	ScoreNeedsImprovement Score = iota
	ScoreFair
	ScoreGood
	ScoreExcellent
)

func (s Score) String() string {
	switch s {
	case ScoreExcellent:
		return "Excellent"
	case ScoreGood:
		return "Good"
	case ScoreFair:
		return "Fair"
	default:
		return "Needs improvement"
	}
}

// SEOScore grades f given the validation errors already computed for it.
func SEOScore(f Form, errs Errors) Score {
	hasRequired := f.Title != "" && f.Description != "" && f.Slug != ""
	if !hasRequired {
		return ScoreNeedsImprovement
	}
	if len(errs) > 0 {
		return ScoreFair
	}
	title := utf8.RuneCountInString(f.Title)
	desc := utf8.RuneCountInString(f.Description)
	if title >= TitleLimit.Min && title <= TitleLimit.Optimal &&
		desc >= DescriptionLimit.Min && desc <= DescriptionLimit.Optimal {
		return ScoreExcellent
	}
	return ScoreGood
}
