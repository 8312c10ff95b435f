package editor

import "unicode/utf8"

// Limit describes the character budget of a field. Zero Min or Optimal
// means the bound is not configured.
type Limit struct {
	Min     int
	Max     int
	Optimal int
}

var (
	TitleLimit        = Limit{Min: 30, Max: 60, Optimal: 55}
	DescriptionLimit  = Limit{Min: 120, Max: 160, Optimal: 155}
	StorySummaryLimit = Limit{Min: 50, Max: 300}
	SlugLimit         = Limit{Max: 75}
)

type Color string

const (
	ColorRed    Color = "red"
	ColorYellow Color = "yellow"
	ColorGreen  Color = "green"
)

const (
	StatusTooShort = "Too short"
	StatusTooLong  = "Too long"
	StatusGood     = "Good"
	StatusOptimal  = "Optimal"
)

// CountStatus is the badge shown next to a length-limited field.
type CountStatus struct {
	Current int    `json:"current"`
	Max     int    `json:"max"`
	Status  string `json:"status"`
	Color   Color  `json:"color"`
}

// Count classifies length against l.
func Count(length int, l Limit) CountStatus {
	cs := CountStatus{Current: length, Max: l.Max}
	switch {
	case l.Min > 0 && length < l.Min:
		cs.Status, cs.Color = StatusTooShort, ColorRed
	case length > l.Max:
		cs.Status, cs.Color = StatusTooLong, ColorRed
	case l.Optimal > 0 && length > l.Optimal:
		cs.Status, cs.Color = StatusGood, ColorYellow
	case l.Optimal > 0:
		cs.Status, cs.Color = StatusOptimal, ColorGreen
	default:
		cs.Status, cs.Color = StatusGood, ColorGreen
	}
	return cs
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
