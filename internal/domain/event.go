package domain

import "time"

const (
	SlugCreated = "create"
	SlugUpdated = "update"
	SlugDeleted = "delete"
)

// SlugEvent announces a change to a stored slug.
type SlugEvent struct {
	Action       string    `json:"action"`
	SlugID       int64     `json:"slugId"`
	CanonicalURL string    `json:"canonicalUrl"`
	Published    bool      `json:"published"`
	AuthorID     string    `json:"authorId"`
	Timestamp    time.Time `json:"timestamp"`
}
