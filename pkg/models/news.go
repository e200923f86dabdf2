package models

import "time"

// Headline is one news item attached to an instrument's detail view.
type Headline struct {
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
}
