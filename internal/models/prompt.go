package models

import "time"

// Prompt is a reusable titled text snippet.
type Prompt struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}
