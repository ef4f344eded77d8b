package models

import "time"

// Link is a saved bookmark. URLs are normalized to carry a scheme
// before storage (see service.NormalizeURL).
type Link struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"createdAt"`
}
