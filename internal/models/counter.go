package models

// Category groups counters for filtering in the UI.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Counter is a named tally. Count changes go through the store's
// atomic increment so concurrent bumps never lose updates.
type Counter struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Count      float64 `json:"count"`
	CategoryID string  `json:"categoryId"`
}
