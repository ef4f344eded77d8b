package models

import "time"

// List is a named checklist. Items belong to a list through
// ListItem.ListID; deleting a list must also delete its items
// (the store has no cascading deletes of its own).
type List struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// ListItem is one entry in a checklist.
type ListItem struct {
	ID string `json:"id"`

	Text string `json:"text"`

	// ListID references the parent List. The reference is valid at
	// creation time but the store never enforces it afterwards.
	ListID string `json:"listId"`

	CreatedAt time.Time `json:"createdAt"`
}
