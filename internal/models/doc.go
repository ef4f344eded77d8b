// Package models defines the core domain models for the multi-tool backend.
//
// # Resources
//
// Each signed-in user owns five independent resource collections:
//   - Counter / Category: named tally counters grouped into categories
//   - Prompt: reusable text snippets with a title
//   - Link: saved bookmarks
//   - List / ListItem: custom checklists (parent lists with child items)
//   - Invoice: generated invoices with per-line discounts and tax
//
// All resources live under the owning user's namespace in the document
// store (users/{userId}/{collection}); nothing is shared between users.
//
// # Design Principles
//
//  1. Models mirror what the store persists: IDs and creation timestamps
//     are assigned by the store, never by callers.
//  2. Relationships use ID strings (ListItem.ListID, Counter.CategoryID)
//     instead of pointers. The store does not enforce referential
//     integrity, so orphans are possible and callers must tolerate them.
//  3. Monetary values are plain float64 in whole rupiah; IDR has no
//     minor currency unit in display.
package models
