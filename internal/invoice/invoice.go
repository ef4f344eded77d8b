// Package invoice implements the invoice calculation engine: per-line
// and per-invoice monetary totals, plus the sequential daily numbering
// scheme used when saving new invoices.
//
// All calculation functions are pure; only Engine.Save touches the
// document store, and then only with a single insert.
package invoice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prasetyo/multitool/internal/docstore"
	"github.com/prasetyo/multitool/internal/models"
)

// Collection is the document store collection holding invoices.
const Collection = "invoices"

// NumberPrefix is the constant prefix of every invoice number.
const NumberPrefix = "INVOICES-"

var (
	// ErrClientNameRequired is returned by Save when the client name is
	// empty. Reported before any store call is attempted.
	ErrClientNameRequired = errors.New("client name is required")

	// ErrNoUser is returned by Save when no authenticated user ID is
	// available. Reported before any store call is attempted.
	ErrNoUser = errors.New("authenticated user required")
)

// DiscountAmount computes the rupiah value of a line item's discount.
// Percent discounts apply to the line gross (quantity x unit price);
// nominal discounts are taken as-is. The value is never clamped, so a
// discount can exceed the gross.
func DiscountAmount(item models.LineItem) float64 {
	if item.DiscountKind == models.DiscountPercent {
		return (item.Quantity * item.UnitPrice) * (item.Discount / 100)
	}
	return item.Discount
}

// LineTotal computes a line item's total: gross minus discount.
// There is no floor at zero; an oversized discount yields a negative
// line total.
func LineTotal(item models.LineItem) float64 {
	return (item.Quantity * item.UnitPrice) - DiscountAmount(item)
}

// Subtotal sums the line totals. An empty slice yields 0.
func Subtotal(items []models.LineItem) float64 {
	var sum float64
	for _, item := range items {
		sum += LineTotal(item)
	}
	return sum
}

// GrandTotal applies the tax rate to a subtotal.
func GrandTotal(subtotal, taxRate float64) float64 {
	return subtotal * (1 + taxRate)
}

// NextNumber derives the invoice number for a save happening at now,
// given the set of invoices already loaded for the user. The number is
// the local date prefixed with NumberPrefix and followed by a 3-digit
// daily sequence: INVOICES-20240521001.
//
// The sequence counts existing numbers sharing today's prefix, so it is
// shared across issuers and clients. Uniqueness is NOT guaranteed: two
// concurrent saves working from the same loaded set will produce the
// same number. That matches the numbering's original behavior; closing
// the race would need a store-side atomic counter.
func NextNumber(existing []models.Invoice, now time.Time) string {
	prefix := NumberPrefix + now.Format("20060102")

	count := 0
	for _, inv := range existing {
		if strings.HasPrefix(inv.InvoiceNumber, prefix) {
			count++
		}
	}

	return fmt.Sprintf("%s%03d", prefix, count+1)
}

// Engine saves invoices against a document store. It holds no state of
// its own beyond its collaborators; concurrent Save calls interact only
// through the store.
type Engine struct {
	store docstore.Store
	now   func() time.Time
}

// NewEngine creates an invoice engine backed by the given store.
func NewEngine(store docstore.Store) *Engine {
	return &Engine{store: store, now: time.Now}
}

// Save validates the draft, assigns the next sequential number and
// inserts the invoice into the user's collection. The insert is a
// single document write; there is nothing to roll back.
//
// The issue date is captured once at save time in the id-ID short date
// format and stored as display text; it is never re-derived. Empty
// notes default to a payment instruction naming the issuer.
func (e *Engine) Save(ctx context.Context, userID string, draft models.InvoiceDraft) (*models.Invoice, error) {
	if userID == "" {
		return nil, ErrNoUser
	}
	if strings.TrimSpace(draft.ClientName) == "" {
		return nil, ErrClientNameRequired
	}

	existing, err := e.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoices: %w", err)
	}

	now := e.now()
	issuer := draft.IssuerName
	if issuer == "" {
		issuer = models.Issuers[0]
	}
	notes := draft.Notes
	if notes == "" {
		notes = fmt.Sprintf("Pembayaran ditujukan kepada %s", issuer)
	}

	inv := &models.Invoice{
		IssuerName:    issuer,
		InvoiceNumber: NextNumber(existing, now),
		ClientName:    draft.ClientName,
		IssueDate:     now.Format("2/1/2006"),
		LineItems:     draft.LineItems,
		TaxRate:       draft.TaxRate,
		Notes:         notes,
	}

	id, err := e.store.Create(ctx, userID, Collection, docstore.Fields{
		"companyName":   inv.IssuerName,
		"invoiceNumber": inv.InvoiceNumber,
		"clientName":    inv.ClientName,
		"date":          inv.IssueDate,
		"items":         inv.LineItems,
		"ppnRate":       inv.TaxRate,
		"notes":         inv.Notes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save invoice: %w", err)
	}

	inv.ID = id
	inv.CreatedAt = now
	return inv, nil
}

// Load returns the user's invoices, newest first.
func (e *Engine) Load(ctx context.Context, userID string) ([]models.Invoice, error) {
	docs, err := e.store.Query(ctx, userID, Collection, nil, &docstore.Order{Field: "createdAt", Desc: true})
	if err != nil {
		return nil, err
	}
	return FromDocuments(docs)
}

// FromDocuments decodes stored invoice documents into models.
func FromDocuments(docs []docstore.Document) ([]models.Invoice, error) {
	invoices := make([]models.Invoice, 0, len(docs))
	for _, doc := range docs {
		var inv models.Invoice
		if err := doc.Decode(&inv); err != nil {
			return nil, fmt.Errorf("failed to decode invoice %s: %w", doc.ID, err)
		}
		inv.ID = doc.ID
		inv.CreatedAt = doc.CreatedAt
		invoices = append(invoices, inv)
	}
	return invoices, nil
}
