package models

import "time"

// DiscountKind selects how a line item's discount is interpreted.
type DiscountKind string

const (
	// DiscountNominal subtracts a fixed rupiah amount from the line gross.
	DiscountNominal DiscountKind = "nominal"

	// DiscountPercent subtracts a percentage of the line gross
	// (quantity x unit price).
	DiscountPercent DiscountKind = "percent"
)

// Issuers is the fixed set of business-unit names an invoice can be
// issued under. The creator picks one at save time.
var Issuers = []string{
	"OSHO DIGITAL",
	"SNY_ONLINESHOP",
	"MAKMUR JAYA",
	"PARATA",
}

// DefaultTaxRate is the PPN rate applied when tax is enabled.
const DefaultTaxRate = 0.11

// LineItem is a single row on an invoice.
//
// The discount is never validated against the line gross: a percent
// discount over 100 or a nominal discount larger than the gross is
// accepted and produces a negative line total.
type LineItem struct {
	Description  string       `json:"description"`
	Quantity     float64      `json:"qty"`
	UnitPrice    float64      `json:"price"`
	Discount     float64      `json:"discount"`
	DiscountKind DiscountKind `json:"discountType"`
}

// Invoice is an issued invoice. Invoices are immutable after creation:
// they are created once, listed, and deleted by ID, never updated.
type Invoice struct {
	// ID is the store-assigned document identifier.
	ID string `json:"id"`

	// IssuerName is the business unit the invoice was issued under,
	// one of Issuers.
	IssuerName string `json:"companyName"`

	// InvoiceNumber is assigned at save time (INVOICES-YYYYMMDDNNN)
	// and never changes afterwards.
	InvoiceNumber string `json:"invoiceNumber"`

	// ClientName is the customer the invoice is addressed to.
	ClientName string `json:"clientName"`

	// IssueDate is the display date captured at save time (id-ID
	// short format, e.g. "21/5/2024"). It is never re-derived.
	IssueDate string `json:"date"`

	// LineItems are the invoice rows, in entry order.
	LineItems []LineItem `json:"items"`

	// TaxRate is the PPN rate applied to the subtotal; 0 when tax is
	// disabled, DefaultTaxRate when enabled.
	TaxRate float64 `json:"ppnRate"`

	// Notes is free text printed at the bottom of the invoice.
	Notes string `json:"notes"`

	// CreatedAt is the store-assigned creation time, used only for
	// ordering the invoice list.
	CreatedAt time.Time `json:"createdAt"`
}

// InvoiceDraft is the caller-supplied input for creating an invoice.
// Number, issue date and creation time are filled in at save time.
type InvoiceDraft struct {
	IssuerName string     `json:"companyName"`
	ClientName string     `json:"clientName"`
	LineItems  []LineItem `json:"items"`
	TaxRate    float64    `json:"ppnRate"`
	Notes      string     `json:"notes"`
}
