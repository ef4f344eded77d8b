package invoice

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/prasetyo/multitool/internal/models"
)

// printer renders numbers with Indonesian digit grouping (1.234.567).
var printer = message.NewPrinter(language.Indonesian)

// FormatRupiah renders an amount the way the invoice UI displays IDR:
// "Rp" followed by the grouped whole-rupiah value, no fraction digits.
// Negative amounts (possible with oversized discounts) keep their sign.
func FormatRupiah(amount float64) string {
	return printer.Sprintf("Rp%v", number.Decimal(amount, number.MaxFractionDigits(0)))
}

// Totals bundles the computed amounts for one invoice, with display
// strings ready for rendering.
type Totals struct {
	Subtotal   float64 `json:"subtotal"`
	TaxAmount  float64 `json:"taxAmount"`
	GrandTotal float64 `json:"grandTotal"`

	SubtotalDisplay   string `json:"subtotalDisplay"`
	TaxAmountDisplay  string `json:"taxAmountDisplay"`
	GrandTotalDisplay string `json:"grandTotalDisplay"`
}

// ComputeTotals evaluates an invoice's line items and tax rate.
func ComputeTotals(inv models.Invoice) Totals {
	subtotal := Subtotal(inv.LineItems)
	grand := GrandTotal(subtotal, inv.TaxRate)
	tax := grand - subtotal
	return Totals{
		Subtotal:          subtotal,
		TaxAmount:         tax,
		GrandTotal:        grand,
		SubtotalDisplay:   FormatRupiah(subtotal),
		TaxAmountDisplay:  FormatRupiah(tax),
		GrandTotalDisplay: FormatRupiah(grand),
	}
}
