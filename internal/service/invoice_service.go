package service

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/prasetyo/multitool/internal/docstore"
	"github.com/prasetyo/multitool/internal/invoice"
	"github.com/prasetyo/multitool/internal/middleware"
	"github.com/prasetyo/multitool/internal/models"
)

// InvoiceService exposes invoice creation, listing and deletion. All
// calculation and numbering goes through the invoice engine; invoices
// are immutable once saved, so there is no update endpoint.
type InvoiceService struct {
	store  docstore.Store
	engine *invoice.Engine
}

// NewInvoiceService creates a new InvoiceService with the given store.
func NewInvoiceService(store docstore.Store) *InvoiceService {
	return &InvoiceService{
		store:  store,
		engine: invoice.NewEngine(store),
	}
}

// Routes registers the invoice endpoints.
func (s *InvoiceService) Routes(r chi.Router) {
	r.Get("/invoices", s.list)
	r.Post("/invoices", s.create)
	r.Get("/invoices/{id}", s.get)
	r.Delete("/invoices/{id}", s.delete)
	r.Get("/invoices/watch", watchCollection(s.store, invoice.Collection, &docstore.Order{Field: "createdAt", Desc: true}))
}

// invoiceView is an invoice with its computed totals attached.
type invoiceView struct {
	models.Invoice
	Totals invoice.Totals `json:"totals"`
}

func (s *InvoiceService) list(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	invoices, err := s.engine.Load(r.Context(), userID)
	if err != nil {
		slog.Error("failed to list invoices", "user_id", userID, "error", err)
		writeStoreError(w, err)
		return
	}

	views := make([]invoiceView, 0, len(invoices))
	for _, inv := range invoices {
		views = append(views, invoiceView{Invoice: inv, Totals: invoice.ComputeTotals(inv)})
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *InvoiceService) create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var draft models.InvoiceDraft
	if err := decodeJSON(r, &draft); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	inv, err := s.engine.Save(r.Context(), userID, draft)
	if err != nil {
		switch {
		case errors.Is(err, invoice.ErrClientNameRequired):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, invoice.ErrNoUser):
			writeError(w, http.StatusUnauthorized, err.Error())
		default:
			slog.Error("failed to save invoice", "user_id", userID, "error", err)
			writeStoreError(w, err)
		}
		return
	}

	slog.Info("invoice saved", "user_id", userID, "invoice_number", inv.InvoiceNumber)
	writeJSON(w, http.StatusCreated, invoiceView{Invoice: *inv, Totals: invoice.ComputeTotals(*inv)})
}

func (s *InvoiceService) get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id := chi.URLParam(r, "id")

	doc, err := s.store.Get(r.Context(), userID, invoice.Collection, id)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	var inv models.Invoice
	if err := doc.Decode(&inv); err != nil {
		writeStoreError(w, err)
		return
	}
	inv.ID = doc.ID
	inv.CreatedAt = doc.CreatedAt

	writeJSON(w, http.StatusOK, invoiceView{Invoice: inv, Totals: invoice.ComputeTotals(inv)})
}

func (s *InvoiceService) delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id := chi.URLParam(r, "id")

	if err := s.store.Delete(r.Context(), userID, invoice.Collection, id); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}
