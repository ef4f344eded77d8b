package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/prasetyo/multitool/internal/auth"
	"github.com/prasetyo/multitool/internal/docstore/sqlite"
	"github.com/prasetyo/multitool/internal/middleware"
)

// newTestServer wires the services onto a router the same way main does,
// minus metrics and h2c.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	authenticator := auth.NewPasswordAuthenticator(store)

	authService := NewAuthService(authenticator, jwtManager, slog.Default())

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Group(authService.Routes)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(jwtManager))
			authService.MeRoutes(r)
			NewLinkService(store).Routes(r)
			NewCounterService(store).Routes(r)
			NewPromptService(store).Routes(r)
			NewListService(store).Routes(r)
			NewInvoiceService(store).Routes(r)
		})
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

// doJSON issues a request with an optional bearer token and decodes the
// response envelope's data into out.
func doJSON(t *testing.T, method, url, token string, body, out any) int {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}

	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if out != nil {
		var envelope struct {
			Data  json.RawMessage `json:"data"`
			Error string          `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(envelope.Data) > 0 {
			if err := json.Unmarshal(envelope.Data, out); err != nil {
				t.Fatalf("failed to decode data: %v", err)
			}
		}
	}
	return resp.StatusCode
}

func registerUser(t *testing.T, srv *httptest.Server, email string) string {
	t.Helper()

	var session struct {
		Token string `json:"token"`
	}
	status := doJSON(t, http.MethodPost, srv.URL+"/api/v1/auth/register", "", map[string]string{
		"email":       email,
		"displayName": "Test User",
		"password":    "correct horse battery",
	}, &session)
	if status != http.StatusCreated {
		t.Fatalf("register returned status %d", status)
	}
	if session.Token == "" {
		t.Fatal("register returned empty token")
	}
	return session.Token
}

func TestAuthFlow(t *testing.T) {
	srv := newTestServer(t)

	token := registerUser(t, srv, "alice@example.com")

	var me struct {
		Email string `json:"email"`
	}
	if status := doJSON(t, http.MethodGet, srv.URL+"/api/v1/auth/me", token, nil, &me); status != http.StatusOK {
		t.Fatalf("me returned status %d", status)
	}
	if me.Email != "alice@example.com" {
		t.Errorf("me returned email %q, want alice@example.com", me.Email)
	}

	// Duplicate registration conflicts.
	status := doJSON(t, http.MethodPost, srv.URL+"/api/v1/auth/register", "", map[string]string{
		"email":       "alice@example.com",
		"displayName": "Alice Again",
		"password":    "correct horse battery",
	}, nil)
	if status != http.StatusConflict {
		t.Errorf("duplicate register returned status %d, want %d", status, http.StatusConflict)
	}

	// Login with the right and wrong password.
	var session struct {
		Token string `json:"token"`
	}
	status = doJSON(t, http.MethodPost, srv.URL+"/api/v1/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "correct horse battery",
	}, &session)
	if status != http.StatusOK || session.Token == "" {
		t.Errorf("login returned status %d, token %q", status, session.Token)
	}

	status = doJSON(t, http.MethodPost, srv.URL+"/api/v1/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "wrong",
	}, nil)
	if status != http.StatusUnauthorized {
		t.Errorf("bad login returned status %d, want %d", status, http.StatusUnauthorized)
	}
}

func TestRequiresToken(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/api/v1/links", "/api/v1/counters", "/api/v1/prompts", "/api/v1/lists", "/api/v1/invoices"} {
		if status := doJSON(t, http.MethodGet, srv.URL+path, "", nil, nil); status != http.StatusUnauthorized {
			t.Errorf("GET %s without token returned status %d, want %d", path, status, http.StatusUnauthorized)
		}
	}
}

func TestLinkNormalization(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"example.com", "https://example.com"},
		{"https://example.com", "https://example.com"},
		{"http://example.com", "http://example.com"},
		{"www.example.com/path?q=1", "https://www.example.com/path?q=1"},
	}
	for _, tt := range tests {
		if got := NormalizeURL(tt.in); got != tt.want {
			t.Errorf("NormalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLinkCRUD(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "links@example.com")

	var created struct {
		ID string `json:"id"`
	}
	status := doJSON(t, http.MethodPost, srv.URL+"/api/v1/links", token, map[string]string{
		"title": "Example",
		"url":   "example.com",
	}, &created)
	if status != http.StatusCreated || created.ID == "" {
		t.Fatalf("create returned status %d, id %q", status, created.ID)
	}

	var links []struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		URL   string `json:"url"`
	}
	if status := doJSON(t, http.MethodGet, srv.URL+"/api/v1/links", token, nil, &links); status != http.StatusOK {
		t.Fatalf("list returned status %d", status)
	}
	if len(links) != 1 {
		t.Fatalf("list returned %d links, want 1", len(links))
	}
	if links[0].URL != "https://example.com" {
		t.Errorf("stored URL = %q, want https://example.com", links[0].URL)
	}

	status = doJSON(t, http.MethodDelete, srv.URL+"/api/v1/links/"+created.ID, token, nil, nil)
	if status != http.StatusOK {
		t.Fatalf("delete returned status %d", status)
	}
	doJSON(t, http.MethodGet, srv.URL+"/api/v1/links", token, nil, &links)
	if len(links) != 0 {
		t.Errorf("list after delete returned %d links, want 0", len(links))
	}
}

func TestCounterIncrement(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "counters@example.com")

	var created struct {
		ID string `json:"id"`
	}
	status := doJSON(t, http.MethodPost, srv.URL+"/api/v1/counters", token, map[string]string{
		"name": "Push-ups",
	}, &created)
	if status != http.StatusCreated {
		t.Fatalf("create returned status %d", status)
	}

	incrementURL := fmt.Sprintf("%s/api/v1/counters/%s/increment", srv.URL, created.ID)

	// Empty body defaults to +1.
	if status := doJSON(t, http.MethodPost, incrementURL, token, nil, nil); status != http.StatusOK {
		t.Fatalf("increment returned status %d", status)
	}
	doJSON(t, http.MethodPost, incrementURL, token, map[string]float64{"delta": 5}, nil)
	doJSON(t, http.MethodPost, incrementURL, token, map[string]float64{"delta": -2}, nil)

	var counters []struct {
		Name  string  `json:"name"`
		Count float64 `json:"count"`
	}
	if status := doJSON(t, http.MethodGet, srv.URL+"/api/v1/counters", token, nil, &counters); status != http.StatusOK {
		t.Fatalf("list returned status %d", status)
	}
	if len(counters) != 1 || counters[0].Count != 4 {
		t.Fatalf("counters = %+v, want one counter at 4", counters)
	}

	// Incrementing someone else's counter is a 404, not a write.
	other := registerUser(t, srv, "other@example.com")
	if status := doJSON(t, http.MethodPost, incrementURL, other, nil, nil); status != http.StatusNotFound {
		t.Errorf("cross-user increment returned status %d, want %d", status, http.StatusNotFound)
	}
}

func TestListCascadeDeleteOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "lists@example.com")

	var list struct {
		ID string `json:"id"`
	}
	status := doJSON(t, http.MethodPost, srv.URL+"/api/v1/lists", token, map[string]string{
		"name": "Belanja",
	}, &list)
	if status != http.StatusCreated {
		t.Fatalf("create list returned status %d", status)
	}

	for _, text := range []string{"Beras", "Gula", "Kopi"} {
		status := doJSON(t, http.MethodPost, srv.URL+"/api/v1/lists/"+list.ID+"/items", token, map[string]string{
			"text": text,
		}, nil)
		if status != http.StatusCreated {
			t.Fatalf("create item returned status %d", status)
		}
	}

	if status := doJSON(t, http.MethodDelete, srv.URL+"/api/v1/lists/"+list.ID, token, nil, nil); status != http.StatusOK {
		t.Fatalf("delete list returned status %d", status)
	}

	var lists []struct {
		ID string `json:"id"`
	}
	doJSON(t, http.MethodGet, srv.URL+"/api/v1/lists", token, nil, &lists)
	if len(lists) != 0 {
		t.Errorf("lists after cascade delete = %d, want 0", len(lists))
	}

	var items []struct {
		ID string `json:"id"`
	}
	doJSON(t, http.MethodGet, srv.URL+"/api/v1/lists/"+list.ID+"/items", token, nil, &items)
	if len(items) != 0 {
		t.Errorf("items after cascade delete = %d, want 0", len(items))
	}
}

func TestInvoiceCreateOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "invoices@example.com")

	var created struct {
		InvoiceNumber string `json:"invoiceNumber"`
		Totals        struct {
			Subtotal   float64 `json:"subtotal"`
			GrandTotal float64 `json:"grandTotal"`
		} `json:"totals"`
	}
	status := doJSON(t, http.MethodPost, srv.URL+"/api/v1/invoices", token, map[string]any{
		"companyName": "OSHO DIGITAL",
		"clientName":  "PT Maju",
		"ppnRate":     0.11,
		"items": []map[string]any{
			{"description": "Jasa desain", "qty": 3, "price": 10000, "discount": 10, "discountType": "percent"},
			{"description": "Hosting", "qty": 1, "price": 27000},
		},
	}, &created)
	if status != http.StatusCreated {
		t.Fatalf("create invoice returned status %d", status)
	}
	if created.Totals.Subtotal != 54000 {
		t.Errorf("subtotal = %v, want 54000", created.Totals.Subtotal)
	}
	if created.Totals.GrandTotal != 59940 {
		t.Errorf("grand total = %v, want 59940", created.Totals.GrandTotal)
	}
	if len(created.InvoiceNumber) == 0 {
		t.Error("invoice number is empty")
	}

	// Missing client name is rejected before anything is stored.
	status = doJSON(t, http.MethodPost, srv.URL+"/api/v1/invoices", token, map[string]any{
		"companyName": "OSHO DIGITAL",
		"clientName":  "   ",
	}, nil)
	if status != http.StatusBadRequest {
		t.Errorf("blank client name returned status %d, want %d", status, http.StatusBadRequest)
	}

	var invoices []struct {
		InvoiceNumber string `json:"invoiceNumber"`
	}
	if status := doJSON(t, http.MethodGet, srv.URL+"/api/v1/invoices", token, nil, &invoices); status != http.StatusOK {
		t.Fatalf("list returned status %d", status)
	}
	if len(invoices) != 1 {
		t.Fatalf("list returned %d invoices, want 1", len(invoices))
	}
}
