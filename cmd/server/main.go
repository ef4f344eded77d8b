package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/prasetyo/multitool/internal/auth"
	"github.com/prasetyo/multitool/internal/docstore/sqlite"
	"github.com/prasetyo/multitool/internal/middleware"
	"github.com/prasetyo/multitool/internal/service"
	"github.com/prasetyo/multitool/pkg/logging"
)

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	logging.Setup()

	dbPath := getEnv("DB_PATH", "./data/multitool.db")
	port := getEnv("PORT", "8080")
	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		slog.Error("JWT_SECRET must be set")
		os.Exit(1)
	}

	tokenDuration := 24 * time.Hour
	if raw := os.Getenv("TOKEN_DURATION"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			slog.Error("Invalid TOKEN_DURATION", "value", raw, "error", err)
			os.Exit(1)
		}
		tokenDuration = parsed
	}

	store, err := sqlite.New(dbPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", dbPath)

	jwtManager := auth.NewJWTManager(jwtSecret, tokenDuration)
	authenticator := auth.NewPasswordAuthenticator(store)
	authService := service.NewAuthService(authenticator, jwtManager, slog.Default())

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(middleware.CORS)

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Logging)
			authService.Routes(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(jwtManager))
			r.Use(middleware.Logging)

			authService.MeRoutes(r)
			service.NewCounterService(store).Routes(r)
			service.NewPromptService(store).Routes(r)
			service.NewLinkService(store).Routes(r)
			service.NewListService(store).Routes(r)
			service.NewInvoiceService(store).Routes(r)
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	// h2c lets the streaming watch endpoints use HTTP/2 without TLS.
	handler := h2c.NewHandler(r, &http2.Server{})

	addr := fmt.Sprintf(":%s", port)
	slog.Info("Server starting", "address", addr, "url", fmt.Sprintf("http://localhost%s", addr))
	if err := http.ListenAndServe(addr, handler); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
