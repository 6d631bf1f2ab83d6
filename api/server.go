/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the till frontend

ROUTE GROUPS:
  /api/shop, /api/draft    Issuer settings and the receipt being written
  /api/receipts/*          Receipt history and posting
  /api/movements, /stock/* Stock movements and balances
  /api/catalog/*           Product catalog and import
  /api/documents/*         Reconciliation & linkage
  /api/sales, /reconciliation, /tax/*   Reports
  /api/admin/*, /api/reset Maintenance (dev only)

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// DefaultAllowedOrigins are the local frontend dev servers.
var DefaultAllowedOrigins = []string{"http://localhost:5173", "http://localhost:3000"}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	if len(allowedOrigins) == 0 {
		allowedOrigins = DefaultAllowedOrigins
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/shop", h.GetShop)
		r.Put("/shop", h.UpdateShop)

		r.Route("/draft", func(r chi.Router) {
			r.Get("/", h.GetDraft)
			r.Put("/", h.UpdateDraft)
			r.Post("/items/{itemID}/polish", h.PolishDraftItem)
		})

		r.Route("/receipts", func(r chi.Router) {
			r.Get("/", h.ListReceipts)
			r.Post("/", h.PostReceipt)
			r.Get("/{number}", h.GetReceipt)
			r.Get("/{number}/totals", h.GetReceiptTotals)
		})

		r.Route("/movements", func(r chi.Router) {
			r.Get("/", h.ListMovements)
			r.Post("/", h.CreateMovement)
		})

		r.Route("/stock", func(r chi.Router) {
			r.Get("/report", h.GetStockReport)
			r.Get("/report.xlsx", h.DownloadStockReport)
			r.Get("/{sku}", h.GetStock)
		})

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/", h.ListCatalog)
			r.Post("/import", h.ImportCatalog)
		})

		r.Route("/documents", func(r chi.Router) {
			r.Get("/", h.ListDocuments)
			r.Put("/linkage", h.CorrectLinkage)
		})

		r.Get("/sales", h.GetSalesAnalysis)
		r.Get("/reconciliation", h.GetReconciliation)

		r.Route("/tax", func(r chi.Router) {
			r.Get("/split", h.GetTaxSplit)
			r.Get("/suggest", h.SuggestTaxRate)
		})

		r.Get("/admin/snapshots", h.ListSnapshots)
		r.Post("/reset", h.ResetDatabase)
	})

	return r
}
