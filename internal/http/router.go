package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"caisse/internal/middleware/security"
)

func (s *Server) routes(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(s.tracer.Middleware)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.detector.Middleware(func(w http.ResponseWriter, _ *http.Request) {
		ErrorResponse(http.StatusBadRequest, MsgBadRequest).Write(w)
	}))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		ErrorResponse(http.StatusNotFound, MsgRouteNotFound).Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		ErrorResponse(http.StatusMethodNotAllowed, MsgMethodNotAllowed).Write(w)
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(s.rateLimiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, _ *http.Request) {
			ErrorResponse(http.StatusTooManyRequests, MsgTooManyRequests).Write(w)
		}))
		r.Use(s.requireUser)

		r.Route("/dashboard", func(r chi.Router) {
			r.Get("/summary", s.handleDashboardSummary)
			r.Get("/financial-summary", s.handleFinancialSummary)
			r.Get("/chart-data", s.handleChartData)
		})

		r.Route("/invoices", func(r chi.Router) {
			r.Get("/", s.handleListInvoices)
			r.Post("/", s.handleCreateInvoice)
			r.Get("/{id}", s.handleGetInvoice)
			r.Patch("/{id}", s.handleUpdateInvoice)
			r.Delete("/{id}", s.handleDeleteInvoice)
		})

		r.Route("/expenses", func(r chi.Router) {
			r.Get("/", s.handleListExpenses)
			r.Post("/", s.handleCreateExpense)
			r.Get("/{id}", s.handleGetExpense)
			r.Patch("/{id}", s.handleUpdateExpense)
			r.Delete("/{id}", s.handleDeleteExpense)
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Get("/", s.handleListInventory)
			r.Post("/", s.handleCreateInventoryItem)
			r.Get("/low-stock", s.handleLowStock)
			r.Get("/{id}", s.handleGetInventoryItem)
			r.Patch("/{id}", s.handleUpdateInventoryItem)
			r.Delete("/{id}", s.handleDeleteInventoryItem)
		})

		r.Route("/payment-links", func(r chi.Router) {
			r.Get("/", s.handleListPaymentLinks)
			r.Post("/", s.handleCreatePaymentLink)
			r.Get("/{linkId}", s.handleGetPaymentLink)
			r.Patch("/{linkId}", s.handleUpdatePaymentLink)
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", s.handleListTransactions)
			r.Post("/", s.handleCreateTransaction)
			r.Get("/{id}", s.handleGetTransaction)
		})

		r.Get("/user", s.handleGetUser)
		r.Patch("/user", s.handleUpdateUser)

		r.Route("/ai", func(r chi.Router) {
			r.Post("/advice", s.handleAdvice)
			r.Post("/analyze-trends", s.handleAnalyzeTrends)
		})
	})

	return r
}
