package invoicehttp

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/otpless/invoice-service/internal/auth"
)

// Per-route rate limits, applied per client IP.
const (
	createPerMinute = 50
	readPerMinute   = 100
	pdfPerMinute    = 20
)

// Routes mounts the invoice API under the given router. The authorizer is
// consulted per route group before any handler runs.
func Routes(r chi.Router, h *Handler, authz *auth.Service) {
	r.Route("/api/v1/invoices", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authz.RequireScope(auth.ActionInvoicesRead))
			r.Use(httprate.Limit(readPerMinute, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
			r.Get("/", h.List)
			r.Get("/{id}", h.Get)
		})
		r.Group(func(r chi.Router) {
			r.Use(authz.RequireScope(auth.ActionInvoicesWrite))
			r.Use(httprate.Limit(createPerMinute, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
			r.Post("/", h.Create)
			r.Patch("/{id}/status", h.UpdateStatus)
		})
		r.Group(func(r chi.Router) {
			r.Use(authz.RequireScope(auth.ActionInvoicesRead))
			r.Use(httprate.Limit(pdfPerMinute, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
			r.Post("/{id}/pdf", h.RenderDocument)
		})
	})
}
