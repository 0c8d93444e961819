// Package invoicehttp exposes the invoice REST API.
package invoicehttp

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/otpless/invoice-service/internal/document"
	"github.com/otpless/invoice-service/internal/invoice"
	"github.com/otpless/invoice-service/internal/observability"
	"github.com/otpless/invoice-service/internal/platform/httpx"
)

// DocumentService renders a stored invoice into a retrievable document.
type DocumentService interface {
	Render(ctx context.Context, inv *invoice.Invoice) (*document.Ref, error)
}

type Handler struct {
	logger    *slog.Logger
	service   *invoice.Service
	documents DocumentService
	metrics   *observability.Metrics
}

func NewHandler(logger *slog.Logger, service *invoice.Service, documents DocumentService, metrics *observability.Metrics) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		documents: documents,
		metrics:   metrics,
	}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req invoice.CreateInvoiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed Request", "invalid JSON body")
		return
	}

	inv, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.logger.Error("create invoice", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.metrics.InvoiceGenerated()
	httpx.JSON(w, http.StatusCreated, inv)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.invoiceID(w, r)
	if !ok {
		return
	}
	inv, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

type listResponse struct {
	Invoices []invoice.Invoice `json:"invoices"`
	Total    int               `json:"total"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	req, err := parseListRequest(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	invoices, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list invoices", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if invoices == nil {
		invoices = []invoice.Invoice{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{
		Invoices: invoices,
		Total:    total,
		Limit:    req.Limit,
		Offset:   req.Offset,
	})
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.invoiceID(w, r)
	if !ok {
		return
	}
	var req invoice.UpdateStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed Request", "invalid JSON body")
		return
	}
	inv, err := h.service.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

type documentResponse struct {
	PDFURL    string `json:"pdf_url"`
	ExpiresIn int64  `json:"expires_in"`
}

func (h *Handler) RenderDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := h.invoiceID(w, r)
	if !ok {
		return
	}
	inv, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	ref, err := h.documents.Render(r.Context(), inv)
	if err != nil {
		h.logger.Error("render document",
			slog.String("invoice_id", id.String()),
			slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.metrics.DocumentRendered()
	httpx.JSON(w, http.StatusOK, documentResponse{PDFURL: ref.URL, ExpiresIn: ref.ExpiresIn})
}

func (h *Handler) invoiceID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed Request", "invalid invoice id")
		return uuid.Nil, false
	}
	return id, true
}

func parseListRequest(r *http.Request) (invoice.ListInvoicesRequest, error) {
	q := r.URL.Query()
	req := invoice.ListInvoicesRequest{Limit: 10}

	if raw := q.Get("status"); raw != "" {
		status := invoice.Status(raw)
		if !invoice.ValidStatus(status) {
			return req, &invoice.ValidationError{Field: "status", Reason: "unknown status " + raw}
		}
		req.Status = &status
	}
	if raw := q.Get("customer_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return req, &invoice.ValidationError{Field: "customer_id", Reason: "must be a UUID"}
		}
		req.CustomerID = &id
	}
	for field, dest := range map[string]**time.Time{
		"start_date": &req.StartDate,
		"end_date":   &req.EndDate,
	} {
		if raw := q.Get(field); raw != "" {
			ts, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return req, &invoice.ValidationError{Field: field, Reason: "must be an RFC3339 timestamp"}
			}
			*dest = &ts
		}
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > 100 {
			return req, &invoice.ValidationError{Field: "limit", Reason: "must be between 1 and 100"}
		}
		req.Limit = limit
	}
	if raw := q.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return req, &invoice.ValidationError{Field: "page", Reason: "must be a positive integer"}
		}
		req.Offset = (page - 1) * req.Limit
	}
	return req, nil
}
