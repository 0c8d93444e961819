package invoicehttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/otpless/invoice-service/internal/auth"
	"github.com/otpless/invoice-service/internal/document"
	"github.com/otpless/invoice-service/internal/invoice"
	"github.com/otpless/invoice-service/internal/notify"
	"github.com/otpless/invoice-service/internal/observability"
)

type memoryStore struct {
	invoices map[uuid.UUID]*invoice.Invoice
}

func (s *memoryStore) Get(ctx context.Context, id uuid.UUID) (*invoice.Invoice, error) {
	inv, ok := s.invoices[id]
	if !ok {
		return nil, invoice.ErrNotFound
	}
	clone := *inv
	return &clone, nil
}

func (s *memoryStore) Put(ctx context.Context, inv *invoice.Invoice) error {
	clone := *inv
	s.invoices[inv.ID] = &clone
	return nil
}

func (s *memoryStore) List(ctx context.Context, req invoice.ListInvoicesRequest) ([]invoice.Invoice, int, error) {
	var out []invoice.Invoice
	for _, inv := range s.invoices {
		if req.Status != nil && inv.Status != *req.Status {
			continue
		}
		out = append(out, *inv)
	}
	return out, len(out), nil
}

type sequenceAllocator struct {
	seq int
}

func (a *sequenceAllocator) Allocate(ctx context.Context, issueDate time.Time) (string, error) {
	a.seq++
	return fmt.Sprintf("INV-1001-%s-%04d", issueDate.UTC().Format("200601"), a.seq), nil
}

type stubDocuments struct {
	ref *document.Ref
	err error
}

func (d *stubDocuments) Render(ctx context.Context, inv *invoice.Invoice) (*document.Ref, error) {
	return d.ref, d.err
}

func newTestRouter(t *testing.T, documents DocumentService) (http.Handler, *memoryStore, *invoice.Service) {
	t.Helper()
	cfg, err := invoice.NewConfig(
		[]string{"USD", "INR", "IDR"},
		map[string]string{"GST": "0.18", "IGST": "0.18"},
		"Maharashtra",
		1001,
	)
	require.NoError(t, err)

	store := &memoryStore{invoices: make(map[uuid.UUID]*invoice.Invoice)}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := invoice.NewService(cfg, store, &sequenceAllocator{}, notify.NopNotifier{}, logger)
	handler := NewHandler(logger, svc, documents, observability.NewMetrics())

	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := &auth.Principal{TokenID: uuid.New(), Subject: "test", Scopes: []string{auth.ScopeAll}}
			next.ServeHTTP(w, r.WithContext(auth.ContextWithPrincipal(r.Context(), p)))
		})
	})
	Routes(router, handler, auth.NewService(nil))
	return router, store, svc
}

func createRequestBody() map[string]any {
	return map[string]any{
		"customer_id":   uuid.NewString(),
		"currency_code": "USD",
		"line_items": []map[string]any{{
			"service_name":  "OTP verification",
			"description":   "SMS one-time passwords, August",
			"quantity":      1000,
			"unit_price":    "0.01",
			"currency_code": "USD",
		}},
		"customer_details": map[string]any{
			"name":    "Acme Corp",
			"address": "42 MG Road, Bengaluru",
			"tax_id":  "29AAACA1234A1Z5",
			"state":   "Karnataka",
		},
	}
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestCreateInvoiceEndpoint(t *testing.T) {
	router, _, _ := newTestRouter(t, &stubDocuments{})

	rr := doJSON(t, router, http.MethodPost, "/api/v1/invoices", createRequestBody())
	require.Equal(t, http.StatusCreated, rr.Code)

	var inv invoice.Invoice
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &inv))
	require.Equal(t, invoice.StatusDraft, inv.Status)
	require.Equal(t, "10.00", inv.Subtotal.StringFixed(2))
	require.Equal(t, "1.80", inv.TaxAmount.StringFixed(2))
	require.Equal(t, "11.80", inv.TotalAmount.StringFixed(2))
	require.NotNil(t, inv.TaxType)
	require.Equal(t, invoice.TaxTypeIGST, *inv.TaxType)
	require.NotEmpty(t, inv.Number())
}

func TestCreateInvoiceEndpointValidation(t *testing.T) {
	router, _, _ := newTestRouter(t, &stubDocuments{})

	body := createRequestBody()
	body["currency_code"] = "EUR"
	rr := doJSON(t, router, http.MethodPost, "/api/v1/invoices", body)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices", bytes.NewReader([]byte("{not json")))
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetInvoiceEndpoint(t *testing.T) {
	router, _, svc := newTestRouter(t, &stubDocuments{})
	inv, err := svc.Create(context.Background(), validCreateRequest(t))
	require.NoError(t, err)

	rr := doJSON(t, router, http.MethodGet, "/api/v1/invoices/"+inv.ID.String(), nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, router, http.MethodGet, "/api/v1/invoices/"+uuid.NewString(), nil)
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = doJSON(t, router, http.MethodGet, "/api/v1/invoices/not-a-uuid", nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestListInvoicesEndpoint(t *testing.T) {
	router, _, svc := newTestRouter(t, &stubDocuments{})
	_, err := svc.Create(context.Background(), validCreateRequest(t))
	require.NoError(t, err)

	rr := doJSON(t, router, http.MethodGet, "/api/v1/invoices?status=DRAFT&limit=20&page=1", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Invoices []invoice.Invoice `json:"invoices"`
		Total    int               `json:"total"`
		Limit    int               `json:"limit"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Total)
	require.Len(t, resp.Invoices, 1)
	require.Equal(t, 20, resp.Limit)

	rr = doJSON(t, router, http.MethodGet, "/api/v1/invoices?status=ARCHIVED", nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doJSON(t, router, http.MethodGet, "/api/v1/invoices?limit=500", nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUpdateStatusEndpoint(t *testing.T) {
	router, _, svc := newTestRouter(t, &stubDocuments{})
	inv, err := svc.Create(context.Background(), validCreateRequest(t))
	require.NoError(t, err)
	path := "/api/v1/invoices/" + inv.ID.String() + "/status"

	rr := doJSON(t, router, http.MethodPatch, path, map[string]string{"status": "PENDING"})
	require.Equal(t, http.StatusOK, rr.Code)

	var updated invoice.Invoice
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &updated))
	require.Equal(t, invoice.StatusPending, updated.Status)

	// DRAFT is no longer reachable.
	rr = doJSON(t, router, http.MethodPatch, path, map[string]string{"status": "DRAFT"})
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRenderDocumentEndpoint(t *testing.T) {
	ref := &document.Ref{
		Key:       "invoices/INV-1001-202608-0001/doc.pdf",
		URL:       "https://bucket.example.com/doc.pdf?sig=test",
		ExpiresIn: 3600,
	}
	router, _, svc := newTestRouter(t, &stubDocuments{ref: ref})
	inv, err := svc.Create(context.Background(), validCreateRequest(t))
	require.NoError(t, err)

	rr := doJSON(t, router, http.MethodPost, "/api/v1/invoices/"+inv.ID.String()+"/pdf", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		PDFURL    string `json:"pdf_url"`
		ExpiresIn int64  `json:"expires_in"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, ref.URL, resp.PDFURL)
	require.EqualValues(t, 3600, resp.ExpiresIn)
}

func TestRenderDocumentEndpointIncomplete(t *testing.T) {
	router, _, svc := newTestRouter(t, &stubDocuments{err: invoice.ErrIncompleteInvoice})
	inv, err := svc.Create(context.Background(), validCreateRequest(t))
	require.NoError(t, err)

	rr := doJSON(t, router, http.MethodPost, "/api/v1/invoices/"+inv.ID.String()+"/pdf", nil)
	require.Equal(t, http.StatusConflict, rr.Code)
}

func TestRoutesRequireScope(t *testing.T) {
	cfg, err := invoice.NewConfig(
		[]string{"USD"},
		map[string]string{"GST": "0.18", "IGST": "0.18"},
		"Maharashtra",
		1001,
	)
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := &memoryStore{invoices: make(map[uuid.UUID]*invoice.Invoice)}
	svc := invoice.NewService(cfg, store, &sequenceAllocator{}, notify.NopNotifier{}, logger)
	handler := NewHandler(logger, svc, &stubDocuments{}, observability.NewMetrics())
	authz := auth.NewService(nil)

	router := chi.NewRouter()
	Routes(router, handler, authz)

	// No principal in context at all.
	rr := doJSON(t, router, http.MethodGet, "/api/v1/invoices", nil)
	require.Equal(t, http.StatusForbidden, rr.Code)

	// Read-only tokens cannot create.
	reader := chi.NewRouter()
	reader.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := &auth.Principal{Scopes: []string{auth.ActionInvoicesRead}}
			next.ServeHTTP(w, r.WithContext(auth.ContextWithPrincipal(r.Context(), p)))
		})
	})
	Routes(reader, handler, authz)
	rr = doJSON(t, reader, http.MethodPost, "/api/v1/invoices", createRequestBody())
	require.Equal(t, http.StatusForbidden, rr.Code)
}

func validCreateRequest(t *testing.T) invoice.CreateInvoiceRequest {
	t.Helper()
	var req invoice.CreateInvoiceRequest
	data, err := json.Marshal(createRequestBody())
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &req))
	return req
}
