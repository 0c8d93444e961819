package document

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/otpless/invoice-service/internal/invoice"
)

const storagePrefix = "invoices/"

// Renderer converts HTML into document bytes.
type Renderer interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// Storage persists document bytes and signs retrieval URLs.
type Storage interface {
	Put(ctx context.Context, key string, data []byte, metadata map[string]string) error
	SignedURL(key string, ttl time.Duration) (string, error)
}

// Ref is the opaque retrieval handle returned to callers.
type Ref struct {
	Key       string `json:"key"`
	URL       string `json:"url"`
	ExpiresIn int64  `json:"expires_in"`
}

// Service turns a finished invoice into a stored PDF behind a signed URL.
// Rendering and storage may fail or time out; callers wrap Render with
// their own timeout and retry policy.
type Service struct {
	renderer Renderer
	storage  Storage
	cache    *URLCache
	tplCfg   TemplateConfig
	urlTTL   time.Duration
	logger   *slog.Logger
}

func NewService(renderer Renderer, storage Storage, cache *URLCache, tplCfg TemplateConfig, urlTTL time.Duration, logger *slog.Logger) *Service {
	return &Service{
		renderer: renderer,
		storage:  storage,
		cache:    cache,
		tplCfg:   tplCfg,
		urlTTL:   urlTTL,
		logger:   logger,
	}
}

// Render produces the invoice document and returns its retrieval handle.
// The invoice must already carry a number and at least one line item.
func (s *Service) Render(ctx context.Context, inv *invoice.Invoice) (*Ref, error) {
	if inv.Number() == "" || len(inv.LineItems) == 0 {
		return nil, invoice.ErrIncompleteInvoice
	}

	if ref := s.cache.Get(ctx, inv.ID); ref != nil {
		return ref, nil
	}

	html, err := buildHTML(inv, s.tplCfg)
	if err != nil {
		return nil, err
	}

	pdf, err := s.renderer.RenderHTML(ctx, html)
	if err != nil {
		return nil, fmt.Errorf("render document: %w", err)
	}

	key := fmt.Sprintf("%s%s/%s.pdf", storagePrefix, inv.Number(), uuid.NewString())
	metadata := map[string]string{
		"invoice_number": inv.Number(),
		"generated_at":   time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.storage.Put(ctx, key, pdf, metadata); err != nil {
		return nil, fmt.Errorf("store document: %w", err)
	}

	url, err := s.storage.SignedURL(key, s.urlTTL)
	if err != nil {
		return nil, fmt.Errorf("sign document url: %w", err)
	}

	ref := &Ref{Key: key, URL: url, ExpiresIn: int64(s.urlTTL.Seconds())}
	s.cache.Set(ctx, inv.ID, ref)
	s.logger.Info("document rendered",
		slog.String("invoice_number", inv.Number()),
		slog.String("key", key))
	return ref, nil
}
