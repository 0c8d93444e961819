package invoice

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Events emitted to the notifier.
const (
	EventInvoiceCreated       = "invoice.created"
	EventInvoiceStatusChanged = "invoice.status_changed"
)

// Store abstracts invoice persistence. A stored invoice must round-trip
// with every field intact; the service dictates no schema.
type Store interface {
	Get(ctx context.Context, id uuid.UUID) (*Invoice, error)
	Put(ctx context.Context, inv *Invoice) error
	List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error)
}

// NumberAllocator produces globally unique invoice numbers. Implementations
// must guarantee that no two concurrent callers ever receive the same
// identifier; a process-local non-atomic counter is not acceptable.
type NumberAllocator interface {
	Allocate(ctx context.Context, issueDate time.Time) (string, error)
}

// Notifier delivers lifecycle events. Delivery is fire-and-forget:
// implementations log failures instead of returning them.
type Notifier interface {
	Notify(ctx context.Context, event string, inv *Invoice)
}

// Service orchestrates validation, tax resolution, totals computation,
// number allocation and lifecycle transitions.
type Service struct {
	cfg       *Config
	store     Store
	allocator NumberAllocator
	notifier  Notifier
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(cfg *Config, store Store, allocator NumberAllocator, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{
		cfg:       cfg,
		store:     store,
		allocator: allocator,
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
	}
}

// Generate builds a complete, validated invoice from raw input: field
// validation, tax resolution, totals computation, number allocation (when
// absent) and the initial DRAFT status. Beyond the allocator call it has no
// side effects, and the first failing step's error surfaces unwrapped.
func (s *Service) Generate(ctx context.Context, req CreateInvoiceRequest) (*Invoice, error) {
	inv, err := newInvoice(req, s.cfg, s.now().UTC())
	if err != nil {
		return nil, err
	}

	taxType, err := ResolveTaxType(inv.CustomerDetails.State, s.cfg.IssuerState())
	if err != nil {
		return nil, err
	}
	inv.TaxType = &taxType

	if err := inv.recomputeTotals(s.cfg); err != nil {
		return nil, err
	}

	if _, err := s.allocateNumber(ctx, inv); err != nil {
		return nil, err
	}

	inv.Status = StatusDraft
	return inv, nil
}

// allocateNumber assigns an invoice number at most once. When a number is
// already present the call is a no-op returning the existing value.
func (s *Service) allocateNumber(ctx context.Context, inv *Invoice) (string, error) {
	if inv.InvoiceNumber != nil {
		return *inv.InvoiceNumber, nil
	}
	number, err := s.allocator.Allocate(ctx, inv.IssueDate)
	if err != nil {
		return "", fmt.Errorf("allocate invoice number: %w", err)
	}
	inv.InvoiceNumber = &number
	return number, nil
}

// Create generates an invoice, persists it and emits invoice.created.
func (s *Service) Create(ctx context.Context, req CreateInvoiceRequest) (*Invoice, error) {
	inv, err := s.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.store.Put(ctx, inv); err != nil {
		return nil, fmt.Errorf("store invoice: %w", err)
	}
	s.logger.Info("invoice generated",
		slog.String("invoice_number", inv.Number()),
		slog.String("customer_id", inv.CustomerID.String()))
	s.notifier.Notify(ctx, EventInvoiceCreated, inv)
	return inv, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error) {
	if err := structErr(validate.Struct(req)); err != nil {
		return nil, 0, err
	}
	if req.Limit == 0 {
		req.Limit = 10
	}
	return s.store.List(ctx, req)
}

// CheckTransition is a pure read of the lifecycle graph for the stored
// invoice; it mutates nothing.
func (s *Service) CheckTransition(ctx context.Context, id uuid.UUID, target Status) (bool, error) {
	inv, err := s.store.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return CanTransition(inv.Status, target), nil
}

// UpdateStatus applies a lifecycle transition after validating it, persists
// the result and emits invoice.status_changed. Illegal transitions fail
// with InvalidTransitionError and leave the stored invoice untouched.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, target Status) (*Invoice, error) {
	inv, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := inv.Transition(target); err != nil {
		return nil, err
	}
	inv.UpdatedAt = s.now().UTC()
	if err := s.store.Put(ctx, inv); err != nil {
		return nil, fmt.Errorf("store invoice: %w", err)
	}
	s.logger.Info("invoice status updated",
		slog.String("invoice_number", inv.Number()),
		slog.String("status", string(inv.Status)))
	s.notifier.Notify(ctx, EventInvoiceStatusChanged, inv)
	return inv, nil
}
