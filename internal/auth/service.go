package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidToken indicates the bearer token could not be authenticated.
var ErrInvalidToken = errors.New("invalid api token")

// TokenRecord is a stored API token.
type TokenRecord struct {
	ID        uuid.UUID
	Subject   string
	TokenHash []byte
	Scopes    []string
}

// Repository looks up API tokens.
type Repository interface {
	GetToken(ctx context.Context, id uuid.UUID) (*TokenRecord, error)
}

// Service authenticates bearer tokens of the form "<token-id>.<secret>"
// where the secret is verified against a bcrypt hash.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate resolves a bearer token into a principal.
func (s *Service) Authenticate(ctx context.Context, token string) (*Principal, error) {
	idPart, secret, found := strings.Cut(token, ".")
	if !found || secret == "" {
		return nil, ErrInvalidToken
	}
	id, err := uuid.Parse(idPart)
	if err != nil {
		return nil, ErrInvalidToken
	}
	record, err := s.repo.GetToken(ctx, id)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if err := bcrypt.CompareHashAndPassword(record.TokenHash, []byte(secret)); err != nil {
		return nil, ErrInvalidToken
	}
	return &Principal{TokenID: record.ID, Subject: record.Subject, Scopes: record.Scopes}, nil
}

// Authorize reports whether the principal may perform the action on the
// invoice. Grants are not invoice-specific today, but the invoice id is
// part of the contract so row-level rules can slot in without touching
// callers.
func (s *Service) Authorize(p *Principal, action string, invoiceID uuid.UUID) bool {
	return p.Can(action)
}
