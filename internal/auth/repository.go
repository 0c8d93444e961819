package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGRepository reads API tokens from PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) GetToken(ctx context.Context, id uuid.UUID) (*TokenRecord, error) {
	var record TokenRecord
	err := r.pool.QueryRow(ctx, `
		SELECT id, subject, token_hash, scopes
		FROM api_tokens
		WHERE id = $1 AND revoked_at IS NULL
	`, id).Scan(&record.ID, &record.Subject, &record.TokenHash, &record.Scopes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return &record, nil
}
