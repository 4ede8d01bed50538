package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/returnsapi/internal/domain"
	"github.com/jafarshop/returnsapi/pkg/errors"
)

type idempotencyKeyRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewIdempotencyKeyRepository creates a new idempotency key repository
func NewIdempotencyKeyRepository(db *sql.DB, logger *zap.Logger) *idempotencyKeyRepository {
	return &idempotencyKeyRepository{
		db:     db,
		logger: logger,
	}
}

func (r *idempotencyKeyRepository) Get(ctx context.Context, key string, customerID uuid.UUID) (*domain.IdempotencyKey, error) {
	query := `
		SELECT key, customer_id, return_request_id, request_hash, created_at
		FROM idempotency_keys
		WHERE key = $1 AND customer_id = $2
	`

	var ik domain.IdempotencyKey
	err := r.db.QueryRowContext(ctx, query, key, customerID).Scan(
		&ik.Key,
		&ik.CustomerID,
		&ik.ReturnRequestID,
		&ik.RequestHash,
		&ik.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "idempotency key", ID: key}
	}
	if err != nil {
		r.logger.Error("Failed to get idempotency key", zap.Error(err))
		return nil, err
	}

	return &ik, nil
}

func (r *idempotencyKeyRepository) Create(ctx context.Context, ik *domain.IdempotencyKey) error {
	query := `
		INSERT INTO idempotency_keys (key, customer_id, return_request_id, request_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(ctx, query,
		ik.Key,
		ik.CustomerID,
		ik.ReturnRequestID,
		ik.RequestHash,
		ik.CreatedAt,
	)
	if isUniqueViolation(err) {
		return errors.ErrDuplicate
	}
	if err != nil {
		r.logger.Error("Failed to create idempotency key", zap.Error(err))
		return err
	}

	return nil
}
