package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/jafarshop/returnsapi/internal/domain"
	"github.com/jafarshop/returnsapi/pkg/errors"
)

type operatorRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewOperatorRepository creates a new operator repository
func NewOperatorRepository(db *sql.DB, logger *zap.Logger) *operatorRepository {
	return &operatorRepository{
		db:     db,
		logger: logger,
	}
}

func (r *operatorRepository) GetByAPIKey(ctx context.Context, apiKey string) (*domain.Operator, error) {
	query := `
		SELECT id, name, api_key_hash, is_active, created_at, updated_at
		FROM operators
		WHERE api_key_lookup = $1 AND is_active = true
	`

	var op domain.Operator
	err := r.db.QueryRowContext(ctx, query, domain.APIKeyLookup(apiKey)).Scan(
		&op.ID,
		&op.Name,
		&op.APIKeyHash,
		&op.IsActive,
		&op.CreatedAt,
		&op.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, &errors.ErrUnauthorized{Message: "invalid API key"}
	}
	if err != nil {
		r.logger.Error("Failed to query operator", zap.Error(err))
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(op.APIKeyHash), []byte(apiKey)); err != nil {
		return nil, &errors.ErrUnauthorized{Message: "invalid API key"}
	}

	return &op, nil
}

func (r *operatorRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Operator, error) {
	query := `
		SELECT id, name, api_key_hash, is_active, created_at, updated_at
		FROM operators
		WHERE id = $1
	`

	var op domain.Operator
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&op.ID,
		&op.Name,
		&op.APIKeyHash,
		&op.IsActive,
		&op.CreatedAt,
		&op.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "operator", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get operator by ID", zap.Error(err))
		return nil, err
	}

	return &op, nil
}

func (r *operatorRepository) Create(ctx context.Context, op *domain.Operator) error {
	query := `
		INSERT INTO operators (id, name, api_key_hash, api_key_lookup, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	now := time.Now()
	if op.ID == uuid.Nil {
		op.ID = uuid.New()
	}
	if op.CreatedAt.IsZero() {
		op.CreatedAt = now
	}
	if op.UpdatedAt.IsZero() {
		op.UpdatedAt = now
	}

	_, err := r.db.ExecContext(ctx, query,
		op.ID,
		op.Name,
		op.APIKeyHash,
		op.APIKeyLookup,
		op.IsActive,
		op.CreatedAt,
		op.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return errors.ErrDuplicate
	}
	if err != nil {
		r.logger.Error("Failed to create operator", zap.Error(err))
		return err
	}

	return nil
}
