package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/returnsapi/internal/domain"
)

type statusHistoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewStatusHistoryRepository creates a new status history repository
func NewStatusHistoryRepository(db *sql.DB, logger *zap.Logger) *statusHistoryRepository {
	return &statusHistoryRepository{
		db:     db,
		logger: logger,
	}
}

func (r *statusHistoryRepository) Create(ctx context.Context, entry *domain.StatusHistory) error {
	query := `
		INSERT INTO return_status_history (id, return_request_id, from_status, to_status, changed_by, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.ReturnRequestID,
		entry.FromStatus,
		entry.ToStatus,
		entry.ChangedBy,
		entry.Notes,
		entry.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create status history entry",
			zap.String("return_request_id", entry.ReturnRequestID.String()),
			zap.Error(err),
		)
		return err
	}

	return nil
}

func (r *statusHistoryRepository) ListByReturnRequestID(ctx context.Context, returnRequestID uuid.UUID) ([]*domain.StatusHistory, error) {
	query := `
		SELECT id, return_request_id, from_status, to_status, changed_by, notes, created_at
		FROM return_status_history
		WHERE return_request_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.db.QueryContext(ctx, query, returnRequestID)
	if err != nil {
		r.logger.Error("Failed to query status history", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.StatusHistory
	for rows.Next() {
		var entry domain.StatusHistory
		var fromStatus, notes sql.NullString

		if err := rows.Scan(
			&entry.ID,
			&entry.ReturnRequestID,
			&fromStatus,
			&entry.ToStatus,
			&entry.ChangedBy,
			&notes,
			&entry.CreatedAt,
		); err != nil {
			r.logger.Error("Failed to scan status history", zap.Error(err))
			return nil, err
		}

		if fromStatus.Valid {
			from := domain.ReturnStatus(fromStatus.String)
			entry.FromStatus = &from
		}
		entry.Notes = stringPtr(notes)
		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}
