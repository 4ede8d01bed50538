package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jafarshop/returnsapi/internal/domain"
	"github.com/jafarshop/returnsapi/internal/repository"
	"github.com/jafarshop/returnsapi/pkg/errors"
)

const returnRequestColumns = `
	id, return_number, order_id, customer_id, request_type, reason, description,
	pickup_address, image_urls, video_url, status,
	original_order_amount, calculated_refund_amount, deduction_amount, final_refund_amount,
	return_address_line1, return_address_line2, return_address_city, return_address_state,
	return_address_postal_code, return_address_country,
	customer_tracking_number, customer_courier_name, customer_shipped_date,
	received_by, received_date, inspected_by, inspection_date, inspection_status, inspection_notes,
	decision_by, decision_date, cancellation_reason, admin_notes, created_at, updated_at`

type returnRequestRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewReturnRequestRepository creates a new return request repository
func NewReturnRequestRepository(db *sql.DB, logger *zap.Logger) *returnRequestRepository {
	return &returnRequestRepository{
		db:     db,
		logger: logger,
	}
}

func (r *returnRequestRepository) Create(ctx context.Context, req *domain.ReturnRequest) error {
	query := `
		INSERT INTO return_requests (
			id, return_number, order_id, customer_id, request_type, reason, description,
			pickup_address, image_urls, video_url, status, original_order_amount,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.db.ExecContext(ctx, query,
		req.ID,
		req.ReturnNumber,
		req.OrderID,
		req.CustomerID,
		req.RequestType,
		req.Reason,
		req.Description,
		req.PickupAddress,
		pq.Array(req.ImageURLs),
		req.VideoURL,
		req.Status,
		req.OriginalOrderAmount,
		req.CreatedAt,
		req.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return errors.ErrDuplicate
	}
	if err != nil {
		r.logger.Error("Failed to create return request", zap.Error(err))
		return err
	}

	return nil
}

func (r *returnRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ReturnRequest, error) {
	query := `SELECT ` + returnRequestColumns + ` FROM return_requests WHERE id = $1`

	req, err := scanReturnRequest(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "return request", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get return request by ID", zap.Error(err))
		return nil, err
	}

	return req, nil
}

func (r *returnRequestRepository) GetByReturnNumber(ctx context.Context, returnNumber string) (*domain.ReturnRequest, error) {
	query := `SELECT ` + returnRequestColumns + ` FROM return_requests WHERE return_number = $1`

	req, err := scanReturnRequest(r.db.QueryRowContext(ctx, query, returnNumber))
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "return request", ID: returnNumber}
	}
	if err != nil {
		r.logger.Error("Failed to get return request by number", zap.Error(err))
		return nil, err
	}

	return req, nil
}

func (r *returnRequestRepository) List(ctx context.Context, filter repository.ReturnFilter) ([]*domain.ReturnRequest, error) {
	var conditions []string
	var args []any

	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.CustomerID != nil {
		args = append(args, *filter.CustomerID)
		conditions = append(conditions, fmt.Sprintf("customer_id = $%d", len(args)))
	}
	if filter.OrderID != nil {
		args = append(args, *filter.OrderID)
		conditions = append(conditions, fmt.Sprintf("order_id = $%d", len(args)))
	}

	query := `SELECT ` + returnRequestColumns + ` FROM return_requests`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list return requests", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var requests []*domain.ReturnRequest
	for rows.Next() {
		req, err := scanReturnRequest(rows)
		if err != nil {
			r.logger.Error("Failed to scan return request", zap.Error(err))
			return nil, err
		}
		requests = append(requests, req)
	}

	return requests, rows.Err()
}

func (r *returnRequestRepository) Update(ctx context.Context, req *domain.ReturnRequest, expected domain.ReturnStatus) error {
	if err := updateReturnRequest(ctx, r.db, req, expected); err != nil {
		if _, ok := err.(*errors.ErrInvalidStateTransition); !ok {
			r.logger.Error("Failed to update return request", zap.Error(err))
		}
		return err
	}
	return nil
}

func (r *returnRequestRepository) SaveInspection(
	ctx context.Context,
	req *domain.ReturnRequest,
	expected domain.ReturnStatus,
	items []*domain.ReturnItem,
) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.Error("Failed to begin inspection transaction", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	for _, item := range items {
		if err := updateInspectedItem(ctx, tx, item); err != nil {
			r.logger.Error("Failed to update inspected item",
				zap.String("return_item_id", item.ID.String()),
				zap.Error(err),
			)
			return err
		}
	}

	if err := updateReturnRequest(ctx, tx, req, expected); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("Failed to commit inspection", zap.Error(err))
		return err
	}

	return nil
}

func (r *returnRequestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM return_requests WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete return request", zap.Error(err))
		return err
	}
	return nil
}

func updateReturnRequest(ctx context.Context, db execer, req *domain.ReturnRequest, expected domain.ReturnStatus) error {
	query := `
		UPDATE return_requests SET
			status = $3,
			calculated_refund_amount = $4,
			deduction_amount = $5,
			final_refund_amount = $6,
			return_address_line1 = $7,
			return_address_line2 = $8,
			return_address_city = $9,
			return_address_state = $10,
			return_address_postal_code = $11,
			return_address_country = $12,
			customer_tracking_number = $13,
			customer_courier_name = $14,
			customer_shipped_date = $15,
			received_by = $16,
			received_date = $17,
			inspected_by = $18,
			inspection_date = $19,
			inspection_status = $20,
			inspection_notes = $21,
			decision_by = $22,
			decision_date = $23,
			cancellation_reason = $24,
			admin_notes = $25,
			updated_at = $26
		WHERE id = $1 AND status = $2
	`

	res, err := db.ExecContext(ctx, query,
		req.ID,
		expected,
		req.Status,
		req.CalculatedRefundAmount,
		req.DeductionAmount,
		req.FinalRefundAmount,
		req.ReturnAddress.Line1,
		req.ReturnAddress.Line2,
		req.ReturnAddress.City,
		req.ReturnAddress.State,
		req.ReturnAddress.PostalCode,
		req.ReturnAddress.Country,
		req.CustomerTrackingNumber,
		req.CustomerCourierName,
		req.CustomerShippedDate,
		req.ReceivedBy,
		req.ReceivedDate,
		req.InspectedBy,
		req.InspectionDate,
		req.InspectionStatus,
		req.InspectionNotes,
		req.DecisionBy,
		req.DecisionDate,
		req.CancellationReason,
		req.AdminNotes,
		req.UpdatedAt,
	)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// The row moved on since it was read
		return &errors.ErrInvalidStateTransition{From: string(expected), To: string(req.Status)}
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReturnRequest(row rowScanner) (*domain.ReturnRequest, error) {
	var req domain.ReturnRequest
	var (
		videoURL, trackingNumber, courierName     sql.NullString
		receivedBy, inspectedBy, inspectionStatus sql.NullString
		inspectionNotes, decisionBy               sql.NullString
		cancellationReason, adminNotes            sql.NullString
		calculated, deduction, final              decimal.NullDecimal
		shippedDate, receivedDate, inspectionDate sql.NullTime
		decisionDate                              sql.NullTime
		imageURLs                                 pq.StringArray
	)

	err := row.Scan(
		&req.ID,
		&req.ReturnNumber,
		&req.OrderID,
		&req.CustomerID,
		&req.RequestType,
		&req.Reason,
		&req.Description,
		&req.PickupAddress,
		&imageURLs,
		&videoURL,
		&req.Status,
		&req.OriginalOrderAmount,
		&calculated,
		&deduction,
		&final,
		&req.ReturnAddress.Line1,
		&req.ReturnAddress.Line2,
		&req.ReturnAddress.City,
		&req.ReturnAddress.State,
		&req.ReturnAddress.PostalCode,
		&req.ReturnAddress.Country,
		&trackingNumber,
		&courierName,
		&shippedDate,
		&receivedBy,
		&receivedDate,
		&inspectedBy,
		&inspectionDate,
		&inspectionStatus,
		&inspectionNotes,
		&decisionBy,
		&decisionDate,
		&cancellationReason,
		&adminNotes,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	req.ImageURLs = []string(imageURLs)
	req.VideoURL = stringPtr(videoURL)
	req.CalculatedRefundAmount = decimalPtr(calculated)
	req.DeductionAmount = decimalPtr(deduction)
	req.FinalRefundAmount = decimalPtr(final)
	req.CustomerTrackingNumber = stringPtr(trackingNumber)
	req.CustomerCourierName = stringPtr(courierName)
	req.CustomerShippedDate = timePtr(shippedDate)
	req.ReceivedBy = stringPtr(receivedBy)
	req.ReceivedDate = timePtr(receivedDate)
	req.InspectedBy = stringPtr(inspectedBy)
	req.InspectionDate = timePtr(inspectionDate)
	if inspectionStatus.Valid {
		status := domain.InspectionStatus(inspectionStatus.String)
		req.InspectionStatus = &status
	}
	req.InspectionNotes = stringPtr(inspectionNotes)
	req.DecisionBy = stringPtr(decisionBy)
	req.DecisionDate = timePtr(decisionDate)
	req.CancellationReason = stringPtr(cancellationReason)
	req.AdminNotes = stringPtr(adminNotes)

	return &req, nil
}
