package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/returnsapi/internal/domain"
	"github.com/jafarshop/returnsapi/pkg/errors"
)

type refundTransactionRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRefundTransactionRepository creates a new refund transaction repository
func NewRefundTransactionRepository(db *sql.DB, logger *zap.Logger) *refundTransactionRepository {
	return &refundTransactionRepository{
		db:     db,
		logger: logger,
	}
}

func (r *refundTransactionRepository) Create(ctx context.Context, txn *domain.RefundTransaction) error {
	query := `
		INSERT INTO refund_transactions (
			id, transaction_number, return_request_id, order_id, gateway_payment_id,
			razorpay_refund_id, refund_amount, status, notes, initiated_by, processed_at,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}

	_, err := r.db.ExecContext(ctx, query,
		txn.ID,
		txn.TransactionNumber,
		txn.ReturnRequestID,
		txn.OrderID,
		txn.GatewayPaymentID,
		txn.RazorpayRefundID,
		txn.RefundAmount,
		txn.Status,
		txn.Notes,
		txn.InitiatedBy,
		txn.ProcessedAt,
		txn.CreatedAt,
		txn.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return errors.ErrDuplicate
	}
	if err != nil {
		r.logger.Error("Failed to create refund transaction", zap.Error(err))
		return err
	}

	return nil
}

func (r *refundTransactionRepository) GetLatestByReturnRequestID(ctx context.Context, returnRequestID uuid.UUID) (*domain.RefundTransaction, error) {
	query := `
		SELECT id, transaction_number, return_request_id, order_id, gateway_payment_id,
		       razorpay_refund_id, refund_amount, status, notes, initiated_by, processed_at,
		       created_at, updated_at
		FROM refund_transactions
		WHERE return_request_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	var txn domain.RefundTransaction
	var refundID, notes sql.NullString
	var processedAt sql.NullTime

	err := r.db.QueryRowContext(ctx, query, returnRequestID).Scan(
		&txn.ID,
		&txn.TransactionNumber,
		&txn.ReturnRequestID,
		&txn.OrderID,
		&txn.GatewayPaymentID,
		&refundID,
		&txn.RefundAmount,
		&txn.Status,
		&notes,
		&txn.InitiatedBy,
		&processedAt,
		&txn.CreatedAt,
		&txn.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "refund transaction", ID: returnRequestID.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get refund transaction", zap.Error(err))
		return nil, err
	}

	txn.RazorpayRefundID = stringPtr(refundID)
	txn.Notes = stringPtr(notes)
	txn.ProcessedAt = timePtr(processedAt)

	return &txn, nil
}

func (r *refundTransactionRepository) Update(ctx context.Context, txn *domain.RefundTransaction) error {
	query := `
		UPDATE refund_transactions SET
			razorpay_refund_id = $2,
			status = $3,
			notes = $4,
			processed_at = $5,
			updated_at = $6
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query,
		txn.ID,
		txn.RazorpayRefundID,
		txn.Status,
		txn.Notes,
		txn.ProcessedAt,
		txn.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to update refund transaction", zap.Error(err))
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &errors.ErrNotFound{Resource: "refund transaction", ID: txn.ID.String()}
	}

	return nil
}
