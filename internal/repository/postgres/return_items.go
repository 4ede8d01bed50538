package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jafarshop/returnsapi/internal/domain"
	"github.com/jafarshop/returnsapi/pkg/errors"
)

type returnItemRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewReturnItemRepository creates a new return item repository
func NewReturnItemRepository(db *sql.DB, logger *zap.Logger) *returnItemRepository {
	return &returnItemRepository{
		db:     db,
		logger: logger,
	}
}

const returnableQuantityQuery = `
	SELECT oi.quantity,
	       COALESCE((
	           SELECT SUM(ri.quantity)
	           FROM return_items ri
	           JOIN return_requests rr ON rr.id = ri.return_request_id
	           WHERE ri.order_item_id = oi.id
	             AND rr.status NOT IN ('cancelled', 'rejected')
	       ), 0)
	FROM order_items oi
	WHERE oi.id = $1
`

// CreateBatch inserts all items in one transaction. The order row is locked
// first so concurrent requests against the same order claim quantities in turn.
func (r *returnItemRepository) CreateBatch(ctx context.Context, items []*domain.ReturnItem) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.Error("Failed to begin return item transaction", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	if err := lockOrderOfRequest(ctx, tx, items[0].ReturnRequestID); err != nil {
		r.logger.Error("Failed to lock order for return items", zap.Error(err))
		return err
	}

	query := `
		INSERT INTO return_items (
			id, return_request_id, order_item_id, product_id, product_variant_id, product_name,
			quantity, unit_price, total_price, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	for _, item := range items {
		if err := checkReturnable(ctx, tx, item); err != nil {
			return err
		}
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		_, err := tx.ExecContext(ctx, query,
			item.ID,
			item.ReturnRequestID,
			item.OrderItemID,
			item.ProductID,
			item.ProductVariantID,
			item.ProductName,
			item.Quantity,
			item.UnitPrice,
			item.TotalPrice,
			item.CreatedAt,
			item.UpdatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to create return item",
				zap.String("order_item_id", item.OrderItemID.String()),
				zap.Error(err),
			)
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("Failed to commit return items", zap.Error(err))
		return err
	}

	return nil
}

func lockOrderOfRequest(ctx context.Context, tx *sql.Tx, returnRequestID uuid.UUID) error {
	var orderID uuid.UUID
	err := tx.QueryRowContext(ctx, `SELECT order_id FROM return_requests WHERE id = $1`, returnRequestID).Scan(&orderID)
	if err == sql.ErrNoRows {
		return &errors.ErrNotFound{Resource: "return request", ID: returnRequestID.String()}
	}
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `SELECT id FROM orders WHERE id = $1 FOR UPDATE`, orderID)
	return err
}

// checkReturnable sees rows inserted earlier in the same transaction, so a
// batch is checked against itself as well as other open returns.
func checkReturnable(ctx context.Context, tx *sql.Tx, item *domain.ReturnItem) error {
	var ordered, open int
	if err := tx.QueryRowContext(ctx, returnableQuantityQuery, item.OrderItemID).Scan(&ordered, &open); err != nil {
		if err == sql.ErrNoRows {
			return &errors.ErrNotFound{Resource: "order item", ID: item.OrderItemID.String()}
		}
		return err
	}
	if open+item.Quantity > ordered {
		return &errors.ErrValidation{
			Field:   "items",
			Message: fmt.Sprintf("order item %s: only %d of %d still returnable", item.OrderItemID, max(ordered-open, 0), ordered),
		}
	}
	return nil
}

func (r *returnItemRepository) GetByReturnRequestID(ctx context.Context, returnRequestID uuid.UUID) ([]*domain.ReturnItem, error) {
	query := `
		SELECT id, return_request_id, order_item_id, product_id, product_variant_id, product_name,
		       quantity, unit_price, total_price, condition_on_return, condition_notes,
		       quality_issue_description, item_deduction_percentage, item_deduction_amount,
		       item_deduction_reason, approved_amount, created_at, updated_at
		FROM return_items
		WHERE return_request_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.db.QueryContext(ctx, query, returnRequestID)
	if err != nil {
		r.logger.Error("Failed to query return items", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var items []*domain.ReturnItem
	for rows.Next() {
		var item domain.ReturnItem
		var variantID uuid.NullUUID
		var condition, conditionNotes, qualityIssue, deductionReason sql.NullString
		var deductionPct, deductionAmount, approvedAmount decimal.NullDecimal

		if err := rows.Scan(
			&item.ID,
			&item.ReturnRequestID,
			&item.OrderItemID,
			&item.ProductID,
			&variantID,
			&item.ProductName,
			&item.Quantity,
			&item.UnitPrice,
			&item.TotalPrice,
			&condition,
			&conditionNotes,
			&qualityIssue,
			&deductionPct,
			&deductionAmount,
			&deductionReason,
			&approvedAmount,
			&item.CreatedAt,
			&item.UpdatedAt,
		); err != nil {
			r.logger.Error("Failed to scan return item", zap.Error(err))
			return nil, err
		}

		if variantID.Valid {
			item.ProductVariantID = &variantID.UUID
		}
		if condition.Valid {
			c := domain.ItemCondition(condition.String)
			item.ConditionOnReturn = &c
		}
		item.ConditionNotes = stringPtr(conditionNotes)
		item.QualityIssueDescription = stringPtr(qualityIssue)
		item.DeductionPercentage = decimalPtr(deductionPct)
		item.DeductionAmount = decimalPtr(deductionAmount)
		item.DeductionReason = stringPtr(deductionReason)
		item.ApprovedAmount = decimalPtr(approvedAmount)

		items = append(items, &item)
	}

	return items, rows.Err()
}

func updateInspectedItem(ctx context.Context, db execer, item *domain.ReturnItem) error {
	query := `
		UPDATE return_items SET
			condition_on_return = $2,
			condition_notes = $3,
			quality_issue_description = $4,
			item_deduction_percentage = $5,
			item_deduction_amount = $6,
			item_deduction_reason = $7,
			approved_amount = $8,
			updated_at = $9
		WHERE id = $1
	`

	_, err := db.ExecContext(ctx, query,
		item.ID,
		item.ConditionOnReturn,
		item.ConditionNotes,
		item.QualityIssueDescription,
		item.DeductionPercentage,
		item.DeductionAmount,
		item.DeductionReason,
		item.ApprovedAmount,
		item.UpdatedAt,
	)
	return err
}
