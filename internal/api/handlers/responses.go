package handlers

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jafarshop/returnsapi/internal/domain"
)

const timeLayout = "2006-01-02T15:04:05Z07:00"

// ReturnResponse represents a return request in API responses
type ReturnResponse struct {
	ID                     string                   `json:"id"`
	ReturnNumber           string                   `json:"return_number"`
	OrderID                string                   `json:"order_id"`
	CustomerID             string                   `json:"customer_id"`
	RequestType            domain.ReturnType        `json:"request_type"`
	Reason                 domain.ReturnReason      `json:"reason"`
	Description            string                   `json:"description"`
	PickupAddress          string                   `json:"pickup_address,omitempty"`
	ImageURLs              []string                 `json:"image_urls"`
	VideoURL               *string                  `json:"video_url,omitempty"`
	Status                 domain.ReturnStatus      `json:"status"`
	OriginalOrderAmount    decimal.Decimal          `json:"original_order_amount"`
	CalculatedRefundAmount *decimal.Decimal         `json:"calculated_refund_amount,omitempty"`
	DeductionAmount        *decimal.Decimal         `json:"deduction_amount,omitempty"`
	FinalRefundAmount      *decimal.Decimal         `json:"final_refund_amount,omitempty"`
	ReturnAddress          *AddressResponse         `json:"return_address,omitempty"`
	TrackingNumber         *string                  `json:"customer_tracking_number,omitempty"`
	CourierName            *string                  `json:"customer_courier_name,omitempty"`
	ShippedDate            *string                  `json:"customer_shipped_date,omitempty"`
	ReceivedBy             *string                  `json:"received_by,omitempty"`
	ReceivedDate           *string                  `json:"received_date,omitempty"`
	InspectedBy            *string                  `json:"inspected_by,omitempty"`
	InspectionDate         *string                  `json:"inspection_date,omitempty"`
	InspectionStatus       *domain.InspectionStatus `json:"inspection_status,omitempty"`
	InspectionNotes        *string                  `json:"inspection_notes,omitempty"`
	DecisionBy             *string                  `json:"decision_by,omitempty"`
	DecisionDate           *string                  `json:"decision_date,omitempty"`
	CancellationReason     *string                  `json:"cancellation_reason,omitempty"`
	AdminNotes             *string                  `json:"admin_notes,omitempty"`
	Items                  []ReturnItemResponse     `json:"items,omitempty"`
	CreatedAt              string                   `json:"created_at"`
	UpdatedAt              string                   `json:"updated_at"`
}

type AddressResponse struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type ReturnItemResponse struct {
	ID                      string                `json:"id"`
	OrderItemID             string                `json:"order_item_id"`
	ProductID               string                `json:"product_id"`
	ProductVariantID        *string               `json:"product_variant_id,omitempty"`
	ProductName             string                `json:"product_name"`
	Quantity                int                   `json:"quantity"`
	UnitPrice               decimal.Decimal       `json:"unit_price"`
	TotalPrice              decimal.Decimal       `json:"total_price"`
	ConditionOnReturn       *domain.ItemCondition `json:"condition_on_return,omitempty"`
	ConditionNotes          *string               `json:"condition_notes,omitempty"`
	QualityIssueDescription *string               `json:"quality_issue_description,omitempty"`
	DeductionPercentage     *decimal.Decimal      `json:"deduction_percentage,omitempty"`
	DeductionAmount         *decimal.Decimal      `json:"deduction_amount,omitempty"`
	DeductionReason         *string               `json:"deduction_reason,omitempty"`
	ApprovedAmount          *decimal.Decimal      `json:"approved_amount,omitempty"`
}

type StatusHistoryResponse struct {
	ID         string               `json:"id"`
	FromStatus *domain.ReturnStatus `json:"from_status,omitempty"`
	ToStatus   domain.ReturnStatus  `json:"to_status"`
	ChangedBy  string               `json:"changed_by"`
	Notes      *string              `json:"notes,omitempty"`
	CreatedAt  string               `json:"created_at"`
}

type RefundTransactionResponse struct {
	ID                string              `json:"id"`
	TransactionNumber string              `json:"transaction_number"`
	ReturnRequestID   string              `json:"return_request_id"`
	RazorpayRefundID  *string             `json:"razorpay_refund_id,omitempty"`
	RefundAmount      decimal.Decimal     `json:"refund_amount"`
	Status            domain.RefundStatus `json:"status"`
	InitiatedBy       string              `json:"initiated_by"`
	ProcessedAt       *string             `json:"processed_at,omitempty"`
	CreatedAt         string              `json:"created_at"`
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(timeLayout)
	return &s
}

func newReturnResponse(req *domain.ReturnRequest, items []*domain.ReturnItem) ReturnResponse {
	resp := ReturnResponse{
		ID:                     req.ID.String(),
		ReturnNumber:           req.ReturnNumber,
		OrderID:                req.OrderID.String(),
		CustomerID:             req.CustomerID.String(),
		RequestType:            req.RequestType,
		Reason:                 req.Reason,
		Description:            req.Description,
		PickupAddress:          req.PickupAddress,
		ImageURLs:              req.ImageURLs,
		VideoURL:               req.VideoURL,
		Status:                 req.Status,
		OriginalOrderAmount:    req.OriginalOrderAmount,
		CalculatedRefundAmount: req.CalculatedRefundAmount,
		DeductionAmount:        req.DeductionAmount,
		FinalRefundAmount:      req.FinalRefundAmount,
		TrackingNumber:         req.CustomerTrackingNumber,
		CourierName:            req.CustomerCourierName,
		ShippedDate:            formatTime(req.CustomerShippedDate),
		ReceivedBy:             req.ReceivedBy,
		ReceivedDate:           formatTime(req.ReceivedDate),
		InspectedBy:            req.InspectedBy,
		InspectionDate:         formatTime(req.InspectionDate),
		InspectionStatus:       req.InspectionStatus,
		InspectionNotes:        req.InspectionNotes,
		DecisionBy:             req.DecisionBy,
		DecisionDate:           formatTime(req.DecisionDate),
		CancellationReason:     req.CancellationReason,
		AdminNotes:             req.AdminNotes,
		CreatedAt:              req.CreatedAt.Format(timeLayout),
		UpdatedAt:              req.UpdatedAt.Format(timeLayout),
	}
	if resp.ImageURLs == nil {
		resp.ImageURLs = []string{}
	}

	if req.ReturnAddress.IsSet() {
		resp.ReturnAddress = &AddressResponse{
			Line1:      req.ReturnAddress.Line1,
			Line2:      req.ReturnAddress.Line2,
			City:       req.ReturnAddress.City,
			State:      req.ReturnAddress.State,
			PostalCode: req.ReturnAddress.PostalCode,
			Country:    req.ReturnAddress.Country,
		}
	}

	for _, item := range items {
		itemResp := ReturnItemResponse{
			ID:                      item.ID.String(),
			OrderItemID:             item.OrderItemID.String(),
			ProductID:               item.ProductID.String(),
			ProductName:             item.ProductName,
			Quantity:                item.Quantity,
			UnitPrice:               item.UnitPrice,
			TotalPrice:              item.TotalPrice,
			ConditionOnReturn:       item.ConditionOnReturn,
			ConditionNotes:          item.ConditionNotes,
			QualityIssueDescription: item.QualityIssueDescription,
			DeductionPercentage:     item.DeductionPercentage,
			DeductionAmount:         item.DeductionAmount,
			DeductionReason:         item.DeductionReason,
			ApprovedAmount:          item.ApprovedAmount,
		}
		if item.ProductVariantID != nil {
			variantID := item.ProductVariantID.String()
			itemResp.ProductVariantID = &variantID
		}
		resp.Items = append(resp.Items, itemResp)
	}

	return resp
}

func newReturnListResponse(requests []*domain.ReturnRequest) []ReturnResponse {
	out := make([]ReturnResponse, 0, len(requests))
	for _, req := range requests {
		out = append(out, newReturnResponse(req, nil))
	}
	return out
}

func newRefundTransactionResponse(txn *domain.RefundTransaction) RefundTransactionResponse {
	return RefundTransactionResponse{
		ID:                txn.ID.String(),
		TransactionNumber: txn.TransactionNumber,
		ReturnRequestID:   txn.ReturnRequestID.String(),
		RazorpayRefundID:  txn.RazorpayRefundID,
		RefundAmount:      txn.RefundAmount,
		Status:            txn.Status,
		InitiatedBy:       txn.InitiatedBy,
		ProcessedAt:       formatTime(txn.ProcessedAt),
		CreatedAt:         txn.CreatedAt.Format(timeLayout),
	}
}
