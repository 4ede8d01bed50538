package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/returnsapi/internal/api/middleware"
	"github.com/jafarshop/returnsapi/internal/domain"
	"github.com/jafarshop/returnsapi/internal/repository"
	"github.com/jafarshop/returnsapi/internal/service"
	"github.com/jafarshop/returnsapi/pkg/errors"
)

// HandleAdminListReturns handles GET /v1/admin/returns
func HandleAdminListReturns(services *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset := pagination(c)
		filter := repository.ReturnFilter{Limit: limit, Offset: offset}

		if statusStr := c.Query("status"); statusStr != "" {
			status := domain.ReturnStatus(statusStr)
			if !status.IsValid() {
				respondError(c, logger, &errors.ErrValidation{Field: "status", Message: "unknown return status"}, "list return requests")
				return
			}
			filter.Status = &status
		}

		requests, err := services.Returns.ListReturns(c.Request.Context(), filter)
		if err != nil {
			respondError(c, logger, err, "list return requests")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"returns": newReturnListResponse(requests),
			"limit":   limit,
			"offset":  offset,
		})
	}
}

// HandleAdminGetReturn handles GET /v1/admin/returns/:id
func HandleAdminGetReturn(services *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c, "id")
		if !ok {
			return
		}

		req, err := services.Returns.GetReturnRequest(c.Request.Context(), id)
		if err != nil {
			respondError(c, logger, err, "get return request")
			return
		}

		c.JSON(http.StatusOK, newReturnResponse(&req.ReturnRequest, req.Items))
	}
}

// HandleGetReturnHistory handles GET /v1/admin/returns/:id/history
func HandleGetReturnHistory(services *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c, "id")
		if !ok {
			return
		}

		entries, err := services.Returns.GetStatusHistory(c.Request.Context(), id)
		if err != nil {
			respondError(c, logger, err, "get status history")
			return
		}

		history := make([]StatusHistoryResponse, 0, len(entries))
		for _, entry := range entries {
			history = append(history, StatusHistoryResponse{
				ID:         entry.ID.String(),
				FromStatus: entry.FromStatus,
				ToStatus:   entry.ToStatus,
				ChangedBy:  entry.ChangedBy,
				Notes:      entry.Notes,
				CreatedAt:  entry.CreatedAt.Format(timeLayout),
			})
		}

		c.JSON(http.StatusOK, gin.H{"history": history})
	}
}

// HandleUpdateReturnAddress handles PUT /v1/admin/returns/:id/address
func HandleUpdateReturnAddress(services *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		operator, id, ok := adminTarget(c)
		if !ok {
			return
		}

		var req service.ReturnAddressRequest
		if !bindJSON(c, &req) {
			return
		}

		updated, err := services.Returns.UpdateReturnAddress(c.Request.Context(), id, req, operator.Name)
		if err != nil {
			respondError(c, logger, err, "update return address")
			return
		}

		c.JSON(http.StatusOK, newReturnResponse(updated, nil))
	}
}

// HandleMarkReceived handles POST /v1/admin/returns/:id/receive
func HandleMarkReceived(services *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		operator, id, ok := adminTarget(c)
		if !ok {
			return
		}

		updated, err := services.Returns.MarkAsReceived(c.Request.Context(), id, operator.Name)
		if err != nil {
			respondError(c, logger, err, "mark return as received")
			return
		}

		c.JSON(http.StatusOK, newReturnResponse(updated, nil))
	}
}

// HandleStartInspection handles POST /v1/admin/returns/:id/inspection/start
func HandleStartInspection(services *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		operator, id, ok := adminTarget(c)
		if !ok {
			return
		}

		updated, err := services.Returns.StartInspection(c.Request.Context(), id, operator.Name)
		if err != nil {
			respondError(c, logger, err, "start inspection")
			return
		}

		c.JSON(http.StatusOK, newReturnResponse(updated, nil))
	}
}

// HandleCompleteInspection handles POST /v1/admin/returns/:id/inspection
func HandleCompleteInspection(services *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		operator, id, ok := adminTarget(c)
		if !ok {
			return
		}

		var req service.CompleteInspectionRequest
		if !bindJSON(c, &req) {
			return
		}

		result, err := services.Inspection.CompleteInspection(c.Request.Context(), id, req, operator.Name)
		if err != nil {
			respondError(c, logger, err, "complete inspection")
			return
		}

		c.JSON(http.StatusOK, newReturnResponse(&result.ReturnRequest, result.Items))
	}
}

// HandlePreviewRefund handles POST /v1/admin/returns/:id/inspection/preview
func HandlePreviewRefund(services *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c, "id")
		if !ok {
			return
		}

		var req service.PreviewRefundRequest
		if !bindJSON(c, &req) {
			return
		}

		preview, err := services.Inspection.PreviewRefund(c.Request.Context(), id, req)
		if err != nil {
			respondError(c, logger, err, "preview refund")
			return
		}

		c.JSON(http.StatusOK, preview)
	}
}

// HandleInitiateRefund handles POST /v1/admin/returns/:id/refund
func HandleInitiateRefund(services *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		operator, id, ok := adminTarget(c)
		if !ok {
			return
		}

		var req service.InitiateRefundRequest
		if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
			return
		}

		txn, err := services.Refunds.InitiateRefund(c.Request.Context(), id, req, operator.Name)
		if err != nil {
			respondError(c, logger, err, "initiate refund")
			return
		}

		c.JSON(http.StatusCreated, newRefundTransactionResponse(txn))
	}
}

// HandleConfirmRefund handles POST /v1/admin/returns/:id/refund/confirm
func HandleConfirmRefund(services *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		operator, id, ok := adminTarget(c)
		if !ok {
			return
		}

		var req service.ConfirmRefundRequest
		if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
			return
		}

		txn, err := services.Refunds.ConfirmRefund(c.Request.Context(), id, req, operator.Name)
		if err != nil {
			respondError(c, logger, err, "confirm refund")
			return
		}

		c.JSON(http.StatusOK, newRefundTransactionResponse(txn))
	}
}

// HandleSendNotification handles POST /v1/admin/returns/:id/notify
func HandleSendNotification(services *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c, "id")
		if !ok {
			return
		}

		result, err := services.Notifications.SendStatusNotification(c.Request.Context(), id)
		if err != nil {
			respondError(c, logger, err, "send notification")
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

// HandleAddAdminNote handles POST /v1/admin/returns/:id/notes
func HandleAddAdminNote(services *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		operator, id, ok := adminTarget(c)
		if !ok {
			return
		}

		var req service.AdminNoteRequest
		if !bindJSON(c, &req) {
			return
		}

		updated, err := services.Returns.AddAdminNote(c.Request.Context(), id, req, operator.Name)
		if err != nil {
			respondError(c, logger, err, "add admin note")
			return
		}

		c.JSON(http.StatusOK, newReturnResponse(updated, nil))
	}
}

// adminTarget resolves the acting operator and the return id from the path
func adminTarget(c *gin.Context) (*domain.Operator, uuid.UUID, bool) {
	operator, ok := middleware.GetOperatorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil, uuid.Nil, false
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return nil, uuid.Nil, false
	}
	return operator, id, true
}
