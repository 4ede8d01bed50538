package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/returnsapi/internal/api/middleware"
	"github.com/jafarshop/returnsapi/internal/service"
)

// HandleCreateReturn handles POST /v1/returns
func HandleCreateReturn(services *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		customerID, ok := middleware.GetCustomerID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req service.CreateReturnRequest
		if !bindJSON(c, &req) {
			return
		}
		req.CustomerID = customerID
		req.IdempotencyKey = middleware.GetIdempotencyKey(c)

		created, err := services.Returns.CreateReturnRequest(c.Request.Context(), req)
		if err != nil {
			respondError(c, logger, err, "create return request")
			return
		}

		c.JSON(http.StatusCreated, newReturnResponse(&created.ReturnRequest, created.Items))
	}
}

// HandleListMyReturns handles GET /v1/returns
func HandleListMyReturns(services *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		customerID, ok := middleware.GetCustomerID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		limit, offset := pagination(c)
		requests, err := services.Returns.ListForCustomer(c.Request.Context(), customerID, limit, offset)
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

// HandleGetMyReturn handles GET /v1/returns/:id
func HandleGetMyReturn(services *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		customerID, ok := middleware.GetCustomerID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		id, ok := parseIDParam(c, "id")
		if !ok {
			return
		}

		req, err := services.Returns.GetForCustomer(c.Request.Context(), id, customerID)
		if err != nil {
			respondError(c, logger, err, "get return request")
			return
		}

		c.JSON(http.StatusOK, newReturnResponse(&req.ReturnRequest, req.Items))
	}
}

// HandleShipReturn handles POST /v1/returns/:id/ship
func HandleShipReturn(services *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		customerID, ok := middleware.GetCustomerID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		id, ok := parseIDParam(c, "id")
		if !ok {
			return
		}

		var req service.ShipReturnRequest
		if !bindJSON(c, &req) {
			return
		}

		updated, err := services.Returns.MarkAsShipped(c.Request.Context(), id, customerID, req)
		if err != nil {
			respondError(c, logger, err, "mark return as shipped")
			return
		}

		c.JSON(http.StatusOK, newReturnResponse(updated, nil))
	}
}

// HandleCancelReturn handles POST /v1/returns/:id/cancel
func HandleCancelReturn(services *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		customerID, ok := middleware.GetCustomerID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		id, ok := parseIDParam(c, "id")
		if !ok {
			return
		}

		// Body is optional
		var req service.CancelReturnRequest
		if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
			return
		}

		updated, err := services.Returns.CancelReturnRequest(c.Request.Context(), id, customerID, req.Reason)
		if err != nil {
			respondError(c, logger, err, "cancel return request")
			return
		}

		c.JSON(http.StatusOK, newReturnResponse(updated, nil))
	}
}

func pagination(c *gin.Context) (int, int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 20
	}

	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	return limit, offset
}
