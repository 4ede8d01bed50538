package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/returnsapi/internal/api/middleware"
	"github.com/jafarshop/returnsapi/internal/repository"
	"github.com/jafarshop/returnsapi/internal/service"
	"github.com/jafarshop/returnsapi/pkg/errors"
)

// HandleCheckEligibility handles GET /v1/orders/:id/return-eligibility
func HandleCheckEligibility(repos *repository.Repositories, services *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		customerID, ok := middleware.GetCustomerID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		orderID, ok := parseIDParam(c, "id")
		if !ok {
			return
		}

		// Verify customer owns this order
		order, err := repos.Order.GetByID(c.Request.Context(), orderID)
		if err != nil {
			respondError(c, logger, err, "check eligibility")
			return
		}
		if order.CustomerID != customerID {
			respondError(c, logger, &errors.ErrForbidden{Message: "access denied"}, "check eligibility")
			return
		}

		result, err := services.Eligibility.CheckEligibility(c.Request.Context(), orderID)
		if err != nil {
			respondError(c, logger, err, "check eligibility")
			return
		}

		c.JSON(http.StatusOK, result)
	}
}
