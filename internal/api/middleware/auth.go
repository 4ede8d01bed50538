package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/returnsapi/internal/domain"
	"github.com/jafarshop/returnsapi/internal/repository"
	"github.com/jafarshop/returnsapi/pkg/errors"
)

const (
	operatorContextKey = "operator"
	customerContextKey = "customer_id"

	// CustomerIDHeader is set by the storefront gateway after it authenticates the shopper
	CustomerIDHeader = "X-Customer-ID"
)

// OperatorAuthMiddleware authenticates admin operators by API key
func OperatorAuthMiddleware(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		apiKey, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found || strings.TrimSpace(apiKey) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			return
		}

		operator, err := repos.Operator.GetByAPIKey(c.Request.Context(), strings.TrimSpace(apiKey))
		if err != nil {
			var unauthorized *errors.ErrUnauthorized
			if !errors.As(err, &unauthorized) {
				logger.Error("Failed to authenticate operator", zap.Error(err))
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid API key"})
			return
		}

		c.Set(operatorContextKey, operator)
		c.Next()
	}
}

// GetOperatorFromContext returns the operator set by OperatorAuthMiddleware
func GetOperatorFromContext(c *gin.Context) (*domain.Operator, bool) {
	value, ok := c.Get(operatorContextKey)
	if !ok {
		return nil, false
	}
	operator, ok := value.(*domain.Operator)
	return operator, ok
}

// CustomerMiddleware reads the shopper identity forwarded by the storefront gateway
func CustomerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(CustomerIDHeader)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing customer identity"})
			return
		}

		customerID, err := uuid.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid customer identity"})
			return
		}

		c.Set(customerContextKey, customerID)
		c.Next()
	}
}

// GetCustomerID returns the customer set by CustomerMiddleware
func GetCustomerID(c *gin.Context) (uuid.UUID, bool) {
	value, ok := c.Get(customerContextKey)
	if !ok {
		return uuid.Nil, false
	}
	customerID, ok := value.(uuid.UUID)
	return customerID, ok
}
