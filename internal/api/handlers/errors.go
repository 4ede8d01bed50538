package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/returnsapi/pkg/errors"
)

// respondError maps service errors onto HTTP statuses
func respondError(c *gin.Context, logger *zap.Logger, err error, action string) {
	var (
		notFound     *errors.ErrNotFound
		validation   *errors.ErrValidation
		forbidden    *errors.ErrForbidden
		unauthorized *errors.ErrUnauthorized
		transition   *errors.ErrInvalidStateTransition
	)

	switch {
	case errors.As(err, &validation):
		body := gin.H{"error": "validation failed", "details": validation.Message}
		if validation.Field != "" {
			body["field"] = validation.Field
		}
		c.JSON(http.StatusUnprocessableEntity, body)
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound.Error()})
	case errors.As(err, &forbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": forbidden.Error()})
	case errors.As(err, &unauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": unauthorized.Error()})
	case errors.As(err, &transition):
		c.JSON(http.StatusConflict, gin.H{"error": transition.Error(), "from": transition.From, "to": transition.To})
	case errors.Is(err, errors.ErrManualRefundRequired),
		errors.Is(err, errors.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, errors.ErrNoNotification):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, errors.ErrGateway):
		logger.Warn("Payment gateway error", zap.String("action", action), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		logger.Error("Failed to "+action, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to " + action})
	}
}

func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

// bindJSON binds the body and writes the 422 itself when binding fails
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "validation failed",
			"details": err.Error(),
		})
		return false
	}
	return true
}
