package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	idempotencyContextKey = "idempotency_key"

	IdempotencyKeyHeader = "Idempotency-Key"
	maxIdempotencyKeyLen = 255
)

// IdempotencyMiddleware validates an optional Idempotency-Key header and exposes it to handlers
func IdempotencyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			c.Next()
			return
		}

		if len(key) > maxIdempotencyKeyLen {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "idempotency key too long"})
			return
		}

		c.Set(idempotencyContextKey, key)
		c.Next()
	}
}

// GetIdempotencyKey returns the request's idempotency key, or "" when none was sent
func GetIdempotencyKey(c *gin.Context) string {
	return c.GetString(idempotencyContextKey)
}
