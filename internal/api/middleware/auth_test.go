package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/jafarshop/returnsapi/internal/domain"
	"github.com/jafarshop/returnsapi/internal/repository/memory"
)

const testAPIKey = "ops-key-0001"

func init() {
	gin.SetMode(gin.TestMode)
}

func operatorRouter(t *testing.T, active bool) *gin.Engine {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(testAPIKey), bcrypt.MinCost)
	require.NoError(t, err)

	repos := memory.NewRepositories(memory.NewStore())
	require.NoError(t, repos.Operator.Create(context.Background(), &domain.Operator{
		Name:         "warehouse-desk",
		APIKeyHash:   string(hash),
		APIKeyLookup: domain.APIKeyLookup(testAPIKey),
		IsActive:     active,
	}))

	r := gin.New()
	r.GET("/admin", OperatorAuthMiddleware(repos, zap.NewNop()), func(c *gin.Context) {
		op, ok := GetOperatorFromContext(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, op.Name)
	})
	return r
}

func TestOperatorAuthMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		header string
		active bool
		status int
	}{
		{"valid key", "Bearer " + testAPIKey, true, http.StatusOK},
		{"missing header", "", true, http.StatusUnauthorized},
		{"wrong scheme", "Basic " + testAPIKey, true, http.StatusUnauthorized},
		{"empty key", "Bearer  ", true, http.StatusUnauthorized},
		{"unknown key", "Bearer nope", true, http.StatusUnauthorized},
		{"inactive operator", "Bearer " + testAPIKey, false, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := operatorRouter(t, tt.active)
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, "warehouse-desk", w.Body.String())
			}
		})
	}
}

func TestCustomerMiddleware(t *testing.T) {
	r := gin.New()
	r.GET("/me", CustomerMiddleware(), func(c *gin.Context) {
		id, _ := GetCustomerID(c)
		c.String(http.StatusOK, id.String())
	})

	customerID := uuid.New()
	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid", customerID.String(), http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"malformed", "customer-1", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set(CustomerIDHeader, tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, customerID.String(), w.Body.String())
			}
		})
	}
}

func TestIdempotencyMiddleware(t *testing.T) {
	r := gin.New()
	r.POST("/returns", IdempotencyMiddleware(), func(c *gin.Context) {
		c.String(http.StatusOK, GetIdempotencyKey(c))
	})

	send := func(key string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/returns", nil)
		if key != "" {
			req.Header.Set(IdempotencyKeyHeader, key)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := send("")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())

	w = send("checkout-42")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "checkout-42", w.Body.String())

	w = send(strings.Repeat("k", maxIdempotencyKeyLen+1))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
