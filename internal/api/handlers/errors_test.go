package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jafarshop/returnsapi/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", &errors.ErrValidation{Field: "items", Message: "at least one item is required"}, http.StatusUnprocessableEntity},
		{"not found", &errors.ErrNotFound{Resource: "return request", ID: "x"}, http.StatusNotFound},
		{"forbidden", &errors.ErrForbidden{Message: "access denied"}, http.StatusForbidden},
		{"unauthorized", &errors.ErrUnauthorized{Message: "order is not paid"}, http.StatusUnauthorized},
		{"transition", &errors.ErrInvalidStateTransition{From: "received", To: "cancelled"}, http.StatusConflict},
		{"manual refund", errors.ErrManualRefundRequired, http.StatusConflict},
		{"duplicate", fmt.Errorf("idempotency key: %w", errors.ErrDuplicate), http.StatusConflict},
		{"no notification", errors.ErrNoNotification, http.StatusConflict},
		{"gateway", fmt.Errorf("%w: bad request", errors.ErrGateway), http.StatusBadGateway},
		{"unexpected", fmt.Errorf("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			respondError(c, zap.NewNop(), tt.err, "do the thing")
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestRespondError_Bodies(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	respondError(c, zap.NewNop(), &errors.ErrValidation{Field: "amount", Message: "must be greater than zero"}, "initiate refund")

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "amount", body["field"])
	assert.Equal(t, "must be greater than zero", body["details"])

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	respondError(c, zap.NewNop(), &errors.ErrInvalidStateTransition{From: "approved", To: "received"}, "mark received")

	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "approved", body["from"])
	assert.Equal(t, "received", body["to"])

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	respondError(c, zap.NewNop(), fmt.Errorf("pq: password authentication failed"), "list returns")

	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "failed to list returns", body["error"])
}

func TestPagination(t *testing.T) {
	tests := []struct {
		query  string
		limit  int
		offset int
	}{
		{"", 20, 0},
		{"?limit=5&offset=10", 5, 10},
		{"?limit=0", 20, 0},
		{"?limit=500", 20, 0},
		{"?limit=abc&offset=-3", 20, 0},
	}

	for _, tt := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/v1/returns"+tt.query, nil)

		limit, offset := pagination(c)
		assert.Equal(t, tt.limit, limit, tt.query)
		assert.Equal(t, tt.offset, offset, tt.query)
	}
}
