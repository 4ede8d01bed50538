package razorpay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jafarshop/returnsapi/internal/config"
)

type Client struct {
	baseURL    string
	keyID      string
	keySecret  string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new Razorpay REST client
func NewClient(cfg config.RazorpayConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		keyID:     cfg.KeyID,
		keySecret: cfg.KeySecret,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// RefundRequest is the body of a payment refund call. Amount is in paise.
type RefundRequest struct {
	Amount  int64             `json:"amount"`
	Receipt string            `json:"receipt,omitempty"`
	Notes   map[string]string `json:"notes,omitempty"`
}

// Refund is the refund entity returned by the gateway
type Refund struct {
	ID        string `json:"id"`
	Entity    string `json:"entity"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	PaymentID string `json:"payment_id"`
	Status    string `json:"status"`
	CreatedAt int64  `json:"created_at"`
}

// APIError is the error envelope returned on non-2xx responses
type APIError struct {
	StatusCode  int
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("razorpay API error: status %d, %s: %s", e.StatusCode, e.Code, e.Description)
}

// RefundPayment issues a (possibly partial) refund against a captured payment
func (c *Client) RefundPayment(ctx context.Context, paymentID string, refundReq RefundRequest) (*Refund, error) {
	url := fmt.Sprintf("%s/v1/payments/%s/refund", c.baseURL, paymentID)

	jsonData, err := json.Marshal(refundReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var envelope struct {
			Error *APIError `json:"error"`
		}
		if json.Unmarshal(body, &envelope) == nil && envelope.Error != nil {
			apiErr.Code = envelope.Error.Code
			apiErr.Description = envelope.Error.Description
		} else {
			apiErr.Description = string(body)
		}
		c.logger.Warn("Razorpay refund rejected",
			zap.String("payment_id", paymentID),
			zap.Int("status", resp.StatusCode),
			zap.String("code", apiErr.Code),
		)
		return nil, apiErr
	}

	var refund Refund
	if err := json.Unmarshal(body, &refund); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	c.logger.Info("Razorpay refund created",
		zap.String("payment_id", paymentID),
		zap.String("refund_id", refund.ID),
		zap.String("status", refund.Status),
	)

	return &refund, nil
}
