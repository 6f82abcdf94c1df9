// Package orderapi is the HTTP client for the external order-management API.
package orderapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"garage-portal/internal/core"
	"garage-portal/internal/logger"

	"github.com/rs/zerolog"
)

// extraQuantityCode is the error discriminator for an over-delivery that needs confirmation.
const extraQuantityCode = "extra_quantity"

type requestIDKey struct{}

// WithRequestID attaches a request ID that is forwarded as X-Request-ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestIDFrom(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey{}).(string)
	return v
}

// Client calls the order API on behalf of an authenticated operator.
// Every method takes the operator's bearer token explicitly.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient creates a client for baseURL. timeout is the only client-side limit
// applied to requests; nothing is retried.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        logger.WithComponent("orderapi"),
	}
}

// errorBody covers both the generic {error} shape and the extra_quantity rejection.
type errorBody struct {
	Error           string `json:"error"`
	Message         string `json:"message"`
	Ordered         int    `json:"ordered"`
	WouldBeReceived int    `json:"would_be_received"`
}

type updateBody struct {
	ExpectedDeliveryDate *string          `json:"expected_delivery_date"`
	UnitCost             json.Number      `json:"unit_cost"`
	QuantityOrdered      int              `json:"quantity_ordered"`
	Status               core.OrderStatus `json:"status"`
}

type messageBody struct {
	Message string `json:"message"`
}

// GetPurchaseOrder handles GET /purchase_orders/{id}.
func (c *Client) GetPurchaseOrder(ctx context.Context, token string, orderID int) (*core.PurchaseOrder, error) {
	var po core.PurchaseOrder
	if err := c.do(ctx, token, http.MethodGet, orderPath(orderID), nil, &po); err != nil {
		return nil, fmt.Errorf("get purchase order %d: %w", orderID, err)
	}
	return &po, nil
}

// UpdatePurchaseOrder handles PUT /purchase_orders/{id} and returns the updated order.
func (c *Client) UpdatePurchaseOrder(ctx context.Context, token string, orderID int, u core.OrderUpdate) (*core.PurchaseOrder, error) {
	body := updateBody{
		ExpectedDeliveryDate: u.ExpectedDeliveryDate,
		UnitCost:             json.Number(u.UnitCost.String()),
		QuantityOrdered:      u.QuantityOrdered,
		Status:               u.Status,
	}
	var po core.PurchaseOrder
	if err := c.do(ctx, token, http.MethodPut, orderPath(orderID), body, &po); err != nil {
		return nil, fmt.Errorf("update purchase order %d: %w", orderID, err)
	}
	return &po, nil
}

// ReceivePurchaseOrder handles POST /purchase_orders/{id}/receive and returns the server message.
// An over-delivery without confirmation comes back as *core.ExtraQuantityError.
func (c *Client) ReceivePurchaseOrder(ctx context.Context, token string, orderID int, p core.ReceiptPayload) (string, error) {
	var resp messageBody
	if err := c.do(ctx, token, http.MethodPost, orderPath(orderID)+"/receive", p, &resp); err != nil {
		return "", fmt.Errorf("receive purchase order %d: %w", orderID, err)
	}
	return resp.Message, nil
}

func orderPath(orderID int) string {
	return fmt.Sprintf("/purchase_orders/%d", orderID)
}

// do sends one JSON request and decodes the response into result.
// Non-2xx responses are translated into *core.ExtraQuantityError or *core.APIError.
func (c *Client) do(ctx context.Context, token, method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if id := requestIDFrom(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("method", method).Str("path", path).Msg("order API request failed")
		return fmt.Errorf("order API request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("order API call")

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp.StatusCode, respBody)
	}
	if result == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("decode response body: %w", err)
	}
	return nil
}

func decodeError(status int, body []byte) error {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = http.StatusText(status)
		}
		return &core.APIError{Status: status, Message: msg}
	}

	if eb.Error == extraQuantityCode {
		return &core.ExtraQuantityError{
			Ordered:         eb.Ordered,
			WouldBeReceived: eb.WouldBeReceived,
			Message:         eb.Message,
		}
	}

	msg := eb.Error
	if msg == "" {
		msg = eb.Message
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &core.APIError{Status: status, Message: msg}
}
