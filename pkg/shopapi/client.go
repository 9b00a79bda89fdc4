package shopapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/glowmart/glowmart-backend/pkg/errors"
)

const responseBodyReadLimit int64 = 1024

var errBaseURLRequired = errors.New("shop core base url is required")

// Client talks to the storefront core services that own carts, coupons
// and orders. The checkout service never persists any of these itself.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient builds the storefront core client.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return nil, errBaseURLRequired
	}

	client := &Client{
		baseURL:    strings.TrimRight(trimmed, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	return client, nil
}

// CartItem is one line of the user's cart. Physical dimensions are
// optional; products without them fall back to shipping defaults.
type CartItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	Weight    *int   `json:"weight,omitempty"`
	Length    *int   `json:"length,omitempty"`
	Width     *int   `json:"width,omitempty"`
	Height    *int   `json:"height,omitempty"`
}

// Cart is the read-only view returned by the cart service.
type Cart struct {
	Items      []CartItem `json:"items"`
	TotalPrice int64      `json:"total_price"`
}

// Coupon carries the business rules attached to a discount code.
type Coupon struct {
	ID                string     `json:"id"`
	DiscountPercent   int64      `json:"discount_percent"`
	MaxDiscountAmount *int64     `json:"max_discount_amount,omitempty"`
	MinimumOrderPrice *int64     `json:"minimum_order_price,omitempty"`
	ExpiryDate        *time.Time `json:"expiry_date,omitempty"`
}

// OrderRequest is the payload submitted to the order service.
type OrderRequest struct {
	ShippingAddress string  `json:"shipping_address"`
	BillingAddress  string  `json:"billing_address"`
	PaymentMethod   string  `json:"payment_method"`
	CouponID        *string `json:"coupon_id,omitempty"`
	Currency        string  `json:"currency"`
	DiscountAmount  int64   `json:"discount_amount"`
	ShippingFee     int64   `json:"shipping_fee"`
	Total           int64   `json:"total"`
}

// OrderResponse is the order service's reply. PaymentURL is present only
// for online payment methods.
type OrderResponse struct {
	OrderID    string  `json:"order_id"`
	PaymentURL *string `json:"payment_url,omitempty"`
}

// GetCurrentCart fetches the caller's active cart.
func (c *Client) GetCurrentCart(ctx context.Context, accessToken string) (*Cart, error) {
	var cart Cart
	if err := c.do(ctx, http.MethodGet, "api/v1/carts/current", accessToken, "", nil, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// GetCouponByID fetches coupon terms. Terms are immutable once issued, so
// callers may cache the result for a session's lifetime.
func (c *Client) GetCouponByID(ctx context.Context, accessToken, couponID string) (*Coupon, error) {
	trimmed := strings.TrimSpace(couponID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon id is required")
	}
	var coupon Coupon
	path := fmt.Sprintf("api/v1/coupons/%s", url.PathEscape(trimmed))
	if err := c.do(ctx, http.MethodGet, path, accessToken, "", nil, &coupon); err != nil {
		return nil, err
	}
	return &coupon, nil
}

// CreateOrder submits the order. The idempotency key makes retries safe:
// the order service returns the original result for a reused key instead
// of creating a second order.
func (c *Client) CreateOrder(ctx context.Context, accessToken, idempotencyKey string, req OrderRequest) (*OrderResponse, error) {
	if strings.TrimSpace(idempotencyKey) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "idempotency key is required")
	}
	var resp OrderResponse
	if err := c.do(ctx, http.MethodPost, "api/v1/orders", accessToken, idempotencyKey, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// serviceError is the error envelope shared by the storefront core services.
type serviceError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path, accessToken, idempotencyKey string, payload, out any) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "shop core client not configured")
	}

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal shop core request")
		}
		body = bytes.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, fmt.Sprintf("%s/%s", c.baseURL, strings.TrimLeft(path, "/")), body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build shop core request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if accessToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+accessToken)
	}
	if idempotencyKey != "" {
		httpReq.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute shop core request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return pkgerrors.New(pkgerrors.CodeNotFound, "resource not found")
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		var svcErr serviceError
		if decodeErr := json.Unmarshal(raw, &svcErr); decodeErr == nil && svcErr.Error.Message != "" {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d", resp.StatusCode), svcErr.Error.Message)
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))), "shop core request failed")
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode shop core response")
		}
	}
	return nil
}
