package ghn

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/glowmart/glowmart-backend/pkg/errors"
)

const (
	defaultBaseURL             = "https://online-gateway.ghn.vn/shiip/public-api"
	responseBodyReadLimit int64 = 1024
)

var (
	errTokenRequired = errors.New("carrier api token is required")
)

// Client wraps the carrier APIs used for the location directory and
// shipping fee quotes.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
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

// WithBaseURL overrides the configured carrier base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewClient builds the carrier client given an API token.
func NewClient(token string, opts ...Option) (*Client, error) {
	trimmedToken := strings.TrimSpace(token)
	if trimmedToken == "" {
		return nil, errTokenRequired
	}

	client := &Client{
		token:      trimmedToken,
		baseURL:    defaultBaseURL,
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
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}

	return client, nil
}

// Province is one entry of the top level of the address hierarchy.
type Province struct {
	ProvinceID int    `json:"ProvinceID"`
	Name       string `json:"ProvinceName"`
}

// District belongs to exactly one province.
type District struct {
	DistrictID int    `json:"DistrictID"`
	ProvinceID int    `json:"ProvinceID"`
	Name       string `json:"DistrictName"`
}

// Ward belongs to exactly one district. Ward codes are strings on the wire.
type Ward struct {
	WardCode   string `json:"WardCode"`
	DistrictID int    `json:"DistrictID"`
	Name       string `json:"WardName"`
}

// FeeItem is one flattened cart line forwarded to the carrier.
type FeeItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Weight   int    `json:"weight"`
	Length   int    `json:"length"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// FeeRequest describes one shipment to be quoted.
type FeeRequest struct {
	ServiceTypeID  int       `json:"service_type_id"`
	FromDistrictID int       `json:"from_district_id"`
	FromWardCode   string    `json:"from_ward_code"`
	ToDistrictID   int       `json:"to_district_id"`
	ToWardCode     string    `json:"to_ward_code"`
	Weight         int       `json:"weight"`
	Length         int       `json:"length"`
	Width          int       `json:"width"`
	Height         int       `json:"height"`
	InsuranceValue int64     `json:"insurance_value"`
	Items          []FeeItem `json:"items"`
}

// FeeResponse carries the carrier-computed delivery fee.
type FeeResponse struct {
	TotalFee int64 `json:"total"`
}

// ListProvinces returns the full ordered province list.
func (c *Client) ListProvinces(ctx context.Context) ([]Province, error) {
	var data []Province
	if err := c.get(ctx, "master-data/province", nil, &data); err != nil {
		return nil, err
	}
	return data, nil
}

// ListDistricts returns the districts belonging to the given province.
func (c *Client) ListDistricts(ctx context.Context, provinceID int) ([]District, error) {
	if provinceID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "province id is required")
	}
	payload := map[string]int{"province_id": provinceID}
	var data []District
	if err := c.post(ctx, "master-data/district", payload, &data); err != nil {
		return nil, err
	}
	return data, nil
}

// ListWards returns the wards belonging to the given district.
func (c *Client) ListWards(ctx context.Context, districtID int) ([]Ward, error) {
	if districtID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "district id is required")
	}
	payload := map[string]int{"district_id": districtID}
	var data []Ward
	if err := c.post(ctx, "master-data/ward", payload, &data); err != nil {
		return nil, err
	}
	return data, nil
}

// CalculateFee obtains a delivery-fee quote for the described shipment.
func (c *Client) CalculateFee(ctx context.Context, req FeeRequest) (*FeeResponse, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "carrier client not configured")
	}
	if req.ToDistrictID <= 0 || strings.TrimSpace(req.ToWardCode) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "destination district and ward are required")
	}

	var data FeeResponse
	if err := c.post(ctx, "v2/shipping-order/fee", req, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// envelope is the carrier's uniform response wrapper.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) get(ctx context.Context, path string, payload any, out any) error {
	return c.do(ctx, http.MethodGet, path, payload, out)
}

func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	return c.do(ctx, http.MethodPost, path, payload, out)
}

func (c *Client) do(ctx context.Context, method, path string, payload any, out any) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "carrier client not configured")
	}

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal carrier request")
		}
		body = bytes.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.buildURL(path), body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build carrier request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Token", c.token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute carrier request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "carrier request failed")
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode carrier response")
	}
	if env.Code != http.StatusOK {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("carrier code %d: %s", env.Code, env.Message), "carrier rejected request")
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode carrier payload")
		}
	}
	return nil
}

func (c *Client) buildURL(path string) string {
	trimmed := strings.TrimRight(c.baseURL, "/")
	path = strings.TrimLeft(path, "/")
	return fmt.Sprintf("%s/%s", trimmed, path)
}
