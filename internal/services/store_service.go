package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Order statuses as stored in the order collection.
const (
	OrderStatusPending    = "pending"
	OrderStatusPaid       = "paid"
	OrderStatusCODPending = "cod_pending"
	OrderStatusFailed     = "failed"
	OrderStatusCancelled  = "cancelled"
)

// PaymentMetadata re-links a customer to their pending payment.
type PaymentMetadata struct {
	PackageID  string `json:"packageId"`
	RefID      string `json:"refId"`
	PaymentURL string `json:"paymentUrl"`
}

// StoreOrder mirrors an order record in the external store.
type StoreOrder struct {
	ID              string           `json:"id"`
	CustomerName    string           `json:"customerName"`
	CustomerEmail   string           `json:"customerEmail"`
	CustomerPhone   string           `json:"customerPhone"`
	Amount          float64          `json:"amount"`
	Status          string           `json:"status"`
	FollowupCount   int              `json:"followupCount"`
	CreatedAt       string           `json:"createdAt"`
	Created         string           `json:"created"` // store-assigned fallback timestamp
	LastFollowupAt  string           `json:"lastFollowupAt"`
	PaymentMetadata *PaymentMetadata `json:"paymentMetadata"`
}

// OrderFilter narrows a ListOrders call.
type OrderFilter struct {
	Status string
	Limit  int
}

// OrderStore is the order-record backend consumed by the dispatcher and the
// checkout flow. Implemented by StoreService; faked in tests.
type OrderStore interface {
	Authenticate(ctx context.Context) (string, error)
	ListOrders(ctx context.Context, token string, filter OrderFilter) ([]StoreOrder, error)
	CreateOrder(ctx context.Context, token string, fields map[string]any) (*StoreOrder, error)
	UpdateOrder(ctx context.Context, token, id string, fields map[string]any) error
}

// StoreService talks to the external REST collection store holding orders.
// Tokens are not cached: every run exchanges credentials again, so a revoked
// credential fails the run instead of silently reusing a stale token.
type StoreService struct {
	baseURL  string
	identity string
	password string
	client   *http.Client
}

// NewStoreService constructs a StoreService for the given backend.
func NewStoreService(baseURL, identity, password string) *StoreService {
	return &StoreService{
		baseURL:  strings.TrimRight(baseURL, "/"),
		identity: identity,
		password: password,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type storeAuthResponse struct {
	Token string `json:"token"`
}

type storeListResponse struct {
	Items []StoreOrder `json:"items"`
}

// Authenticate exchanges the admin identity and secret for a bearer token.
func (s *StoreService) Authenticate(ctx context.Context) (string, error) {
	if s.identity == "" || s.password == "" {
		return "", errors.New("store admin credentials are not configured")
	}

	payload, err := json.Marshal(map[string]string{
		"identity": s.identity,
		"password": s.password,
	})
	if err != nil {
		return "", fmt.Errorf("marshal store auth payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/admins/auth-with-password", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create store auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute store auth request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read store auth response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("store auth failed: status %d, body: %s", resp.StatusCode, string(body))
	}

	var authResp storeAuthResponse
	if err := json.Unmarshal(body, &authResp); err != nil {
		return "", fmt.Errorf("unmarshal store auth response: %w", err)
	}

	if authResp.Token == "" {
		return "", errors.New("store auth response missing token")
	}

	return authResp.Token, nil
}

// ListOrders fetches one bounded page of order records. The dispatcher never
// paginates further; if the store holds more pending orders than the page
// size, older ones wait for a later run.
func (s *StoreService) ListOrders(ctx context.Context, token string, filter OrderFilter) ([]StoreOrder, error) {
	endpoint, err := url.Parse(s.baseURL + "/api/collections/orders/records")
	if err != nil {
		return nil, fmt.Errorf("parse store URL: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}

	values := endpoint.Query()
	values.Set("perPage", strconv.Itoa(limit))
	if filter.Status != "" {
		values.Set("filter", fmt.Sprintf("(status='%s')", filter.Status))
	}
	endpoint.RawQuery = values.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create list request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute list request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read list response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("store list failed: status %d, body: %s", resp.StatusCode, string(body))
	}

	var listResp storeListResponse
	if err := json.Unmarshal(body, &listResp); err != nil {
		return nil, fmt.Errorf("unmarshal list response: %w", err)
	}

	return listResp.Items, nil
}

// CreateOrder inserts a new order record and returns the stored record.
func (s *StoreService) CreateOrder(ctx context.Context, token string, fields map[string]any) (*StoreOrder, error) {
	body, err := s.do(ctx, http.MethodPost, "/api/collections/orders/records", token, fields)
	if err != nil {
		return nil, err
	}

	var order StoreOrder
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, fmt.Errorf("unmarshal created order: %w", err)
	}
	return &order, nil
}

// UpdateOrder applies a blind partial update to an order record. There is no
// version check; concurrent writers win field-by-field, which is benign as
// long as they touch different fields.
func (s *StoreService) UpdateOrder(ctx context.Context, token, id string, fields map[string]any) error {
	_, err := s.do(ctx, http.MethodPatch, "/api/collections/orders/records/"+url.PathEscape(id), token, fields)
	return err
}

func (s *StoreService) do(ctx context.Context, method, path, token string, payload any) ([]byte, error) {
	var bodyReader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal store payload: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create store request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute store request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read store response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("store %s %s failed: status %d, body: %s", method, path, resp.StatusCode, string(body))
	}

	return body, nil
}

// Store timestamps arrive either as RFC3339 or as the store's own
// "2006-01-02 15:04:05.000Z" layout.
var storeTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05.000Z",
	"2006-01-02 15:04:05Z",
}

// ParseStoreTime parses a timestamp string from the store. Returns false for
// empty or unparseable values.
func ParseStoreTime(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range storeTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// OrderCreatedAt resolves an order's age anchor: the explicit createdAt
// field, falling back to the store-assigned creation timestamp.
func OrderCreatedAt(order StoreOrder) (time.Time, bool) {
	if t, ok := ParseStoreTime(order.CreatedAt); ok {
		return t, true
	}
	return ParseStoreTime(order.Created)
}
