package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// GatewayService creates online-banking bills at the payment gateway.
type GatewayService struct {
	baseURL  string
	secret   string
	category string
	client   *http.Client
}

// NewGatewayService creates a new GatewayService.
func NewGatewayService(baseURL, secret, category string) *GatewayService {
	return &GatewayService{
		baseURL:  strings.TrimRight(baseURL, "/"),
		secret:   secret,
		category: category,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// BillParams describes the bill to create for one checkout.
type BillParams struct {
	Name        string
	Description string
	Amount      float64 // MYR
	RefID       string  // external order reference, echoed back in the callback
	PayerName   string
	PayerEmail  string
	PayerPhone  string
	ReturnURL   string
	CallbackURL string
}

// BillResult is the created bill and its customer-facing payment URL.
type BillResult struct {
	BillCode   string
	PaymentURL string
}

type createBillResponse struct {
	BillCode string `json:"BillCode"`
}

// CreateBill registers a bill with the gateway and returns the payment URL
// the customer should be redirected to. The gateway expects form-encoded
// input and amounts in cents.
func (s *GatewayService) CreateBill(ctx context.Context, params BillParams) (*BillResult, error) {
	if s.secret == "" || s.category == "" {
		return nil, errors.New("payment gateway credentials are not configured")
	}

	form := url.Values{}
	form.Set("userSecretKey", s.secret)
	form.Set("categoryCode", s.category)
	form.Set("billName", params.Name)
	form.Set("billDescription", params.Description)
	form.Set("billAmount", strconv.FormatInt(int64(math.Round(params.Amount*100)), 10))
	form.Set("billExternalReferenceNo", params.RefID)
	form.Set("billTo", params.PayerName)
	form.Set("billEmail", params.PayerEmail)
	form.Set("billPhone", params.PayerPhone)
	form.Set("billReturnUrl", params.ReturnURL)
	form.Set("billCallbackUrl", params.CallbackURL)
	form.Set("billPaymentChannel", "0")
	form.Set("billPriceSetting", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/index.php/api/createBill", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create bill request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute bill request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read bill response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("bill creation failed: status %d, body: %s", resp.StatusCode, string(body))
	}

	// The gateway answers with a single-element array on success and a bare
	// error string otherwise.
	var bills []createBillResponse
	if err := json.Unmarshal(body, &bills); err != nil {
		return nil, fmt.Errorf("bill creation rejected: %s", strings.TrimSpace(string(body)))
	}
	if len(bills) == 0 || bills[0].BillCode == "" {
		return nil, errors.New("bill response missing bill code")
	}

	return &BillResult{
		BillCode:   bills[0].BillCode,
		PaymentURL: s.baseURL + "/" + bills[0].BillCode,
	}, nil
}
