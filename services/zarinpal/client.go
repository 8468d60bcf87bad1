// Package zarinpal implements the payment gateway adapter against the
// Zarinpal v4 JSON API. The rest of the app only sees the Gateway
// interface; gateway failures never mutate local payment state.
package zarinpal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// BaseURL is the production Zarinpal API base URL
	BaseURL = "https://payment.zarinpal.com"
	// SandboxBaseURL is the sandbox environment
	SandboxBaseURL = "https://sandbox.zarinpal.com"

	// DefaultTimeout is the HTTP client timeout for gateway calls
	DefaultTimeout = 30 * time.Second

	// CodeSuccess means the payment was verified
	CodeSuccess = 100
	// CodeAlreadyVerified means a previous verify call already confirmed
	// this authority; treated as success
	CodeAlreadyVerified = 101
)

var (
	// ErrGateway wraps any transport or gateway-side failure
	ErrGateway = errors.New("payment gateway error")
	// ErrVerificationFailed means the gateway rejected the verification
	ErrVerificationFailed = errors.New("payment verification failed")
)

// Checkout is the result of a successful payment request.
type Checkout struct {
	Authority   string
	RedirectURL string
}

// Verification is the result of a successful verify call.
type Verification struct {
	RefID   string
	CardPan string
	Fee     int64
}

// Gateway is the payment gateway interface the payment service depends on.
type Gateway interface {
	CreateCheckout(ctx context.Context, amount int64, description, callbackURL, mobile, email string) (*Checkout, error)
	VerifyCheckout(ctx context.Context, authority string, amount int64) (*Verification, error)
}

// Client is the Zarinpal HTTP implementation of Gateway.
type Client struct {
	merchantID string
	baseURL    string
	httpClient *http.Client
}

// Config holds configuration for the Zarinpal client
type Config struct {
	MerchantID string
	Sandbox    bool
	Timeout    time.Duration
	BaseURL    string // overrides Sandbox selection when set; used by tests
}

// NewClient creates a new Zarinpal API client
func NewClient(config Config) *Client {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = BaseURL
		if config.Sandbox {
			baseURL = SandboxBaseURL
		}
	}
	timeout := config.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		merchantID: config.MerchantID,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type requestPayload struct {
	MerchantID  string            `json:"merchant_id"`
	Amount      int64             `json:"amount"`
	Description string            `json:"description"`
	CallbackURL string            `json:"callback_url"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type verifyPayload struct {
	MerchantID string `json:"merchant_id"`
	Amount     int64  `json:"amount"`
	Authority  string `json:"authority"`
}

type gatewayEnvelope struct {
	Data struct {
		Code      int    `json:"code"`
		Message   string `json:"message"`
		Authority string `json:"authority"`
		RefID     int64  `json:"ref_id"`
		CardPan   string `json:"card_pan"`
		Fee       int64  `json:"fee"`
	} `json:"data"`
	Errors json.RawMessage `json:"errors"`
}

func (c *Client) post(ctx context.Context, path string, payload interface{}) (*gatewayEnvelope, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", ErrGateway, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrGateway, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrGateway, err)
	}

	var envelope gatewayEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("%w: decode response (status %d): %v", ErrGateway, resp.StatusCode, err)
	}

	return &envelope, nil
}

// CreateCheckout registers a payment with the gateway and returns the
// authority code plus the URL to redirect the payer to.
func (c *Client) CreateCheckout(ctx context.Context, amount int64, description, callbackURL, mobile, email string) (*Checkout, error) {
	payload := requestPayload{
		MerchantID:  c.merchantID,
		Amount:      amount,
		Description: description,
		CallbackURL: callbackURL,
	}
	if mobile != "" || email != "" {
		payload.Metadata = map[string]string{}
		if mobile != "" {
			payload.Metadata["mobile"] = mobile
		}
		if email != "" {
			payload.Metadata["email"] = email
		}
	}

	envelope, err := c.post(ctx, "/pg/v4/payment/request.json", payload)
	if err != nil {
		return nil, err
	}

	if envelope.Data.Code != CodeSuccess || envelope.Data.Authority == "" {
		return nil, fmt.Errorf("%w: code %d: %s", ErrGateway, envelope.Data.Code, envelope.Data.Message)
	}

	return &Checkout{
		Authority:   envelope.Data.Authority,
		RedirectURL: fmt.Sprintf("%s/pg/StartPay/%s", c.baseURL, envelope.Data.Authority),
	}, nil
}

// VerifyCheckout confirms a payment with the gateway. Codes 100 and 101
// both count as success; 101 means the gateway had already verified this
// authority.
func (c *Client) VerifyCheckout(ctx context.Context, authority string, amount int64) (*Verification, error) {
	payload := verifyPayload{
		MerchantID: c.merchantID,
		Amount:     amount,
		Authority:  authority,
	}

	envelope, err := c.post(ctx, "/pg/v4/payment/verify.json", payload)
	if err != nil {
		return nil, err
	}

	switch envelope.Data.Code {
	case CodeSuccess, CodeAlreadyVerified:
		return &Verification{
			RefID:   fmt.Sprintf("%d", envelope.Data.RefID),
			CardPan: envelope.Data.CardPan,
			Fee:     envelope.Data.Fee,
		}, nil
	default:
		return nil, fmt.Errorf("%w: code %d: %s", ErrVerificationFailed, envelope.Data.Code, envelope.Data.Message)
	}
}
