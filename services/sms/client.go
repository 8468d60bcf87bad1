package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// Sender delivers one-time codes to a phone number.
type Sender interface {
	SendOTP(ctx context.Context, phone, code string) error
}

// ErrSendFailed is returned when the provider rejects the message.
var ErrSendFailed = errors.New("sms: send failed")

// Config holds the SMS provider settings.
type Config struct {
	APIKey     string
	Sender     string
	BaseURL    string
	OTPPattern string // provider-side template id for OTP messages
	Timeout    time.Duration
}

// Client talks to a pattern-based SMS provider over HTTP.
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates an SMS client from config.
func NewClient(config Config) *Client {
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

type patternRequest struct {
	Pattern   string            `json:"pattern"`
	Sender    string            `json:"sender"`
	Recipient string            `json:"recipient"`
	Variables map[string]string `json:"variables"`
}

type patternResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// SendOTP sends a verification code using the configured OTP pattern.
func (c *Client) SendOTP(ctx context.Context, phone, code string) error {
	payload := patternRequest{
		Pattern:   c.config.OTPPattern,
		Sender:    c.config.Sender,
		Recipient: phone,
		Variables: map[string]string{"code": code},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("sms: failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/v1/send/pattern", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("sms: failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", c.config.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: reading response: %v", ErrSendFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: provider returned HTTP %d", ErrSendFailed, resp.StatusCode)
	}

	var parsed patternResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("%w: invalid provider response: %v", ErrSendFailed, err)
	}
	if parsed.Status != 1 {
		return fmt.Errorf("%w: %s", ErrSendFailed, parsed.Message)
	}

	return nil
}

// LogSender writes codes to the application log instead of sending them.
// Used in development and tests when no provider is configured.
type LogSender struct{}

// SendOTP logs the code.
func (LogSender) SendOTP(_ context.Context, phone, code string) error {
	log.Printf("SMS (dev): OTP for %s is %s", phone, code)
	return nil
}
