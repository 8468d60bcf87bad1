package zarinpal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func gatewayResponse(code int, fields map[string]interface{}) map[string]interface{} {
	data := map[string]interface{}{"code": code, "message": "test"}
	for k, v := range fields {
		data[k] = v
	}
	return map[string]interface{}{"data": data, "errors": []interface{}{}}
}

func TestCreateCheckout(t *testing.T) {
	var captured requestPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pg/v4/payment/request.json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(gatewayResponse(CodeSuccess, map[string]interface{}{
			"authority": "A00000000000000000000000000123456789",
		}))
	}))
	defer server.Close()

	client := NewClient(Config{MerchantID: "test-merchant", BaseURL: server.URL})

	checkout, err := client.CreateCheckout(context.Background(), 990000, "Monthly plan", "https://example.com/cb", "09120000000", "")
	if err != nil {
		t.Fatalf("CreateCheckout: %v", err)
	}
	if checkout.Authority != "A00000000000000000000000000123456789" {
		t.Errorf("authority = %q", checkout.Authority)
	}
	if !strings.Contains(checkout.RedirectURL, "/pg/StartPay/"+checkout.Authority) {
		t.Errorf("redirect URL %q missing StartPay authority", checkout.RedirectURL)
	}
	if captured.MerchantID != "test-merchant" || captured.Amount != 990000 {
		t.Errorf("request payload = %+v", captured)
	}
	if captured.Metadata["mobile"] != "09120000000" {
		t.Errorf("mobile metadata = %q", captured.Metadata["mobile"])
	}
}

func TestCreateCheckoutRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(gatewayResponse(-9, nil))
	}))
	defer server.Close()

	client := NewClient(Config{MerchantID: "m", BaseURL: server.URL})

	_, err := client.CreateCheckout(context.Background(), 1000, "d", "https://example.com/cb", "", "")
	if !errors.Is(err, ErrGateway) {
		t.Fatalf("expected ErrGateway, got %v", err)
	}
}

func TestVerifyCheckout(t *testing.T) {
	codes := []int{CodeSuccess, CodeAlreadyVerified}
	for _, code := range codes {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/pg/v4/payment/verify.json" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			json.NewEncoder(w).Encode(gatewayResponse(code, map[string]interface{}{
				"ref_id":   201234567890,
				"card_pan": "502229******1234",
				"fee":      12000,
			}))
		}))

		client := NewClient(Config{MerchantID: "m", BaseURL: server.URL})
		verification, err := client.VerifyCheckout(context.Background(), "A123", 990000)
		server.Close()
		if err != nil {
			t.Fatalf("VerifyCheckout code %d: %v", code, err)
		}
		if verification.RefID != "201234567890" {
			t.Errorf("ref id = %q", verification.RefID)
		}
		if verification.Fee != 12000 {
			t.Errorf("fee = %d", verification.Fee)
		}
	}
}

func TestVerifyCheckoutFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(gatewayResponse(-51, nil))
	}))
	defer server.Close()

	client := NewClient(Config{MerchantID: "m", BaseURL: server.URL})

	_, err := client.VerifyCheckout(context.Background(), "A123", 990000)
	if !errors.Is(err, ErrVerificationFailed) {
		t.Fatalf("expected ErrVerificationFailed, got %v", err)
	}
	if errors.Is(err, ErrGateway) {
		t.Fatal("verification failure must not be a gateway error")
	}
}

func TestGatewayUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("upstream down"))
	}))
	defer server.Close()

	client := NewClient(Config{MerchantID: "m", BaseURL: server.URL})

	_, err := client.VerifyCheckout(context.Background(), "A123", 990000)
	if !errors.Is(err, ErrGateway) {
		t.Fatalf("expected ErrGateway, got %v", err)
	}
}
