package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/vetcaselab/vetcase-api/services/sms"
	"github.com/vetcaselab/vetcase-api/utils/cache"
)

var (
	// ErrOTPCooldown means a code was requested again too soon.
	ErrOTPCooldown = errors.New("a code was sent recently, try again later")
	// ErrOTPInvalid means the submitted code is wrong or expired.
	ErrOTPInvalid = errors.New("invalid or expired verification code")
	// ErrOTPUnavailable means the backing store is down.
	ErrOTPUnavailable = errors.New("otp service unavailable")
)

const (
	otpTTL      = 2 * time.Minute
	otpCooldown = 60 * time.Second
	otpDigits   = 6
)

// OTPService issues and verifies one-time login codes backed by Redis.
type OTPService struct {
	cache  *cache.RedisCache
	sender sms.Sender
}

// NewOTPService creates an OTP service.
func NewOTPService(cache *cache.RedisCache, sender sms.Sender) *OTPService {
	return &OTPService{cache: cache, sender: sender}
}

func otpKey(phone string) string {
	return "otp:code:" + phone
}

func otpCooldownKey(phone string) string {
	return "otp:cooldown:" + phone
}

// Request generates a code for the phone, stores it with a short TTL and
// delivers it via SMS. A cooldown key prevents rapid resends.
func (s *OTPService) Request(ctx context.Context, phone string) error {
	if s.cache == nil {
		return ErrOTPUnavailable
	}
	ok, err := s.cache.SetNX(ctx, otpCooldownKey(phone), "1", otpCooldown)
	if err != nil {
		return fmt.Errorf("otp: cooldown check failed: %w", err)
	}
	if !ok {
		return ErrOTPCooldown
	}

	code, err := generateCode(otpDigits)
	if err != nil {
		return fmt.Errorf("otp: failed to generate code: %w", err)
	}

	if err := s.cache.Set(ctx, otpKey(phone), code, otpTTL); err != nil {
		return fmt.Errorf("otp: failed to store code: %w", err)
	}

	if err := s.sender.SendOTP(ctx, phone, code); err != nil {
		// Drop the stored code so the user can retry immediately
		_ = s.cache.Delete(ctx, otpKey(phone), otpCooldownKey(phone))
		return err
	}

	return nil
}

// Verify checks the submitted code and consumes it on success.
func (s *OTPService) Verify(ctx context.Context, phone, code string) error {
	if s.cache == nil {
		return ErrOTPUnavailable
	}
	stored, err := s.cache.Get(ctx, otpKey(phone))
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return ErrOTPInvalid
		}
		return fmt.Errorf("otp: lookup failed: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		return ErrOTPInvalid
	}

	// Single use
	_ = s.cache.Delete(ctx, otpKey(phone))
	return nil
}

func generateCode(digits int) (string, error) {
	max := big.NewInt(1)
	for i := 0; i < digits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", digits, n), nil
}
