package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrExpiredToken  = errors.New("token has expired")
	ErrInvalidClaims = errors.New("invalid token claims")
)

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret        string
	Expiry        time.Duration
	RefreshExpiry time.Duration
	Issuer        string
}

// Claims represents JWT claims
type Claims struct {
	UserID       uint   `json:"user_id"`
	Phone        string `json:"phone"`
	Role         string `json:"role"`
	TokenType    string `json:"token_type"`    // "access" or "refresh"
	TokenVersion int    `json:"token_version"` // For invalidating all tokens
	jwt.RegisteredClaims
}

// JWTManager handles JWT token operations
type JWTManager struct {
	config JWTConfig
}

// NewJWTManager creates a new JWT manager
func NewJWTManager(config JWTConfig) *JWTManager {
	return &JWTManager{config: config}
}

func (j *JWTManager) generate(userID uint, phone, role, tokenType string, tokenVersion int, expiry time.Duration) (string, error) {
	now := time.Now()

	claims := Claims{
		UserID:       userID,
		Phone:        phone,
		Role:         role,
		TokenType:    tokenType,
		TokenVersion: tokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    j.config.Issuer,
			Subject:   phone,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.config.Secret))
}

// GenerateAccessToken generates a new access token
func (j *JWTManager) GenerateAccessToken(userID uint, phone, role string, tokenVersion int) (string, error) {
	return j.generate(userID, phone, role, "access", tokenVersion, j.config.Expiry)
}

// GenerateRefreshToken generates a new refresh token
func (j *JWTManager) GenerateRefreshToken(userID uint, phone, role string, tokenVersion int) (string, error) {
	return j.generate(userID, phone, role, "refresh", tokenVersion, j.config.RefreshExpiry)
}

// AccessExpirySeconds returns the configured access token lifetime in seconds
func (j *JWTManager) AccessExpirySeconds() int {
	return int(j.config.Expiry.Seconds())
}

// ValidateToken parses and validates a token string
func (j *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(j.config.Secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}

	return claims, nil
}
