package jwt

import (
	"errors"
	"strconv"
	"time"

	"corntrack/internal/core/domain"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "corntrack"

var (
	ErrTokenExpired = errors.New("token has expired")
	ErrTokenInvalid = errors.New("token is invalid")
)

// Claims carries the caller identity trusted by the services
type Claims struct {
	UserID         uint        `json:"user_id"`
	Email          string      `json:"email"`
	Role           domain.Role `json:"role"`
	OrganizationID uint        `json:"organization_id"`
	jwt.RegisteredClaims
}

// Identity returns the authenticated caller
func (c *Claims) Identity() domain.Identity {
	return domain.Identity{UserID: c.UserID, Role: c.Role, OrganizationID: c.OrganizationID}
}

// RefreshClaims represents the refresh token claims
type RefreshClaims struct {
	UserID  uint   `json:"user_id"`
	TokenID string `json:"token_id"`
	jwt.RegisteredClaims
}

// Signer issues and validates tokens with fixed secrets and lifetimes
type Signer struct {
	secret        []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewSigner creates a new token signer
func NewSigner(secret, refreshSecret string, accessMinutes, refreshDays int) *Signer {
	return &Signer{
		secret:        []byte(secret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     time.Duration(accessMinutes) * time.Minute,
		refreshTTL:    time.Duration(refreshDays) * 24 * time.Hour,
	}
}

// AccessTTL returns the access token lifetime
func (s *Signer) AccessTTL() time.Duration { return s.accessTTL }

// RefreshTTL returns the refresh token lifetime
func (s *Signer) RefreshTTL() time.Duration { return s.refreshTTL }

// GenerateAccessToken generates a new access token
func (s *Signer) GenerateAccessToken(id domain.Identity, email string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:         id.UserID,
		Email:          email,
		Role:           id.Role,
		OrganizationID: id.OrganizationID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   strconv.FormatUint(uint64(id.UserID), 10),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// GenerateRefreshToken generates a new refresh token
func (s *Signer) GenerateRefreshToken(userID uint, tokenID string) (string, error) {
	now := time.Now()
	claims := RefreshClaims{
		UserID:  userID,
		TokenID: tokenID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.refreshSecret)
}

// ValidateAccessToken validates an access token and returns claims
func (s *Signer) ValidateAccessToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	if err := parse(tokenString, claims, s.secret); err != nil {
		return nil, err
	}
	return claims, nil
}

// ValidateRefreshToken validates a refresh token and returns claims
func (s *Signer) ValidateRefreshToken(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := parse(tokenString, claims, s.refreshSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

func parse(tokenString string, claims jwt.Claims, secret []byte) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return secret, nil
	}, jwt.WithIssuer(issuer))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrTokenInvalid
	}
	if !token.Valid {
		return ErrTokenInvalid
	}
	return nil
}
