package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bissquit/shop-subscriptions/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "shop-subscriptions"

// AccessToken is a signed access token and its expiry.
type AccessToken struct {
	Token     string    `json:"access_token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
}

type accessClaims struct {
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// JWTAuthenticator issues and validates HS256 access tokens.
type JWTAuthenticator struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTAuthenticator creates a new authenticator.
func NewJWTAuthenticator(secret string, ttl time.Duration) (*JWTAuthenticator, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &JWTAuthenticator{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// IssueToken signs an access token for the user.
func (a *JWTAuthenticator) IssueToken(user *domain.User) (*AccessToken, error) {
	now := a.now()
	expiresAt := now.Add(a.ttl)

	claims := accessClaims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &AccessToken{
		Token:     signed,
		TokenType: "Bearer",
		ExpiresAt: expiresAt,
	}, nil
}

// ValidateToken implements httputil.TokenValidator.
func (a *JWTAuthenticator) ValidateToken(_ context.Context, token string) (string, domain.Role, error) {
	var claims accessClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil || !parsed.Valid {
		return "", "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if claims.Subject == "" {
		return "", "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	switch claims.Role {
	case domain.RoleUser, domain.RoleAdmin:
	default:
		return "", "", fmt.Errorf("%w: unknown role %q", ErrInvalidToken, claims.Role)
	}

	return claims.Subject, claims.Role, nil
}
