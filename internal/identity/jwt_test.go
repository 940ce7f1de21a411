package identity

import (
	"context"
	"testing"
	"time"

	"github.com/bissquit/shop-subscriptions/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJWTAuthenticator(t *testing.T) {
	_, err := NewJWTAuthenticator("", time.Hour)
	assert.Error(t, err)

	auth, err := NewJWTAuthenticator("secret", 0)
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, auth.ttl)
}

func TestJWTAuthenticator_RoundTrip(t *testing.T) {
	auth, err := NewJWTAuthenticator("secret", time.Hour)
	require.NoError(t, err)

	issuedAt := time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC)
	auth.now = func() time.Time { return issuedAt }

	token, err := auth.IssueToken(&domain.User{ID: "u-1", Role: domain.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, issuedAt.Add(time.Hour), token.ExpiresAt)

	userID, role, err := auth.ValidateToken(context.Background(), token.Token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", userID)
	assert.Equal(t, domain.RoleAdmin, role)
}

func TestJWTAuthenticator_Rejects(t *testing.T) {
	auth, err := NewJWTAuthenticator("secret", time.Hour)
	require.NoError(t, err)
	issuedAt := time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC)
	auth.now = func() time.Time { return issuedAt }

	valid, err := auth.IssueToken(&domain.User{ID: "u-1", Role: domain.RoleUser})
	require.NoError(t, err)

	other, err := NewJWTAuthenticator("other-secret", time.Hour)
	require.NoError(t, err)
	foreign, err := other.IssueToken(&domain.User{ID: "u-1", Role: domain.RoleUser})
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub":  "u-1",
		"role": "admin",
		"iss":  tokenIssuer,
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	badRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "u-1",
		"role": "root",
		"iss":  tokenIssuer,
		"exp":  issuedAt.Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		now   time.Time
	}{
		{"garbage", "not-a-token", issuedAt},
		{"other secret", foreign.Token, issuedAt},
		{"none algorithm", unsigned, issuedAt},
		{"unknown role", badRole, issuedAt},
		{"expired", valid.Token, issuedAt.Add(2 * time.Hour)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth.now = func() time.Time { return tt.now }
			_, _, err := auth.ValidateToken(context.Background(), tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
