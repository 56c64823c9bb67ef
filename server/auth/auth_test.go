package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := GenerateAccessToken(12, testSecret, time.Hour)
	require.NoError(t, err)

	claims, err := ParseAccessToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, int32(12), claims.UserID)
}

func TestParseAccessToken_Rejects(t *testing.T) {
	valid, err := GenerateAccessToken(1, testSecret, time.Hour)
	require.NoError(t, err)
	noExpiry, err := GenerateAccessToken(1, testSecret, -time.Hour)
	require.NoError(t, err)

	expiredClaims := &ClaimsMessage{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    Issuer,
		Audience:  jwt.ClaimStrings{AccessTokenAudienceName},
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, expiredClaims)
	tok.Header["kid"] = KeyID
	reallyExpired, err := tok.SignedString([]byte(testSecret))
	require.NoError(t, err)

	wrongIssuer := jwt.NewWithClaims(jwt.SigningMethodHS256, &ClaimsMessage{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:   "someone-else",
		Audience: jwt.ClaimStrings{AccessTokenAudienceName},
		Subject:  "1",
	}})
	wrongIssuer.Header["kid"] = KeyID
	wrongIssuerToken, err := wrongIssuer.SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		secret string
	}{
		{"wrong secret", valid, "other"},
		{"garbage", "not.a.jwt", testSecret},
		{"expired", reallyExpired, testSecret},
		{"wrong issuer", wrongIssuerToken, testSecret},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAccessToken(tt.token, tt.secret)
			assert.Error(t, err)
		})
	}

	// A negative duration means no expiry.
	_, err = ParseAccessToken(noExpiry, testSecret)
	assert.NoError(t, err)
}

func TestGenerateAccessToken_InvalidUser(t *testing.T) {
	_, err := GenerateAccessToken(0, testSecret, time.Hour)
	assert.Error(t, err)
}

func TestAuthenticator(t *testing.T) {
	token, err := GenerateAccessToken(5, testSecret, time.Hour)
	require.NoError(t, err)
	a := NewAuthenticator(testSecret)

	tests := []struct {
		name   string
		header string
		want   int32
	}{
		{"bearer", "Bearer " + token, 5},
		{"lowercase scheme", "bearer " + token, 5},
		{"missing", "", 0},
		{"basic", "Basic abc", 0},
		{"invalid token", "Bearer nope", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := a.Authenticate(context.Background(), tt.header)
			ctx := context.Background()
			if claims != nil {
				ctx = SetUserClaimsInContext(ctx, claims)
			}
			assert.Equal(t, tt.want, UserIDFromContext(ctx))
		})
	}
}
