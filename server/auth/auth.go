// Package auth issues and verifies the HS256 access tokens that identify API callers.
package auth

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

const (
	// Issuer is the iss claim of every access token.
	Issuer = "echomind"
	// AccessTokenAudienceName is the aud claim of every access token.
	AccessTokenAudienceName = "user.access-token"
	// KeyID is the kid header of every access token.
	KeyID = "v1"
)

// ClaimsMessage is the JWT claim set of an access token. The subject is the user id.
type ClaimsMessage struct {
	jwt.RegisteredClaims
}

// UserClaims is the identity extracted from a valid token.
type UserClaims struct {
	UserID int32
}

// GenerateAccessToken signs a token for userID. expiresIn <= 0 means no expiry.
func GenerateAccessToken(userID int32, secret string, expiresIn time.Duration) (string, error) {
	if userID <= 0 {
		return "", errors.New("user id must be positive")
	}
	now := time.Now()
	claims := &ClaimsMessage{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   Issuer,
			Audience: jwt.ClaimStrings{AccessTokenAudienceName},
			Subject:  strconv.Itoa(int(userID)),
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if expiresIn > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(expiresIn))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["kid"] = KeyID
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", errors.Wrap(err, "failed to sign access token")
	}
	return signed, nil
}

// ParseAccessToken verifies signature, issuer, audience and expiry and returns the user claims.
func ParseAccessToken(tokenString, secret string) (*UserClaims, error) {
	claims := &ClaimsMessage{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if kid, ok := t.Header["kid"].(string); !ok || kid != KeyID {
			return nil, errors.Errorf("unexpected kid %v", t.Header["kid"])
		}
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithAudience(AccessTokenAudienceName),
	)
	if err != nil {
		return nil, errors.Wrap(err, "invalid access token")
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 32)
	if err != nil || userID <= 0 {
		return nil, errors.Errorf("invalid token subject %q", claims.Subject)
	}
	return &UserClaims{UserID: int32(userID)}, nil
}

// Authenticator resolves an Authorization header to a user.
type Authenticator struct {
	secret string
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: secret}
}

// Authenticate returns nil when the header is absent or the token is invalid.
// Callers treat nil as an anonymous request.
func (a *Authenticator) Authenticate(_ context.Context, authHeader string) *UserClaims {
	token := ExtractBearerToken(authHeader)
	if token == "" {
		return nil
	}
	claims, err := ParseAccessToken(token, a.secret)
	if err != nil {
		return nil
	}
	return claims
}

// ExtractBearerToken returns the token of a "Bearer <token>" header, or "".
func ExtractBearerToken(authHeader string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(authHeader), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

type claimsContextKey struct{}

// SetUserClaimsInContext stores the caller's claims in ctx.
func SetUserClaimsInContext(ctx context.Context, claims *UserClaims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

// GetUserClaims returns the caller's claims or nil.
func GetUserClaims(ctx context.Context) *UserClaims {
	claims, _ := ctx.Value(claimsContextKey{}).(*UserClaims)
	return claims
}

// UserIDFromContext returns the caller's user id, 0 for anonymous callers.
func UserIDFromContext(ctx context.Context) int32 {
	if claims := GetUserClaims(ctx); claims != nil {
		return claims.UserID
	}
	return 0
}
