// Package auth issues and verifies the signed identity tokens that gate
// every ledger operation, and hashes credentials at rest.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers every verification failure: malformed token,
// bad signature, expiry, or an unusable subject claim. Callers must not
// learn which check failed.
var ErrInvalidToken = errors.New("invalid or expired token")

// TokenManager mints and verifies signed, time-bound JWTs. Tokens are
// stateless: validity is determined purely by signature and expiry, so
// there is no revocation list.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewTokenManager creates a manager with the provided secret, issuer, and lifetime.
func NewTokenManager(secret, issuer string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
	}
}

// Generate issues a signed HS256 token for the given owner id.
func (t *TokenManager) Generate(ownerID int64) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss": t.issuer,
		"sub": strconv.FormatInt(ownerID, 10),
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"exp": now.Add(t.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Verify checks signature, expiry, and issuer, and resolves the token to
// the owner id it was minted for.
func (t *TokenManager) Verify(raw string) (int64, error) {
	token, err := jwt.Parse(raw,
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
			}
			return t.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return 0, ErrInvalidToken
	}

	subject, err := token.Claims.GetSubject()
	if err != nil {
		return 0, ErrInvalidToken
	}
	ownerID, err := strconv.ParseInt(subject, 10, 64)
	if err != nil || ownerID <= 0 {
		return 0, ErrInvalidToken
	}
	return ownerID, nil
}
