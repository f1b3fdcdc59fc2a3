package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fivetwenty-io/fleet-client/pkg/fleet"
)

// Claims is the decoded payload of a session token. Tokens are issued by the
// backend and only ever verified there; the client decodes the payload
// without checking the signature, purely to read identity and lifetime.
type Claims struct {
	ID                int64
	Username          string
	Email             string
	IssuedAt          time.Time
	ExpiresAt         time.Time
	TwoFactorRequired bool
}

// sessionClaims mirrors the wire layout of the token payload.
type sessionClaims struct {
	ID                int64  `json:"id"`
	Username          string `json:"username"`
	Email             string `json:"email"`
	TwoFactorRequired bool   `json:"twoFactorRequired"`
	jwt.RegisteredClaims
}

// ParseClaims decodes a session token without verifying its signature.
// Anything that does not parse as a JWT fails with ErrMalformedToken.
func ParseClaims(token string) (*Claims, error) {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())

	var decoded sessionClaims

	_, _, err := parser.ParseUnverified(token, &decoded)
	if err != nil {
		return nil, fmt.Errorf("decoding session token: %w", fleet.ErrMalformedToken)
	}

	claims := &Claims{
		ID:                decoded.ID,
		Username:          decoded.Username,
		Email:             decoded.Email,
		TwoFactorRequired: decoded.TwoFactorRequired,
	}

	if decoded.IssuedAt != nil {
		claims.IssuedAt = decoded.IssuedAt.Time
	}

	if decoded.ExpiresAt != nil {
		claims.ExpiresAt = decoded.ExpiresAt.Time
	}

	return claims, nil
}

// Expired reports whether the token's expiry has passed. Tokens without an
// expiry never expire here; the age-based refresh policy covers them.
func (c *Claims) Expired(now time.Time) bool {
	if c == nil || c.ExpiresAt.IsZero() {
		return false
	}

	return now.After(c.ExpiresAt)
}

// NeedsRefresh reports whether the token should be exchanged for a fresh one
// before further use. A token with an expiry needs refreshing once the expiry
// falls within leadTime. A token without one needs refreshing once its age,
// counted from the issue timestamp, reaches maxAge.
func (c *Claims) NeedsRefresh(now time.Time, leadTime, maxAge time.Duration) bool {
	if c == nil {
		return false
	}

	if !c.ExpiresAt.IsZero() {
		return now.Add(leadTime).After(c.ExpiresAt)
	}

	if c.IssuedAt.IsZero() {
		return false
	}

	return now.Sub(c.IssuedAt) >= maxAge
}
