// Package auth holds the signed-in user's session. The session is issued at
// login, cleared at logout or expiry, and read by everything else.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// User identifies the signed-in account.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Session is the token pair issued by the backend.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
	User         User      `json:"user"`
}

// Expired reports whether the session can no longer be used at now.
// A zero ExpiresAt never expires.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// tokenClaims are the access token claims the client cares about.
type tokenClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// inspectToken reads claims without verifying the signature; the backend
// verifies tokens, the client only needs expiry and identity.
func inspectToken(token string) (tokenClaims, error) {
	var claims tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return tokenClaims{}, err
	}
	return claims, nil
}
