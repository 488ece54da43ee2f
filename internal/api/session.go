package api

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session is the result of a successful login or registration.
type Session struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
	User        User   `json:"user"`
}

// ExpiresAt reads the exp claim from the access token without verifying its
// signature; the server remains the authority. ok is false when the token is
// not a JWT or carries no expiry.
func (s Session) ExpiresAt() (time.Time, bool) {
	if s.AccessToken == "" {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.AccessToken, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Expired reports whether the token is known to be past its expiry at now.
func (s Session) Expired(now time.Time) bool {
	exp, ok := s.ExpiresAt()
	return ok && !now.Before(exp)
}
