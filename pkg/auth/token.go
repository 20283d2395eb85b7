// Package auth offers local, unverified inspection of the bearer token the
// backend issues. The client never validates signatures — that is the
// backend's job — but reading the expiry claim locally lets an obviously
// dead session be cleared without a wasted round trip.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var parser = jwt.NewParser()

// IsExpired reports whether the token carries an exp claim in the past.
// Tokens that cannot be parsed, or that carry no expiry, report false: the
// backend stays the authority for anything we cannot tell locally.
func IsExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Time.Before(now)
}

// Subject returns the sub claim, or "" when the token cannot be parsed.
func Subject(token string) string {
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return ""
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return ""
	}
	return sub
}
