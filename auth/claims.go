// Package auth issues and validates the platform's JWT session tokens and
// exposes the resulting principal to the dispatch core.
package auth

import "github.com/golang-jwt/jwt/v5"

// Claims is the platform session token payload. It embeds
// jwt.RegisteredClaims for the standard fields (exp, iat, sub) and carries
// the granted permission identifiers the access guard consults.
type Claims struct {
	jwt.RegisteredClaims
	UserID      string   `json:"user_id"`
	Username    string   `json:"username,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

// ID implements access.Principal.
func (c *Claims) ID() string { return c.UserID }

// HasPermission implements access.Principal.
func (c *Claims) HasPermission(id string) bool {
	for _, p := range c.Permissions {
		if p == id {
			return true
		}
	}
	return false
}
