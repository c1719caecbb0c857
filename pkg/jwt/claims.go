package jwt

import (
	"github.com/golang-jwt/jwt/v5"
)

// RoleAdmin is the role carried by administrator tokens
const RoleAdmin = "admin"

// Claims represents JWT custom claims
type Claims struct {
	Name string `json:"name"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// IsAdmin reports whether the token grants administrator access
func (c *Claims) IsAdmin() bool {
	return c.Role == RoleAdmin
}
