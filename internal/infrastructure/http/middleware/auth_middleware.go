package middleware

import (
	stdErrors "errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/johnquangdev/assembly-floor/errors"
	"github.com/johnquangdev/assembly-floor/pkg/jwt"
)

// ClaimsContextKey is the echo context key holding validated token claims
const ClaimsContextKey = "claims"

// AuthMiddleware validates bearer tokens
type AuthMiddleware struct {
	tokens *jwt.Manager
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(tokens *jwt.Manager) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// OptionalAuth validates the token if present and stores its claims.
// A present but invalid token is rejected.
func (m *AuthMiddleware) OptionalAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := ExtractToken(c.Request())
		if token == "" {
			return next(c)
		}
		claims, err := m.tokens.ValidateAccessToken(token)
		if err != nil {
			return tokenError(err)
		}
		c.Set(ClaimsContextKey, claims)
		return next(c)
	}
}

// RequireAdmin rejects requests without an administrator token
func (m *AuthMiddleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, ok := GetClaims(c)
		if !ok {
			token := ExtractToken(c.Request())
			if token == "" {
				return errors.ErrUnauthenticated()
			}
			var err error
			if claims, err = m.tokens.ValidateAccessToken(token); err != nil {
				return tokenError(err)
			}
			c.Set(ClaimsContextKey, claims)
		}
		if !claims.IsAdmin() {
			return errors.ErrPermissionDenied("administrator role required")
		}
		return next(c)
	}
}

// GetClaims returns the claims stored by OptionalAuth or RequireAdmin
func GetClaims(c echo.Context) (*jwt.Claims, bool) {
	claims, ok := c.Get(ClaimsContextKey).(*jwt.Claims)
	return claims, ok
}

// IsAdmin reports whether the request carries an administrator token
func IsAdmin(c echo.Context) bool {
	claims, ok := GetClaims(c)
	return ok && claims.IsAdmin()
}

// ExtractToken reads the bearer token from the Authorization header
func ExtractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

func tokenError(err error) error {
	if stdErrors.Is(err, jwt.ErrTokenExpired) {
		return errors.ErrTokenExpired()
	}
	return errors.ErrInvalidToken().WithRaw(err)
}
