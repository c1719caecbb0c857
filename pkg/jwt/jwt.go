package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrTokenExpired is returned for a well-formed token past its expiry
var ErrTokenExpired = errors.New("token expired")

// Manager handles JWT operations
type Manager struct {
	secret string
	expiry time.Duration
	issuer string
	now    func() time.Time
}

// NewManager creates a new JWT manager
func NewManager(secret string, expiry time.Duration, issuer string) *Manager {
	if issuer == "" {
		issuer = "assembly-floor"
	}
	return &Manager{
		secret: secret,
		expiry: expiry,
		issuer: issuer,
		now:    time.Now,
	}
}

// GenerateAdminToken issues an administrator token for name
func (m *Manager) GenerateAdminToken(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("token subject is required")
	}
	now := m.now()
	claims := &Claims{
		Name: name,
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    m.issuer,
			Subject:   name,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.secret))
}

// ValidateAccessToken validates and parses a token
func (m *Manager) ValidateAccessToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(m.secret), nil
	}, jwt.WithIssuer(m.issuer), jwt.WithTimeFunc(m.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return claims, nil
}

// GetExpiry returns the token lifetime
func (m *Manager) GetExpiry() time.Duration {
	return m.expiry
}
