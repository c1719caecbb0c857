package middleware

import (
	stdErrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/johnquangdev/assembly-floor/errors"
	"github.com/johnquangdev/assembly-floor/pkg/jwt"
)

func run(t *testing.T, mw echo.MiddlewareFunc, header string) (bool, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	c := e.NewContext(req, httptest.NewRecorder())

	called := false
	err := mw(func(c echo.Context) error {
		called = true
		return nil
	})(c)
	return called, err
}

func appCode(t *testing.T, err error) errors.ErrorCode {
	t.Helper()
	var appErr errors.AppError
	if !stdErrors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %v", err)
	}
	return appErr.Code
}

func TestRequireAdmin(t *testing.T) {
	tokens := jwt.NewManager("secret", time.Hour, "")
	m := NewAuthMiddleware(tokens)
	token, err := tokens.GenerateAdminToken("chair")
	if err != nil {
		t.Fatal(err)
	}

	called, err := run(t, m.RequireAdmin, "Bearer "+token)
	if err != nil || !called {
		t.Fatalf("admin token rejected: %v", err)
	}

	called, err = run(t, m.RequireAdmin, "")
	if called || appCode(t, err) != errors.ErrorCode_UNAUTHENTICATED {
		t.Fatalf("missing token: called=%v err=%v", called, err)
	}

	called, err = run(t, m.RequireAdmin, "Bearer garbage")
	if called || appCode(t, err) != errors.ErrorCode_AUTH_INVALID_TOKEN {
		t.Fatalf("bad token: called=%v err=%v", called, err)
	}
}

func TestOptionalAuth(t *testing.T) {
	tokens := jwt.NewManager("secret", time.Hour, "")
	m := NewAuthMiddleware(tokens)

	called, err := run(t, m.OptionalAuth, "")
	if err != nil || !called {
		t.Fatal("anonymous request must pass")
	}
	called, err = run(t, m.OptionalAuth, "Bearer garbage")
	if called || err == nil {
		t.Fatal("invalid token must be rejected")
	}
}

func TestExtractToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer  abc ")
	if got := ExtractToken(req); got != "abc" {
		t.Fatalf("got %q", got)
	}
	req.Header.Set("Authorization", "Basic abc")
	if got := ExtractToken(req); got != "" {
		t.Fatalf("got %q", got)
	}
}
