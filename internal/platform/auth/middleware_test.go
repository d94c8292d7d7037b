package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func signedToken(t *testing.T, secret []byte, sub string, roles []string) string {
	t.Helper()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Roles: roles,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func runMiddleware(mw echo.MiddlewareFunc, req *http.Request) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	handler := mw(func(c echo.Context) error {
		return c.String(http.StatusOK, UserIDFromContext(c.Request().Context()))
	})
	return rec, handler(c)
}

func TestJWTMiddleware_MissingHeader(t *testing.T) {
	mw := JWTMiddleware(JWTConfig{SigningKey: []byte("secret")})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, err := runMiddleware(mw, req); err == nil {
		t.Fatal("expected error for missing header")
	}
}

func TestJWTMiddleware_BadFormat(t *testing.T) {
	mw := JWTMiddleware(JWTConfig{SigningKey: []byte("secret")})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic abc123")
	if _, err := runMiddleware(mw, req); err == nil {
		t.Fatal("expected error for non-bearer header")
	}
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	secret := []byte("secret")
	sub := uuid.New().String()
	mw := JWTMiddleware(JWTConfig{SigningKey: secret})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, secret, sub, []string{"patient"}))
	rec, err := runMiddleware(mw, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Body.String() != sub {
		t.Errorf("expected subject %s in context, got %q", sub, rec.Body.String())
	}
}

func TestJWTMiddleware_NonUUIDSubject(t *testing.T) {
	secret := []byte("secret")
	mw := JWTMiddleware(JWTConfig{SigningKey: secret})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, secret, "service-account", []string{"patient"}))
	if _, err := runMiddleware(mw, req); err == nil {
		t.Fatal("expected error for non-uuid subject")
	}
}

func TestJWTMiddleware_WrongKey(t *testing.T) {
	mw := JWTMiddleware(JWTConfig{SigningKey: []byte("right")})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, []byte("wrong"), uuid.New().String(), nil))
	if _, err := runMiddleware(mw, req); err == nil {
		t.Fatal("expected error for bad signature")
	}
}

func TestDevAuthMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec, err := runMiddleware(DevAuthMiddleware(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Body.String() != DevUserID.String() {
		t.Errorf("expected dev user id, got %q", rec.Body.String())
	}
}

func TestUserUUIDFromContext_Empty(t *testing.T) {
	if _, err := UserUUIDFromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context()); err == nil {
		t.Fatal("expected error for unauthenticated context")
	}
}
