package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signToken(t *testing.T, secret, sub string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return signed
}

func TestVerifierUserID(t *testing.T) {
	v := NewVerifier("test-secret")

	t.Run("ValidToken", func(t *testing.T) {
		userID, err := v.UserID(signToken(t, "test-secret", "user-42"))
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if userID != "user-42" {
			t.Errorf("Expected user-42, got %q", userID)
		}
	})

	t.Run("WrongSecret", func(t *testing.T) {
		if _, err := v.UserID(signToken(t, "other-secret", "user-42")); err == nil {
			t.Fatal("Expected an error for wrong secret, got nil")
		}
	})

	t.Run("Expired", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "user-42",
			"exp": time.Now().Add(-time.Hour).Unix(),
		})
		signed, _ := token.SignedString([]byte("test-secret"))
		if _, err := v.UserID(signed); err == nil {
			t.Fatal("Expected an error for expired token, got nil")
		}
	})

	t.Run("NoSubject", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		signed, _ := token.SignedString([]byte("test-secret"))
		if _, err := v.UserID(signed); err == nil {
			t.Fatal("Expected an error for missing subject, got nil")
		}
	})

	t.Run("DisabledVerifier", func(t *testing.T) {
		disabled := NewVerifier("")
		if _, err := disabled.UserID(signToken(t, "test-secret", "user-42")); err == nil {
			t.Fatal("Expected an error from disabled verifier, got nil")
		}
	})
}

func TestMiddleware(t *testing.T) {
	v := NewVerifier("test-secret")

	var seenUserID string
	handler := Middleware(v)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUserID = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("WithToken", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, "test-secret", "user-42"))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rr.Code)
		}
		if seenUserID != "user-42" {
			t.Errorf("Expected identity user-42, got %q", seenUserID)
		}
	})

	t.Run("NoHeader", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("Anonymous request must pass, got %d", rr.Code)
		}
		if seenUserID != "" {
			t.Errorf("Expected anonymous identity, got %q", seenUserID)
		}
	})

	t.Run("InvalidTokenDegradesToAnonymous", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("Invalid token must not reject the request, got %d", rr.Code)
		}
		if seenUserID != "" {
			t.Errorf("Expected anonymous identity, got %q", seenUserID)
		}
	})
}
