package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/onyxprocessing/opsdash-backend/pkg/config"
)

func authHandler(t *testing.T, token string) http.Handler {
	t.Helper()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return Auth(config.AuthConfig{StaffToken: token}, nil)(next)
}

func TestAuthAcceptsValidToken(t *testing.T) {
	handler := authHandler(t, "staff-secret")

	r := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	r.Header.Set("Authorization", "Bearer staff-secret")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected request to pass auth, got %d", w.Code)
	}
}

func TestAuthRejectsMissingAndMalformedHeaders(t *testing.T) {
	handler := authHandler(t, "staff-secret")

	cases := map[string]string{
		"missing":      "",
		"wrong scheme": "Basic staff-secret",
		"no token":     "Bearer",
	}
	for name, header := range cases {
		r := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", name, w.Code)
		}
	}
}

func TestAuthRejectsWrongToken(t *testing.T) {
	handler := authHandler(t, "staff-secret")

	r := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	r.Header.Set("Authorization", "Bearer guess")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestAuthFailsClosedWithoutConfiguredToken(t *testing.T) {
	handler := authHandler(t, "")

	r := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	r.Header.Set("Authorization", "Bearer anything")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 when token unset, got %d", w.Code)
	}
}
