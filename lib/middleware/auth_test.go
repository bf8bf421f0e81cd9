package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func authTestHandler() (http.Handler, *string) {
	var gotOwner string
	h := JwtAuth(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotOwner = OwnerFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	return h, &gotOwner
}

func TestJwtAuth_ValidToken(t *testing.T) {
	h, gotOwner := authTestHandler()

	token := signToken(t, testSecret, jwt.MapClaims{
		"sub": "owner-a",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/instances", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "owner-a", *gotOwner)
}

func TestJwtAuth_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic dXNlcjpwYXNz"},
		{"garbage token", "Bearer not.a.jwt"},
		{"wrong secret", "Bearer "},
		{"expired token", "Bearer "},
		{"missing sub", "Bearer "},
	}

	// Fill in the computed tokens.
	tests[3].header += signToken(t, "other-secret", jwt.MapClaims{"sub": "owner-a"})
	tests[4].header += signToken(t, testSecret, jwt.MapClaims{
		"sub": "owner-a",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	tests[5].header += signToken(t, testSecret, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := authTestHandler()
			req := httptest.NewRequest(http.MethodGet, "/instances", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), "unauthorized")
		})
	}
}

func TestWithOwner_RoundTrip(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := WithOwner(req.Context(), "owner-a")
	assert.Equal(t, "owner-a", OwnerFromContext(ctx))
	assert.Empty(t, OwnerFromContext(req.Context()))
}
