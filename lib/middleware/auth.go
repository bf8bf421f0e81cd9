// Package middleware provides HTTP middleware for the mirage API.
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/miragehq/mirage/lib/logger"
)

type contextKey string

const ownerIdKey contextKey = "owner_id"

// OwnerFromContext returns the authenticated owner id, or empty.
func OwnerFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(ownerIdKey).(string); ok {
		return id
	}
	return ""
}

// WithOwner injects an owner id directly; used by tests and by the
// auth middleware itself.
func WithOwner(ctx context.Context, ownerId string) context.Context {
	return context.WithValue(ctx, ownerIdKey, ownerId)
}

// JwtAuth validates bearer tokens and stores the subject claim in the
// request context as the owner id. Every store query downstream is
// scoped to that id.
func JwtAuth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := logger.FromContext(ctx)

			token, err := extractBearerToken(r.Header.Get("Authorization"))
			if err != nil {
				log.DebugContext(ctx, "invalid authorization header", "error", err)
				unauthorized(w)
				return
			}

			claims := jwt.MapClaims{}
			parsed, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !parsed.Valid {
				log.DebugContext(ctx, "failed to validate JWT", "error", err)
				unauthorized(w)
				return
			}

			sub, ok := claims["sub"].(string)
			if !ok || sub == "" {
				log.DebugContext(ctx, "JWT missing subject claim")
				unauthorized(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithOwner(ctx, sub)))
		})
	}
}

func extractBearerToken(header string) (string, error) {
	if header == "" {
		return "", fmt.Errorf("authorization header required")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", fmt.Errorf("expected bearer token")
	}
	return parts[1], nil
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	fmt.Fprint(w, `{"code":"unauthorized","message":"invalid or missing token"}`)
}
