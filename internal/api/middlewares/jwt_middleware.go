package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type ctxKey struct{}

// JWTMiddleware validates the Authorization header and attaches the caller id
// (the "user_id" claim, or "sub") to the request context.
func JWTMiddleware(secret string) func(http.Handler) http.Handler {
	keyFunc := func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				http.Error(w, "missing or invalid token", http.StatusUnauthorized)
				return
			}

			tokenStr := strings.TrimPrefix(auth, "Bearer ")
			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(tokenStr, claims, keyFunc)
			if err != nil || !token.Valid {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			callerID, _ := claims["user_id"].(string)
			if callerID == "" {
				callerID, _ = claims["sub"].(string)
			}
			if callerID == "" {
				http.Error(w, "invalid token claims", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCallerID(r.Context(), callerID)))
		})
	}
}

func WithCallerID(ctx context.Context, callerID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, callerID)
}

// CallerID returns the authenticated caller, or "" outside the middleware.
func CallerID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}
