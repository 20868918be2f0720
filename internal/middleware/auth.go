package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt"

	"github.com/arvindrao/savaari/pkg/utils"
)

type contextKey string

const userIDKey contextKey = "user_id"

type AuthMiddleware struct {
	jwtSecret string
}

func NewAuthMiddleware(jwtSecret string) *AuthMiddleware {
	return &AuthMiddleware{jwtSecret: jwtSecret}
}

// Handler validates the bearer token and stashes the rider id in the
// request context.
func (am *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			utils.Unauthorized(w, "missing authorization header")
			return
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(am.jwtSecret), nil
		})
		if err != nil || !token.Valid {
			utils.Unauthorized(w, "invalid or expired token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			utils.Unauthorized(w, "invalid token claims")
			return
		}
		sub, _ := claims["sub"].(string)
		if sub == "" {
			utils.Unauthorized(w, "invalid token subject")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, sub)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserIDFromContext returns the authenticated rider id, if any.
func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}
