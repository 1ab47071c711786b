package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"ridelink/internal/ride-service/adapters/driver/myhttp/handle"
	"ridelink/internal/ride-service/core/domain/model"

	"github.com/golang-jwt/jwt"
)

type AuthMiddleware struct {
	accessSecret string
}

func NewAuthMiddleware(accessSecret string) *AuthMiddleware {
	return &AuthMiddleware{
		accessSecret: accessSecret,
	}
}

// Wrap authenticates the request and places the resulting actor in the
// request context. Authorization per operation stays in the services; the
// middleware only establishes who is calling.
func (am *AuthMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := r.Header.Get("Authorization")
		if tokenString == "" {
			handle.JsonError(w, http.StatusUnauthorized, fmt.Errorf("empty JWT-Token"))
			return
		}
		tokenString = strings.TrimPrefix(tokenString, "Bearer ")
		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return []byte(am.accessSecret), nil
		})
		if err != nil {
			handle.JsonError(w, http.StatusUnauthorized, fmt.Errorf("failed to parse JWT-Token"))
			return
		}

		if !token.Valid {
			handle.JsonError(w, http.StatusUnauthorized, fmt.Errorf("invalid JWT-Token"))
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			handle.JsonError(w, http.StatusUnauthorized, fmt.Errorf("invalid claims"))
			return
		}

		userId, ok := claims["user_id"].(string)
		if !ok {
			handle.JsonError(w, http.StatusUnauthorized, fmt.Errorf("user id not found in token"))
			return
		}

		role, ok := claims["role"].(string)
		if !ok {
			handle.JsonError(w, http.StatusUnauthorized, fmt.Errorf("role not found in token"))
			return
		}

		switch role {
		case model.RoleRider, model.RoleDriver, model.RoleAdmin:
		default:
			handle.JsonError(w, http.StatusForbidden, fmt.Errorf("unknown role %q", role))
			return
		}

		actor := model.Actor{ID: userId, Role: role}
		next.ServeHTTP(w, r.WithContext(model.WithActor(r.Context(), actor)))
	})
}
