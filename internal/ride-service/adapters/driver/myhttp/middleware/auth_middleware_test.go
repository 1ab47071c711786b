package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ridelink/internal/ride-service/core/domain/model"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func protectedProbe(t *testing.T) (http.Handler, *model.Actor) {
	t.Helper()
	var seen model.Actor
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := model.ActorFrom(r.Context())
		require.True(t, ok)
		seen = actor
		w.WriteHeader(http.StatusOK)
	})
	return NewAuthMiddleware(testSecret).Wrap(next), &seen
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	handler, seen := protectedProbe(t)

	token := signToken(t, jwt.MapClaims{
		"user_id": "rider-1",
		"role":    model.RoleRider,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/rides/1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.Actor{ID: "rider-1", Role: model.RoleRider}, *seen)
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	handler, _ := protectedProbe(t)

	req := httptest.NewRequest(http.MethodGet, "/rides/1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddleware_WrongSecret(t *testing.T) {
	handler, _ := protectedProbe(t)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "rider-1",
		"role":    model.RoleRider,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("other-secret"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/rides/1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	handler, _ := protectedProbe(t)

	token := signToken(t, jwt.MapClaims{
		"user_id": "rider-1",
		"role":    model.RoleRider,
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/rides/1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddleware_UnknownRole(t *testing.T) {
	handler, _ := protectedProbe(t)

	token := signToken(t, jwt.MapClaims{
		"user_id": "x",
		"role":    "SUPERUSER",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/rides/1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAuthMiddleware_MissingClaims(t *testing.T) {
	handler, _ := protectedProbe(t)

	token := signToken(t, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/rides/1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
