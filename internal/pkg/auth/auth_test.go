package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/pkg/auth"
)

const secret = "test-secret"

func echoActor(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a, ok := auth.ActorFrom(r.Context())
		require.True(t, ok)
		w.Header().Set("X-User", a.Role)
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestMiddleware_BearerAndCookie(t *testing.T) {
	v := auth.NewVerifier(secret)
	tok, err := v.Sign(auth.Actor{UserID: 7, Role: auth.RoleAdmin}, time.Hour)
	require.NoError(t, err)
	h := v.Middleware(echoActor(t))

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "admin", rec.Header().Get("X-User"))

	req = httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: tok})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestMiddleware_Rejects(t *testing.T) {
	v := auth.NewVerifier(secret)
	other, err := auth.NewVerifier("other-secret").Sign(auth.Actor{UserID: 7}, time.Hour)
	require.NoError(t, err)
	expired, err := v.Sign(auth.Actor{UserID: 7}, -time.Hour)
	require.NoError(t, err)
	noUser, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"role": "admin"}).SignedString([]byte(secret))
	require.NoError(t, err)

	for name, header := range map[string]string{
		"missing":      "",
		"wrong secret": "Bearer " + other,
		"expired":      "Bearer " + expired,
		"no user id":   "Bearer " + noUser,
		"garbage":      "Bearer not-a-jwt",
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/orders", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			v.Middleware(echoActor(t)).ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error":"UNAUTHORIZED"`)
		})
	}
}

func TestVerify_DefaultsRoleToUser(t *testing.T) {
	v := auth.NewVerifier(secret)
	tok, err := v.Sign(auth.Actor{UserID: 3}, time.Hour)
	require.NoError(t, err)

	a, err := v.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, uint(3), a.UserID)
	assert.False(t, a.IsAdmin())
}
