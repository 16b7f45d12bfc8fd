package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-proposal/internal/common"
)

func protectedHandler(m Middleware) http.Handler {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject, _ := common.Subject(r.Context())
		w.Header().Set("X-Subject", subject)
		w.WriteHeader(http.StatusNoContent)
	})
	return m.RequireAuth(m.RequireRole("admin")(inner))
}

func TestRequireRoleAllowsAdmins(t *testing.T) {
	keys := testKeys(t)
	m := Middleware{Keys: keys}
	token, err := keys.Issue("ops@example.com", []string{"admin"}, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/admin/settings", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	protectedHandler(m).ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "ops@example.com", rec.Header().Get("X-Subject"))
}

func TestRequireRoleForbidsOtherRoles(t *testing.T) {
	keys := testKeys(t)
	m := Middleware{Keys: keys}
	token, err := keys.Issue("agent@example.com", []string{"agent"}, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/admin/settings", nil)
	req.Header.Set("Authorization", "bearer "+token)
	rec := httptest.NewRecorder()
	protectedHandler(m).ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireAuthRejectsMissingAndInvalidTokens(t *testing.T) {
	m := Middleware{Keys: testKeys(t)}

	rec := httptest.NewRecorder()
	protectedHandler(m).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/settings", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/admin/settings", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	protectedHandler(m).ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRoleWithoutAuthentication(t *testing.T) {
	m := Middleware{}
	h := m.RequireRole("admin")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
