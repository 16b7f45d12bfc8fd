package settings

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func adminRouter(t *testing.T) (http.Handler, *memoryStore) {
	t.Helper()
	store := newMemoryStore()
	svc, _ := newTestService(t, store)
	h := &Handler{Svc: svc}
	r := chi.NewRouter()
	r.Get("/settings", h.GetGlobal)
	r.Put("/settings", h.PutGlobal)
	r.Get("/proposals/{id}/settings", h.GetProposal)
	r.Put("/proposals/{id}/settings", h.PutProposal)
	return r, store
}

func serve(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func TestGlobalSettingsEndpoints(t *testing.T) {
	r, store := adminRouter(t)

	rec := serve(r, http.MethodGet, "/settings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"data":{"markup":{"type":"percentage"},"distribution":"even","childShare":1}}`, rec.Body.String())

	body := `{"markup":{"type":"slab","slabs":[{"minAmount":0,"maxAmount":10000,"percentage":20},{"minAmount":10000.01,"maxAmount":null,"percentage":10}]},"distribution":"separate","childShare":0.5}`
	rec = serve(r, http.MethodPut, "/settings", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, store.global)
	require.Len(t, store.global.Markup.Slabs, 2)
	require.Nil(t, store.global.Markup.Slabs[1].MaxAmount)

	rec = serve(r, http.MethodPut, "/settings", `{"markup":{"type":"slab"}}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "INVALID_SETTINGS")

	rec = serve(r, http.MethodPut, "/settings", `{`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProposalSettingsEndpoints(t *testing.T) {
	r, store := adminRouter(t)
	id := uuid.New()

	rec := serve(r, http.MethodGet, "/proposals/"+id.String()+"/settings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"inheritFromGlobal":true`)

	rec = serve(r, http.MethodPut, "/proposals/"+id.String()+"/settings", `{"inheritFromGlobal":false,"custom":{"markup":{"type":"percentage","percentage":12},"distribution":"even"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, 12.0, store.proposals[id].Custom.Markup.Percentage)

	rec = serve(r, http.MethodPut, "/proposals/nope/settings", `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
