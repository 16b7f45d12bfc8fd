package taxconfig

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-proposal/internal/common"
	"github.com/noah-isme/backend-proposal/internal/pricing"
)

// Handler exposes admin endpoints for tax reference data.
type Handler struct {
	Svc *Service
}

// List handles GET /admin/tax-configs.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	items, err := h.Svc.List(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	if items == nil {
		items = []pricing.TaxConfig{}
	}
	common.Data(w, http.StatusOK, items)
}

// Get handles GET /admin/tax-configs/{country}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	cfg, err := h.Svc.Get(r.Context(), chi.URLParam(r, "country"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, cfg)
}

// Put handles PUT /admin/tax-configs/{country}. The path segment wins over any country
// code in the body.
func (h *Handler) Put(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var payload pricing.TaxConfig
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	payload.CountryCode = chi.URLParam(r, "country")
	saved, err := h.Svc.Upsert(r.Context(), payload)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, saved)
}

func (h *Handler) ready(w http.ResponseWriter) bool {
	if h == nil || h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "tax config service not configured", nil)
		return false
	}
	return true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "tax configuration not found", nil)
	case errors.Is(err, ErrInvalidConfig):
		common.JSONError(w, http.StatusBadRequest, "INVALID_TAX_CONFIG", err.Error(), nil)
	default:
		h.Svc.logger.Error().Err(err).Msg("tax config request failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
	}
}
