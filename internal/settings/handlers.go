package settings

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/backend-proposal/internal/common"
	"github.com/noah-isme/backend-proposal/internal/pricing"
)

// Handler exposes admin endpoints for pricing settings.
type Handler struct {
	Svc *Service
}

// GetGlobal handles GET /admin/settings.
func (h *Handler) GetGlobal(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	s, err := h.Svc.Global(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, s)
}

// PutGlobal handles PUT /admin/settings.
func (h *Handler) PutGlobal(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var payload pricing.Settings
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	s, err := h.Svc.UpdateGlobal(r.Context(), payload)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, s)
}

// GetProposal handles GET /admin/proposals/{id}/settings.
func (h *Handler) GetProposal(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid proposal id", nil)
		return
	}
	p, err := h.Svc.Proposal(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, p)
}

// PutProposal handles PUT /admin/proposals/{id}/settings.
func (h *Handler) PutProposal(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid proposal id", nil)
		return
	}
	var payload pricing.ProposalSettings
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := h.Svc.UpsertProposal(r.Context(), id, payload); err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, payload)
}

func (h *Handler) ready(w http.ResponseWriter) bool {
	if h == nil || h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "settings service not configured", nil)
		return false
	}
	return true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrInvalidSettings) {
		common.JSONError(w, http.StatusBadRequest, "INVALID_SETTINGS", err.Error(), nil)
		return
	}
	h.Svc.logger.Error().Err(err).Msg("settings request failed")
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
}
