package quote

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/noah-isme/backend-proposal/internal/common"
	"github.com/noah-isme/backend-proposal/internal/format"
	"github.com/noah-isme/backend-proposal/internal/lock"
	"github.com/noah-isme/backend-proposal/internal/pricing"
	"github.com/noah-isme/backend-proposal/internal/settings"
)

// Handler exposes quote sessions over HTTP.
type Handler struct {
	Svc *Service

	// Create wraps the calculate endpoint, typically with rate limiting and idempotency.
	Create []func(http.Handler) http.Handler

	validate  *validator.Validate
	sanitizer *bluemonday.Policy
}

// NewHandler constructs a Handler with request validation and text sanitising wired in.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc, validate: NewValidator(), sanitizer: bluemonday.StrictPolicy()}
}

// Routes mounts the quote endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.With(h.Create...).Post("/", h.Calculate)
	r.Get("/{id}", h.Get)
	r.Put("/{id}/selection", h.Select)
	r.Post("/{id}/finalize", h.Finalize)
}

type calculateRequest struct {
	ProposalID            *uuid.UUID                    `json:"proposalId"`
	Days                  []pricing.ItineraryDay        `json:"days" validate:"max=90,dive"`
	CuratedAccommodations []pricing.AccommodationOption `json:"curatedAccommodations" validate:"max=200,dive"`
	Travelers             pricing.Travelers             `json:"travelers"`
	Settings              *pricing.ProposalSettings     `json:"settings"`
	Discounts             []pricing.Discount            `json:"discounts" validate:"max=50,dive"`
	Tax                   pricing.TaxOptions            `json:"tax"`
	Selected              string                        `json:"selected" validate:"omitempty,oneof=standard optional alternative"`
	Currency              string                        `json:"currency" validate:"omitempty,len=3,alpha"`
	Locale                string                        `json:"locale" validate:"omitempty,max=35"`
}

type selectRequest struct {
	PackageType string `json:"packageType" validate:"required,oneof=standard optional alternative"`
}

// Calculate handles POST /quotes.
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var req calculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid quote request", validationDetails(err))
		return
	}
	if req.Settings != nil && !req.Settings.InheritFromGlobal {
		if err := settings.Validate(req.Settings.Custom); err != nil {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error(), nil)
			return
		}
	}
	h.sanitize(&req)

	in := CalculateInput{
		ProposalID:            req.ProposalID,
		Days:                  req.Days,
		CuratedAccommodations: req.CuratedAccommodations,
		Travelers:             req.Travelers,
		Settings:              req.Settings,
		Discounts:             req.Discounts,
		Tax:                   req.Tax,
		Currency:              req.Currency,
		Locale:                req.Locale,
	}
	if req.Selected != "" {
		in.Selected, _ = pricing.ParsePackageType(req.Selected)
	}
	session, err := h.Svc.Calculate(r.Context(), in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusCreated, h.present(session))
}

// Get handles GET /quotes/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	session, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, h.present(session))
}

// Select handles PUT /quotes/{id}/selection.
func (h *Handler) Select(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	req.PackageType = strings.ToLower(strings.TrimSpace(req.PackageType))
	if err := h.validate.Struct(req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid package type", validationDetails(err))
		return
	}
	pt, _ := pricing.ParsePackageType(req.PackageType)
	session, err := h.Svc.Select(r.Context(), id, pt)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, h.present(session))
}

// Finalize handles POST /quotes/{id}/finalize.
func (h *Handler) Finalize(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	session, err := h.Svc.Finalize(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusAccepted, h.present(session))
}

func (h *Handler) ready(w http.ResponseWriter) bool {
	if h == nil || h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "quote service not configured", nil)
		return false
	}
	return true
}

func sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid quote id", nil)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "quote not found", nil)
	case errors.Is(err, ErrFinalized):
		common.JSONError(w, http.StatusConflict, "QUOTE_FINALIZED", "quote already finalized", nil)
	case errors.Is(err, lock.ErrBusy):
		common.JSONError(w, http.StatusConflict, "QUOTE_BUSY", "quote is being updated, retry shortly", nil)
	case errors.Is(err, ErrEmptyQuote):
		common.JSONError(w, http.StatusUnprocessableEntity, "QUOTE_EMPTY", "quote has no priced options", nil)
	case errors.Is(err, pricing.ErrUnknownPackage):
		common.JSONError(w, http.StatusBadRequest, "UNKNOWN_PACKAGE", "package type not available", nil)
	case errors.Is(err, settings.ErrInvalidSettings):
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error(), nil)
	case errors.Is(err, format.ErrUnknownCurrency):
		common.JSONError(w, http.StatusBadRequest, "UNKNOWN_CURRENCY", err.Error(), nil)
	case common.IsAppError(err):
		common.WriteError(w, err)
	default:
		h.Svc.logger.Error().Err(err).Msg("quote request failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
	}
}

func (h *Handler) sanitize(req *calculateRequest) {
	clean := func(s string) string {
		return strings.TrimSpace(h.sanitizer.Sanitize(s))
	}
	for i := range req.Days {
		day := &req.Days[i]
		day.City = clean(day.City)
		for j := range day.Activities {
			day.Activities[j].Name = clean(day.Activities[j].Name)
		}
		for j := range day.Meals {
			day.Meals[j].Name = clean(day.Meals[j].Name)
		}
		for j := range day.Accommodations {
			acc := &day.Accommodations[j]
			acc.HotelName = clean(acc.HotelName)
			acc.City = clean(acc.City)
			acc.RoomType = clean(acc.RoomType)
		}
	}
	for i := range req.CuratedAccommodations {
		acc := &req.CuratedAccommodations[i]
		acc.HotelName = clean(acc.HotelName)
		acc.City = clean(acc.City)
		acc.RoomType = clean(acc.RoomType)
	}
	for i := range req.Discounts {
		req.Discounts[i].Description = clean(req.Discounts[i].Description)
		req.Discounts[i].Category = clean(req.Discounts[i].Category)
	}
}
