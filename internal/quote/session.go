package quote

import (
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-proposal/internal/pricing"
)

// Status tracks where a quote session is in its lifecycle.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusFinalized Status = "finalized"
)

// Session is a priced quote held in Redis between calculation and finalization.
type Session struct {
	ID          uuid.UUID         `json:"id"`
	ProposalID  *uuid.UUID        `json:"proposalId,omitempty"`
	Status      Status            `json:"status"`
	Currency    string            `json:"currency"`
	Locale      string            `json:"locale"`
	Travelers   pricing.Travelers `json:"travelers"`
	Settings    pricing.Settings  `json:"settings"`
	Quote       pricing.Quote     `json:"quote"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
	FinalizedAt *time.Time        `json:"finalizedAt,omitempty"`
}

// CalculateInput is everything a calculation pass needs from the caller.
type CalculateInput struct {
	ProposalID            *uuid.UUID
	Days                  []pricing.ItineraryDay
	CuratedAccommodations []pricing.AccommodationOption
	Travelers             pricing.Travelers
	Settings              *pricing.ProposalSettings
	Discounts             []pricing.Discount
	Tax                   pricing.TaxOptions
	Selected              pricing.PackageType
	Currency              string
	Locale                string
}

// FinalizedQuote is the durable record written once a session is finalized.
type FinalizedQuote struct {
	SessionID   uuid.UUID             `json:"sessionId"`
	ProposalID  *uuid.UUID            `json:"proposalId,omitempty"`
	PackageType pricing.PackageType   `json:"packageType"`
	Currency    string                `json:"currency"`
	FinalTotal  float64               `json:"finalTotal"`
	Option      pricing.PricingOption `json:"option"`
	FinalizedAt time.Time             `json:"finalizedAt"`
}

func finalizedFromSession(s Session) (FinalizedQuote, bool) {
	opt, ok := s.Quote.SelectedOption()
	if !ok {
		return FinalizedQuote{}, false
	}
	at := s.UpdatedAt
	if s.FinalizedAt != nil {
		at = *s.FinalizedAt
	}
	return FinalizedQuote{
		SessionID:   s.ID,
		ProposalID:  s.ProposalID,
		PackageType: opt.Type,
		Currency:    s.Currency,
		FinalTotal:  opt.FinalTotal,
		Option:      opt,
		FinalizedAt: at,
	}, true
}
