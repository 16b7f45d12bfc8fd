package quote

import (
	"github.com/noah-isme/backend-proposal/internal/format"
	"github.com/noah-isme/backend-proposal/internal/pricing"
)

// View is the API representation of a session: the raw numbers plus their
// locale-formatted display strings.
type View struct {
	Session
	Display Display `json:"display"`
}

// Display carries formatted amounts per option.
type Display struct {
	Currency string          `json:"currency"`
	Options  []OptionDisplay `json:"options"`
}

// OptionDisplay is the formatted rendering of one pricing option.
type OptionDisplay struct {
	Type       pricing.PackageType `json:"type"`
	BaseTotal  string              `json:"baseTotal"`
	Markup     string              `json:"markup"`
	Subtotal   string              `json:"subtotal"`
	Discount   string              `json:"discount"`
	Tax        string              `json:"tax,omitempty"`
	TDS        string              `json:"tds,omitempty"`
	FinalTotal string              `json:"finalTotal"`
	AdultPrice string              `json:"adultPrice"`
	ChildPrice string              `json:"childPrice"`
}

func (h *Handler) present(session Session) View {
	return Present(session, h.Svc.Formatter(session))
}

// Present renders a session with the given formatter.
func Present(session Session, f format.Formatter) View {
	view := View{
		Session: session,
		Display: Display{Currency: f.Currency(), Options: make([]OptionDisplay, 0, len(session.Quote.Options))},
	}
	for _, opt := range session.Quote.Options {
		d := OptionDisplay{
			Type:       opt.Type,
			BaseTotal:  f.Format(opt.BaseTotal),
			Markup:     f.Format(opt.Markup),
			Subtotal:   f.Format(opt.Subtotal),
			Discount:   f.Format(opt.Discounts.TotalDiscountAmount),
			FinalTotal: f.Format(opt.FinalTotal),
			AdultPrice: f.Format(opt.Distribution.AdultPrice),
			ChildPrice: f.Format(opt.Distribution.ChildPrice),
		}
		if opt.Tax != nil {
			d.Tax = f.Format(opt.Tax.TaxAmount)
			if opt.Tax.TDSAmount > 0 {
				d.TDS = f.Format(opt.Tax.TDSAmount)
			}
		}
		view.Display.Options = append(view.Display.Options, d)
	}
	return view
}
