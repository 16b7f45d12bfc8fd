package pricing

import "strings"

// DiscountType distinguishes percentage discounts from fixed amounts.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Discount is a user-managed price reduction. Only active discounts are applied.
type Discount struct {
	ID          string       `json:"id" yaml:"id"`
	Type        DiscountType `json:"type" yaml:"type"`
	Value       float64      `json:"value" yaml:"value"`
	Category    string       `json:"category,omitempty" yaml:"category,omitempty"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	IsActive    bool         `json:"isActive" yaml:"isActive"`
}

// AppliedDiscount records the amount one discount contributed.
type AppliedDiscount struct {
	ID          string       `json:"id"`
	Type        DiscountType `json:"type"`
	Category    string       `json:"category,omitempty"`
	Description string       `json:"description,omitempty"`
	Amount      float64      `json:"amount"`
}

// DiscountSummary is the outcome of composing discounts against a base amount.
type DiscountSummary struct {
	BaseAmount          float64           `json:"baseAmount"`
	Applied             []AppliedDiscount `json:"applied,omitempty"`
	TotalDiscountAmount float64           `json:"totalDiscountAmount"`
	AfterDiscounts      float64           `json:"afterDiscounts"`
}

// DiscountAmount computes what a single discount takes off base.
func DiscountAmount(d Discount, base float64) float64 {
	switch DiscountType(strings.ToLower(string(d.Type))) {
	case DiscountPercentage:
		return finite(base) * finite(d.Value) / 100
	case DiscountFixed:
		return finite(d.Value)
	default:
		return 0
	}
}

// ComposeDiscounts applies every active discount independently against the same base
// and sums them. The result is not clamped: discounts larger than base produce a
// negative AfterDiscounts.
func ComposeDiscounts(discounts []Discount, base float64) DiscountSummary {
	base = finite(base)
	summary := DiscountSummary{BaseAmount: base}
	for _, d := range discounts {
		if !d.IsActive {
			continue
		}
		amount := DiscountAmount(d, base)
		summary.Applied = append(summary.Applied, AppliedDiscount{
			ID:          d.ID,
			Type:        d.Type,
			Category:    d.Category,
			Description: d.Description,
			Amount:      amount,
		})
		summary.TotalDiscountAmount += amount
	}
	summary.AfterDiscounts = base - summary.TotalDiscountAmount
	return summary
}
