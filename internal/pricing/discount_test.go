package pricing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComposeDiscountsDoesNotCompound(t *testing.T) {
	discounts := []Discount{
		{ID: "early-bird", Type: DiscountPercentage, Value: 10, IsActive: true},
		{ID: "loyalty", Type: DiscountFixed, Value: 500, IsActive: true},
	}
	summary := ComposeDiscounts(discounts, 10000)

	require.InDelta(t, 1500, summary.TotalDiscountAmount, 1e-9)
	require.InDelta(t, 8500, summary.AfterDiscounts, 1e-9)
	require.Len(t, summary.Applied, 2)
	require.InDelta(t, 1000, summary.Applied[0].Amount, 1e-9)
	require.InDelta(t, 500, summary.Applied[1].Amount, 1e-9)
}

func TestComposeDiscountsSkipsInactive(t *testing.T) {
	discounts := []Discount{
		{ID: "a", Type: DiscountPercentage, Value: 50, IsActive: false},
		{ID: "b", Type: DiscountFixed, Value: 200, IsActive: true},
	}
	summary := ComposeDiscounts(discounts, 1000)
	require.InDelta(t, 200, summary.TotalDiscountAmount, 1e-9)
	require.Len(t, summary.Applied, 1)
	require.Equal(t, "b", summary.Applied[0].ID)
}

func TestComposeDiscountsNotClamped(t *testing.T) {
	summary := ComposeDiscounts([]Discount{{Type: DiscountFixed, Value: 1500, IsActive: true}}, 1000)
	require.InDelta(t, -500, summary.AfterDiscounts, 1e-9)
}

func TestComposeDiscountsEmpty(t *testing.T) {
	summary := ComposeDiscounts(nil, 2500)
	require.Zero(t, summary.TotalDiscountAmount)
	require.Equal(t, 2500.0, summary.AfterDiscounts)
	require.Empty(t, summary.Applied)
}

func TestDiscountAmountUnknownType(t *testing.T) {
	require.Zero(t, DiscountAmount(Discount{Type: "bogo", Value: 10, IsActive: true}, 1000))
}
