package pricing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLineItemCostPrecedence(t *testing.T) {
	require.Equal(t, 2*100.0+3*40.0, LineItemCost(LineItem{AdultPrice: ptr(100), ChildPrice: ptr(40), FlatRate: ptr(999)}, 2, 3))
	require.Equal(t, 5*30.0, LineItemCost(LineItem{AdultPrice: ptr(100), FlatRate: ptr(30)}, 2, 3))
	require.Equal(t, 75.0, LineItemCost(LineItem{FinalCost: ptr(75), Cost: ptr(10)}, 2, 3))
	require.Equal(t, 10.0, LineItemCost(LineItem{Cost: ptr(10)}, 2, 3))
	require.Zero(t, LineItemCost(LineItem{Name: "free walk"}, 2, 3))
}

func TestAggregateServiceCosts(t *testing.T) {
	days := []ItineraryDay{
		{
			ID:         "d1",
			Activities: []LineItem{{AdultPrice: ptr(500), ChildPrice: ptr(250)}, {FlatRate: ptr(100)}},
			Meals:      []LineItem{{FinalCost: ptr(900)}},
			Transport:  &Transport{Mode: "sic", FinalCost: ptr(1200)},
			Accommodations: []Accommodation{
				{HotelName: "Sea View", PricePerNight: ptr(3000), Nights: 2, NumberOfRooms: 1, Option: 1},
				{HotelName: "Palm Court", PricePerNight: ptr(4000), Nights: 2, NumberOfRooms: 1, Option: 2},
			},
		},
		{
			ID:        "d2",
			Meals:     []LineItem{{Cost: ptr(300)}},
			Transport: &Transport{},
		},
		{ID: "d3"},
	}
	b := AggregateServiceCosts(days, Travelers{Adults: 2, Children: 1})

	require.InDelta(t, 2*500+250+3*100, b.Sightseeing.Total, 1e-9)
	require.Equal(t, 500.0, b.Sightseeing.AdultPrice)
	require.Equal(t, 250.0, b.Sightseeing.ChildPrice)
	require.Equal(t, 100.0, b.Sightseeing.FlatRate)
	require.InDelta(t, 1200, b.Dining.Total, 1e-9)
	require.InDelta(t, 1200, b.Transport.TotalCost, 1e-9)
	require.InDelta(t, 400, b.Transport.PerPersonCost, 1e-9)
	require.InDelta(t, 14000, b.Accommodation.TotalCost, 1e-9)
	require.Equal(t, 2, b.Accommodation.TotalRooms)
	require.Equal(t, 4, b.Accommodation.TotalNights)
	require.InDelta(t, 1550+1200+1200, b.ServicesTotal(), 1e-9)
}

func TestAggregateServiceCostsZeroTravelers(t *testing.T) {
	days := []ItineraryDay{{Transport: &Transport{FinalCost: ptr(1000)}, Meals: []LineItem{{Cost: ptr(50)}}}}
	b := AggregateServiceCosts(days, Travelers{})

	require.Equal(t, 1000.0, b.Transport.TotalCost)
	require.Zero(t, b.Transport.PerPersonCost)
	require.Zero(t, b.Dining.PerPersonCost)
	require.Zero(t, b.Accommodation.PerPersonCost)
}

func TestAggregateServiceCostsIgnoresNegativeCounts(t *testing.T) {
	days := []ItineraryDay{{Accommodations: []Accommodation{{PricePerNight: ptr(100), Nights: -2, NumberOfRooms: 3}}}}
	b := AggregateServiceCosts(days, Travelers{Adults: 1, Children: -4})

	require.Zero(t, b.Accommodation.TotalCost)
	require.Equal(t, 3, b.Accommodation.TotalRooms)
	require.Zero(t, b.Accommodation.TotalNights)
}
