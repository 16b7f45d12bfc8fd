package pricing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func hotelDays() []ItineraryDay {
	return []ItineraryDay{
		{
			ID:   "day-1",
			City: "Phuket",
			Accommodations: []Accommodation{
				{HotelName: "Standard Inn", PricePerNight: ptr(2000), Nights: 2, NumberOfRooms: 1, Option: 1},
				{HotelName: "Optional Resort", City: "Patong", PricePerNight: ptr(3500), Nights: 2, NumberOfRooms: 1, Option: 2},
			},
		},
		{ID: "day-2", City: "Krabi"},
		{
			ID:   "day-3",
			City: "Krabi",
			Accommodations: []Accommodation{
				{HotelName: "Krabi Lodge", PricePerNight: ptr(1500), Nights: 1, NumberOfRooms: 2, Option: 1},
			},
		},
	}
}

func TestSelectAccommodationsByOption(t *testing.T) {
	opts := SelectAccommodations(hotelDays(), Optional, nil)
	require.Len(t, opts, 2)

	require.Equal(t, "Optional Resort", opts[0].HotelName)
	require.Equal(t, "Patong", opts[0].City)
	require.Equal(t, Optional, opts[0].Type)
	require.Equal(t, "day-1", opts[0].DayID)
	require.Equal(t, 7000.0, opts[0].TotalPrice)

	// day-3 has no optional hotel, so its first record is used.
	require.Equal(t, "Krabi Lodge", opts[1].HotelName)
	require.Equal(t, "Krabi", opts[1].City)
	require.Equal(t, Optional, opts[1].Type)
	require.Equal(t, 3000.0, opts[1].TotalPrice)

	require.Equal(t, 10000.0, AccommodationTotal(opts))
}

func TestSelectAccommodationsFallsBackToFirst(t *testing.T) {
	opts := SelectAccommodations(hotelDays(), Alternative, nil)
	require.Len(t, opts, 2)
	require.Equal(t, "Standard Inn", opts[0].HotelName)
	require.Equal(t, "Phuket", opts[0].City)
}

func TestSelectAccommodationsCuratedTakesPrecedence(t *testing.T) {
	curated := []AccommodationOption{
		{HotelName: "Curated Std", PricePerNight: 1000, Nights: 3, NumberOfRooms: 2, TotalPrice: 1, Type: Standard},
		{HotelName: "Curated Alt", PricePerNight: 5000, Nights: 1, NumberOfRooms: 1, Type: Alternative},
	}
	opts := SelectAccommodations(hotelDays(), Standard, curated)
	require.Len(t, opts, 1)
	require.Equal(t, "Curated Std", opts[0].HotelName)
	require.Equal(t, 6000.0, opts[0].TotalPrice)

	require.Empty(t, SelectAccommodations(hotelDays(), Optional, curated))
}
