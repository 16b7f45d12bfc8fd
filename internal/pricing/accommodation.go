package pricing

import "strings"

// SelectAccommodations resolves the hotel lines for a package type. Curated selections,
// when present, replace the itinerary's own records entirely.
func SelectAccommodations(days []ItineraryDay, pt PackageType, curated []AccommodationOption) []AccommodationOption {
	if len(curated) > 0 {
		return filterCurated(curated, pt)
	}

	out := make([]AccommodationOption, 0, len(days))
	for _, day := range days {
		acc, ok := pickAccommodation(day.Accommodations, pt)
		if !ok {
			continue
		}
		city := strings.TrimSpace(acc.City)
		if city == "" {
			city = day.City
		}
		out = append(out, AccommodationOption{
			HotelName:     acc.HotelName,
			City:          city,
			RoomType:      acc.RoomType,
			Nights:        nonNegative(acc.Nights),
			PricePerNight: num(acc.PricePerNight),
			NumberOfRooms: nonNegative(acc.NumberOfRooms),
			TotalPrice:    acc.LineTotal(),
			Type:          pt,
			DayID:         day.ID,
		})
	}
	return out
}

// AccommodationTotal sums the total price of the resolved hotel lines.
func AccommodationTotal(opts []AccommodationOption) float64 {
	var total float64
	for _, opt := range opts {
		total += opt.TotalPrice
	}
	return total
}

func pickAccommodation(records []Accommodation, pt PackageType) (Accommodation, bool) {
	if len(records) == 0 {
		return Accommodation{}, false
	}
	for _, acc := range records {
		if acc.Option == pt.Code() {
			return acc, true
		}
	}
	return records[0], true
}

func filterCurated(curated []AccommodationOption, pt PackageType) []AccommodationOption {
	out := make([]AccommodationOption, 0, len(curated))
	for _, opt := range curated {
		if opt.Type != pt {
			continue
		}
		opt.Nights = nonNegative(opt.Nights)
		opt.NumberOfRooms = nonNegative(opt.NumberOfRooms)
		opt.PricePerNight = finite(opt.PricePerNight)
		opt.TotalPrice = opt.PricePerNight * float64(opt.Nights) * float64(opt.NumberOfRooms)
		out = append(out, opt)
	}
	return out
}
