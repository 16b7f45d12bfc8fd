package pricing

// AggregateServiceCosts sums sightseeing, transport, dining and accommodation costs of
// the itinerary for the given travelers.
func AggregateServiceCosts(days []ItineraryDay, t Travelers) ServiceCostBreakdown {
	var out ServiceCostBreakdown
	adults := nonNegative(t.Adults)
	children := nonNegative(t.Children)
	pax := t.Total()

	for _, day := range days {
		for _, item := range day.Activities {
			addLineItem(&out.Sightseeing, item, adults, children)
		}
		for _, item := range day.Meals {
			addLineItem(&out.Dining, item, adults, children)
		}
		if day.Transport != nil {
			out.Transport.TotalCost += num(day.Transport.FinalCost)
		}
		// Every hotel record counts here regardless of its option tag.
		for _, acc := range day.Accommodations {
			out.Accommodation.TotalCost += acc.LineTotal()
			out.Accommodation.TotalRooms += nonNegative(acc.NumberOfRooms)
			out.Accommodation.TotalNights += nonNegative(acc.Nights)
		}
	}

	out.Sightseeing.PerPersonCost = perHead(out.Sightseeing.Total, pax)
	out.Dining.PerPersonCost = perHead(out.Dining.Total, pax)
	out.Transport.PerPersonCost = perHead(out.Transport.TotalCost, pax)
	out.Accommodation.PerPersonCost = perHead(out.Accommodation.TotalCost, pax)
	return out
}

// LineItemCost prices a single activity or meal for the given head count.
func LineItemCost(item LineItem, adults, children int) float64 {
	adults = nonNegative(adults)
	children = nonNegative(children)
	switch {
	case item.AdultPrice != nil && item.ChildPrice != nil:
		return num(item.AdultPrice)*float64(adults) + num(item.ChildPrice)*float64(children)
	case item.FlatRate != nil:
		return num(item.FlatRate) * float64(adults+children)
	case item.FinalCost != nil:
		return num(item.FinalCost)
	default:
		return num(item.Cost)
	}
}

func addLineItem(dst *CategoryCost, item LineItem, adults, children int) {
	dst.Total += LineItemCost(item, adults, children)
	if item.AdultPrice != nil && item.ChildPrice != nil {
		dst.AdultPrice += num(item.AdultPrice)
		dst.ChildPrice += num(item.ChildPrice)
		return
	}
	if item.FlatRate != nil {
		dst.FlatRate += num(item.FlatRate)
	}
}
