package pricing

// Input gathers everything a calculation pass depends on.
type Input struct {
	Days                  []ItineraryDay
	CuratedAccommodations []AccommodationOption
	Travelers             Travelers
	Settings              Settings
	Discounts             []Discount
	Tax                   TaxOptions
	TaxTable              TaxTable
	Selected              PackageType
}

// Calculate prices every package type for the itinerary. Without itinerary days or
// curated hotels it returns a quote with no options.
func Calculate(in Input) Quote {
	if len(in.Days) == 0 && len(in.CuratedAccommodations) == 0 {
		return Quote{}
	}

	services := AggregateServiceCosts(in.Days, in.Travelers)
	options := make([]PricingOption, 0, len(PackageTypes()))
	for _, pt := range PackageTypes() {
		options = append(options, priceOption(in, pt, services))
	}

	selected := in.Selected
	if !selected.Valid() {
		selected = Standard
	}
	return Quote{Options: options, Selected: selected}
}

func priceOption(in Input, pt PackageType, services ServiceCostBreakdown) PricingOption {
	hotels := SelectAccommodations(in.Days, pt, in.CuratedAccommodations)
	base := services.ServicesTotal() + AccommodationTotal(hotels)
	markup := CalculateMarkup(base, in.Settings.Markup)
	subtotal := base + markup

	discounts := ComposeDiscounts(in.Discounts, subtotal)
	final := discounts.AfterDiscounts

	var tax *TaxResult
	if in.Tax.Enabled {
		res := CalculateTax(final, in.Tax.CountryCode, in.Tax.ServiceType, in.Tax.Inclusive, in.TaxTable)
		tax = &res
		final = res.TotalAmount
	}

	return PricingOption{
		Type:           pt,
		Accommodations: hotels,
		ServiceCosts:   services,
		BaseTotal:      base,
		Markup:         markup,
		Subtotal:       subtotal,
		Discounts:      discounts,
		Tax:            tax,
		FinalTotal:     final,
		Distribution:   Distribute(final, in.Travelers, in.Settings.Distribution, in.Settings.ChildShare),
	}
}
