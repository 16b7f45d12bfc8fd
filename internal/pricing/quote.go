package pricing

// Quote holds the priced options of an itinerary and the one currently selected.
type Quote struct {
	Options  []PricingOption `json:"options"`
	Selected PackageType     `json:"selected,omitempty"`
}

// Empty reports whether the quote has no options, which means the itinerary did not
// carry enough data to price.
func (q Quote) Empty() bool { return len(q.Options) == 0 }

// Option returns the option for a package type.
func (q Quote) Option(pt PackageType) (PricingOption, bool) {
	for _, opt := range q.Options {
		if opt.Type == pt {
			return opt, true
		}
	}
	return PricingOption{}, false
}

// SelectedOption returns the currently selected option.
func (q Quote) SelectedOption() (PricingOption, bool) {
	return q.Option(q.Selected)
}

// Select returns a copy of the quote with pt selected. Options are never recomputed.
func (q Quote) Select(pt PackageType) (Quote, error) {
	if !pt.Valid() {
		return q, ErrUnknownPackage
	}
	if _, ok := q.Option(pt); !ok {
		return q, ErrUnknownPackage
	}
	out := Quote{Options: make([]PricingOption, len(q.Options)), Selected: pt}
	copy(out.Options, q.Options)
	return out, nil
}
