package pricing

import "strings"

// DistributionMethod selects how a final total is split across travelers.
type DistributionMethod string

const (
	DistributionEven     DistributionMethod = "even"
	DistributionSeparate DistributionMethod = "separate"
)

// ParseDistributionMethod maps a name to a method, defaulting to even.
func ParseDistributionMethod(value string) DistributionMethod {
	if DistributionMethod(strings.ToLower(strings.TrimSpace(value))) == DistributionSeparate {
		return DistributionSeparate
	}
	return DistributionEven
}

// Distribution is the per-traveler split of a final total.
type Distribution struct {
	Method     DistributionMethod `json:"method"`
	AdultPrice float64            `json:"adultPrice"`
	ChildPrice float64            `json:"childPrice"`
	AdultTotal float64            `json:"adultTotal"`
	ChildTotal float64            `json:"childTotal"`
	TotalPrice float64            `json:"totalPrice"`
}

// Distribute splits total across adults and children.
//
// The even method charges every traveler the same per-capita price. The separate method
// charges children childShare of the adult rate (childShare <= 0 means 1), with the adult
// rate chosen so both groups together pay exactly total. Without children the adults
// carry the whole total.
func Distribute(total float64, t Travelers, method DistributionMethod, childShare float64) Distribution {
	total = finite(total)
	adults := nonNegative(t.Adults)
	children := nonNegative(t.Children)
	method = ParseDistributionMethod(string(method))

	out := Distribution{Method: method, TotalPrice: total}
	if adults+children == 0 {
		return out
	}

	if children == 0 {
		out.AdultPrice = perHead(total, adults)
		out.AdultTotal = total
		return out
	}

	share := 1.0
	if method == DistributionSeparate {
		share = finite(childShare)
		if share <= 0 {
			share = 1
		}
	}
	weight := float64(adults) + share*float64(children)
	unit := total / weight

	out.ChildPrice = unit * share
	if adults == 0 {
		out.ChildTotal = total
		return out
	}
	out.AdultPrice = unit
	out.AdultTotal = unit * float64(adults)
	out.ChildTotal = total - out.AdultTotal
	return out
}
