package pricing

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrUnknownPackage is returned when a package type string cannot be parsed.
var ErrUnknownPackage = errors.New("pricing: unknown package type")

// PackageType identifies one of the three accommodation bundles priced for an itinerary.
type PackageType int

const (
	Standard PackageType = iota + 1
	Optional
	Alternative
)

// PackageTypes returns the package types in the order options are computed.
func PackageTypes() []PackageType {
	return []PackageType{Standard, Optional, Alternative}
}

// Code returns the numeric option tag used on itinerary accommodation records.
func (p PackageType) Code() int { return int(p) }

// Valid reports whether p is one of the three known package types.
func (p PackageType) Valid() bool {
	switch p {
	case Standard, Optional, Alternative:
		return true
	default:
		return false
	}
}

func (p PackageType) String() string {
	switch p {
	case Standard:
		return "standard"
	case Optional:
		return "optional"
	case Alternative:
		return "alternative"
	default:
		return fmt.Sprintf("package(%d)", int(p))
	}
}

// ParsePackageType converts a case-insensitive name into a PackageType.
func ParsePackageType(value string) (PackageType, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "standard":
		return Standard, nil
	case "optional":
		return Optional, nil
	case "alternative":
		return Alternative, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownPackage, value)
	}
}

// MarshalText renders the package type by name.
func (p PackageType) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPackage, int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText parses a package type name.
func (p *PackageType) UnmarshalText(text []byte) error {
	parsed, err := ParsePackageType(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Travelers holds the head count a quote is priced for.
type Travelers struct {
	Adults   int `json:"adults" yaml:"adults"`
	Children int `json:"children" yaml:"children"`
}

// Total returns the combined head count, never negative.
func (t Travelers) Total() int {
	return nonNegative(t.Adults) + nonNegative(t.Children)
}

// LineItem is a priced sightseeing activity or meal.
type LineItem struct {
	Name       string   `json:"name,omitempty" yaml:"name,omitempty"`
	AdultPrice *float64 `json:"adultPrice,omitempty" yaml:"adultPrice,omitempty"`
	ChildPrice *float64 `json:"childPrice,omitempty" yaml:"childPrice,omitempty"`
	FlatRate   *float64 `json:"flatRate,omitempty" yaml:"flatRate,omitempty"`
	FinalCost  *float64 `json:"finalCost,omitempty" yaml:"finalCost,omitempty"`
	Cost       *float64 `json:"cost,omitempty" yaml:"cost,omitempty"`
}

// Transport is the transfer booked for a day.
type Transport struct {
	Mode      string   `json:"mode,omitempty" yaml:"mode,omitempty"`
	FinalCost *float64 `json:"finalCost,omitempty" yaml:"finalCost,omitempty"`
}

// Accommodation is a hotel record attached to an itinerary day.
type Accommodation struct {
	HotelName     string   `json:"hotelName" yaml:"hotelName"`
	City          string   `json:"city,omitempty" yaml:"city,omitempty"`
	RoomType      string   `json:"roomType,omitempty" yaml:"roomType,omitempty"`
	PricePerNight *float64 `json:"pricePerNight,omitempty" yaml:"pricePerNight,omitempty"`
	Nights        int      `json:"nights" yaml:"nights"`
	NumberOfRooms int      `json:"numberOfRooms" yaml:"numberOfRooms"`
	Option        int      `json:"option" yaml:"option"`
}

// LineTotal returns pricePerNight × nights × numberOfRooms.
func (a Accommodation) LineTotal() float64 {
	return num(a.PricePerNight) * float64(nonNegative(a.Nights)) * float64(nonNegative(a.NumberOfRooms))
}

// ItineraryDay is one day of the trip as supplied by the itinerary builder.
type ItineraryDay struct {
	ID             string          `json:"id" yaml:"id"`
	Day            int             `json:"day" yaml:"day"`
	City           string          `json:"city,omitempty" yaml:"city,omitempty"`
	Activities     []LineItem      `json:"activities,omitempty" yaml:"activities,omitempty"`
	Transport      *Transport      `json:"transport,omitempty" yaml:"transport,omitempty"`
	Meals          []LineItem      `json:"meals,omitempty" yaml:"meals,omitempty"`
	Accommodations []Accommodation `json:"accommodations,omitempty" yaml:"accommodations,omitempty"`
	TotalCost      *float64        `json:"totalCost,omitempty" yaml:"totalCost,omitempty"`
}

// AccommodationOption is a resolved hotel line for a package type.
type AccommodationOption struct {
	HotelName     string      `json:"hotelName" yaml:"hotelName"`
	City          string      `json:"city" yaml:"city"`
	RoomType      string      `json:"roomType" yaml:"roomType"`
	Nights        int         `json:"nights" yaml:"nights"`
	PricePerNight float64     `json:"pricePerNight" yaml:"pricePerNight"`
	NumberOfRooms int         `json:"numberOfRooms" yaml:"numberOfRooms"`
	TotalPrice    float64     `json:"totalPrice" yaml:"totalPrice"`
	Type          PackageType `json:"type" yaml:"type"`
	DayID         string      `json:"dayId,omitempty" yaml:"dayId,omitempty"`
}

// CategoryCost aggregates a per-head priced category (sightseeing, dining).
type CategoryCost struct {
	Total         float64 `json:"total"`
	AdultPrice    float64 `json:"adultPrice,omitempty"`
	ChildPrice    float64 `json:"childPrice,omitempty"`
	FlatRate      float64 `json:"flatRate,omitempty"`
	PerPersonCost float64 `json:"perPersonCost"`
}

// TransportCost aggregates transfer costs.
type TransportCost struct {
	TotalCost     float64 `json:"totalCost"`
	PerPersonCost float64 `json:"perPersonCost"`
}

// AccommodationCost aggregates every hotel record of the itinerary.
type AccommodationCost struct {
	TotalCost     float64 `json:"totalCost"`
	PerPersonCost float64 `json:"perPersonCost"`
	TotalRooms    int     `json:"totalRooms"`
	TotalNights   int     `json:"totalNights"`
}

// ServiceCostBreakdown is the per-category cost summary of an itinerary.
type ServiceCostBreakdown struct {
	Sightseeing   CategoryCost      `json:"sightseeing"`
	Transport     TransportCost     `json:"transport"`
	Dining        CategoryCost      `json:"dining"`
	Accommodation AccommodationCost `json:"accommodation"`
}

// ServicesTotal returns sightseeing, transport and dining combined. Accommodation is
// excluded because each package option prices its own hotels.
func (b ServiceCostBreakdown) ServicesTotal() float64 {
	return b.Sightseeing.Total + b.Transport.TotalCost + b.Dining.Total
}

// PricingOption is the fully priced result for one package type.
type PricingOption struct {
	Type           PackageType           `json:"type"`
	Accommodations []AccommodationOption `json:"accommodations"`
	ServiceCosts   ServiceCostBreakdown  `json:"serviceCosts"`
	BaseTotal      float64               `json:"baseTotal"`
	Markup         float64               `json:"markup"`
	Subtotal       float64               `json:"subtotal"`
	Discounts      DiscountSummary       `json:"discounts"`
	Tax            *TaxResult            `json:"tax,omitempty"`
	FinalTotal     float64               `json:"finalTotal"`
	Distribution   Distribution          `json:"distribution"`
}

// num reads an optional amount, mapping nil, NaN and ±Inf to zero.
func num(p *float64) float64 {
	if p == nil {
		return 0
	}
	return finite(*p)
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func nonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

// perHead divides total by count, yielding zero when count is not positive.
func perHead(total float64, count int) float64 {
	if count <= 0 {
		return 0
	}
	return total / float64(count)
}
