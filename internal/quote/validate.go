package quote

import (
	"errors"
	"math"
	"strings"

	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/backend-proposal/internal/pricing"
)

const maxTravelers = 500

// NewValidator returns a validator with the pricing input rules registered.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(validateTravelers, pricing.Travelers{})
	v.RegisterStructValidation(validateDiscount, pricing.Discount{})
	v.RegisterStructValidation(validateAccommodationOption, pricing.AccommodationOption{})
	return v
}

func validateTravelers(sl validator.StructLevel) {
	t := sl.Current().Interface().(pricing.Travelers)
	if t.Adults < 1 || t.Adults > maxTravelers {
		sl.ReportError(t.Adults, "adults", "Adults", "range", "")
	}
	if t.Children < 0 || t.Children > maxTravelers {
		sl.ReportError(t.Children, "children", "Children", "range", "")
	}
}

func validateDiscount(sl validator.StructLevel) {
	d := sl.Current().Interface().(pricing.Discount)
	switch pricing.DiscountType(strings.ToLower(string(d.Type))) {
	case pricing.DiscountPercentage, pricing.DiscountFixed:
	default:
		sl.ReportError(d.Type, "type", "Type", "oneof", "percentage fixed")
	}
	if d.Value < 0 || math.IsNaN(d.Value) {
		sl.ReportError(d.Value, "value", "Value", "gte", "0")
	}
}

func validateAccommodationOption(sl validator.StructLevel) {
	a := sl.Current().Interface().(pricing.AccommodationOption)
	if a.Nights < 0 {
		sl.ReportError(a.Nights, "nights", "Nights", "gte", "0")
	}
	if a.NumberOfRooms < 0 {
		sl.ReportError(a.NumberOfRooms, "numberOfRooms", "NumberOfRooms", "gte", "0")
	}
}

func validationDetails(err error) []map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make([]map[string]string, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, map[string]string{
			"field": fe.Namespace(),
			"rule":  fe.Tag(),
		})
	}
	return out
}
