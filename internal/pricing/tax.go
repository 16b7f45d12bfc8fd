package pricing

import "strings"

// TaxTypeNone marks a tax result where no tax configuration applied.
const TaxTypeNone = "None"

// ServiceTypeAll is the rate entry used when no service-specific rate exists.
const ServiceTypeAll = "all"

// TaxRate is the rate charged for a service type.
type TaxRate struct {
	ServiceType string  `json:"serviceType" yaml:"serviceType"`
	Name        string  `json:"name" yaml:"name"`
	Rate        float64 `json:"rate" yaml:"rate"`
}

// TDSRule withholds tax at source once the amount exceeds Threshold.
type TDSRule struct {
	Threshold float64 `json:"threshold" yaml:"threshold"`
	Rate      float64 `json:"rate" yaml:"rate"`
}

// TaxConfig is the reference tax data for one country.
type TaxConfig struct {
	CountryCode string    `json:"countryCode" yaml:"countryCode"`
	Active      bool      `json:"active" yaml:"active"`
	Rates       []TaxRate `json:"rates" yaml:"rates"`
	TDS         *TDSRule  `json:"tds,omitempty" yaml:"tds,omitempty"`
}

// RateFor returns the rate for serviceType, falling back to the "all" entry.
func (c TaxConfig) RateFor(serviceType string) (TaxRate, bool) {
	wanted := strings.TrimSpace(serviceType)
	var fallback *TaxRate
	for i := range c.Rates {
		rate := c.Rates[i]
		if wanted != "" && strings.EqualFold(rate.ServiceType, wanted) {
			return rate, true
		}
		if fallback == nil && strings.EqualFold(rate.ServiceType, ServiceTypeAll) {
			fallback = &c.Rates[i]
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return TaxRate{}, false
}

// TaxTable indexes tax configurations by upper-case country code.
type TaxTable map[string]TaxConfig

// NormalizeCountry upper-cases and trims a country code.
func NormalizeCountry(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// NewTaxTable builds a table from a list of configurations.
func NewTaxTable(configs ...TaxConfig) TaxTable {
	table := make(TaxTable, len(configs))
	for _, cfg := range configs {
		code := NormalizeCountry(cfg.CountryCode)
		if code == "" {
			continue
		}
		cfg.CountryCode = code
		table[code] = cfg
	}
	return table
}

// Lookup returns the active configuration for a country.
func (t TaxTable) Lookup(country string) (TaxConfig, bool) {
	if t == nil {
		return TaxConfig{}, false
	}
	cfg, ok := t[NormalizeCountry(country)]
	if !ok || !cfg.Active {
		return TaxConfig{}, false
	}
	return cfg, true
}

// TaxOptions controls whether and how the orchestrator applies tax.
type TaxOptions struct {
	Enabled     bool   `json:"enabled" yaml:"enabled"`
	CountryCode string `json:"countryCode,omitempty" yaml:"countryCode,omitempty"`
	ServiceType string `json:"serviceType,omitempty" yaml:"serviceType,omitempty"`
	Inclusive   bool   `json:"inclusive" yaml:"inclusive"`
}

// TaxResult is the outcome of one tax computation.
type TaxResult struct {
	BaseAmount  float64 `json:"baseAmount"`
	TaxAmount   float64 `json:"taxAmount"`
	TDSAmount   float64 `json:"tdsAmount,omitempty"`
	TotalAmount float64 `json:"totalAmount"`
	TaxType     string  `json:"taxType"`
	TaxRate     float64 `json:"taxRate"`
	IsInclusive bool    `json:"isInclusive"`
}

// CalculateTax computes country and service specific tax on amount. A missing or
// inactive configuration yields a zero-tax result.
func CalculateTax(amount float64, country, serviceType string, inclusive bool, table TaxTable) TaxResult {
	amount = finite(amount)
	none := TaxResult{
		BaseAmount:  amount,
		TotalAmount: amount,
		TaxType:     TaxTypeNone,
		IsInclusive: inclusive,
	}
	cfg, ok := table.Lookup(country)
	if !ok {
		return none
	}
	rate, ok := cfg.RateFor(serviceType)
	if !ok {
		return none
	}

	pct := finite(rate.Rate)
	res := TaxResult{
		TaxType:     rate.Name,
		TaxRate:     pct,
		IsInclusive: inclusive,
	}
	if res.TaxType == "" {
		res.TaxType = strings.ToUpper(rate.ServiceType)
	}
	if inclusive {
		divisor := 1 + pct/100
		if divisor == 0 {
			return none
		}
		res.BaseAmount = amount / divisor
		res.TaxAmount = amount - res.BaseAmount
		res.TotalAmount = amount
	} else {
		res.BaseAmount = amount
		res.TaxAmount = amount * pct / 100
		res.TotalAmount = amount + res.TaxAmount
	}

	if cfg.TDS != nil && amount > cfg.TDS.Threshold {
		res.TDSAmount = amount * finite(cfg.TDS.Rate) / 100
		res.TotalAmount -= res.TDSAmount
	}
	return res
}
