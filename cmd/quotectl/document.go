package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/noah-isme/backend-proposal/internal/pricing"
)

// proposalDocument is the offline input of the price command.
type proposalDocument struct {
	Days                  []pricing.ItineraryDay        `json:"days" yaml:"days"`
	CuratedAccommodations []pricing.AccommodationOption `json:"curatedAccommodations" yaml:"curatedAccommodations"`
	Travelers             pricing.Travelers             `json:"travelers" yaml:"travelers"`
	Settings              *pricing.Settings             `json:"settings" yaml:"settings"`
	Discounts             []pricing.Discount            `json:"discounts" yaml:"discounts"`
	Tax                   pricing.TaxOptions            `json:"tax" yaml:"tax"`
	TaxConfigs            []pricing.TaxConfig           `json:"taxConfigs" yaml:"taxConfigs"`
	Selected              string                        `json:"selected" yaml:"selected"`
	Currency              string                        `json:"currency" yaml:"currency"`
	Locale                string                        `json:"locale" yaml:"locale"`
}

// decodeFile reads path as YAML or JSON depending on its extension.
func decodeFile(path string, dst any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(raw))
		dec.KnownFields(true)
		if err := dec.Decode(dst); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(dst); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
	}
	return nil
}
