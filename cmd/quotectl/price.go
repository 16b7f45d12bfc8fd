package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/noah-isme/backend-proposal/internal/format"
	"github.com/noah-isme/backend-proposal/internal/pricing"
	"github.com/noah-isme/backend-proposal/internal/settings"
	"github.com/noah-isme/backend-proposal/internal/taxconfig"
)

func priceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "price",
		Short: "Price every package option of a proposal document",
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")
			output, _ := cmd.Flags().GetString("output")

			var doc proposalDocument
			if err := decodeFile(file, &doc); err != nil {
				return err
			}
			if c, _ := cmd.Flags().GetString("currency"); c != "" {
				doc.Currency = c
			}
			if l, _ := cmd.Flags().GetString("locale"); l != "" {
				doc.Locale = l
			}
			if s, _ := cmd.Flags().GetString("selected"); s != "" {
				doc.Selected = s
			}

			in, err := engineInput(doc)
			if err != nil {
				return err
			}
			q := pricing.Calculate(in)

			switch output {
			case "json":
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(q)
			case "table", "":
				f, err := format.NewFormatter(valueOr(doc.Currency, "INR"), valueOr(doc.Locale, "en-IN"))
				if err != nil {
					return err
				}
				return writeQuoteTable(cmd.OutOrStdout(), q, f)
			default:
				return fmt.Errorf("unsupported output %q", output)
			}
		},
	}
	cmd.Flags().String("file", "", "Proposal document (.json, .yaml or .yml)")
	cmd.Flags().String("currency", "", "ISO 4217 currency for display")
	cmd.Flags().String("locale", "", "BCP 47 locale for display")
	cmd.Flags().String("selected", "", "Package to mark as selected")
	cmd.Flags().StringP("output", "o", "table", "Output format: table or json")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func engineInput(doc proposalDocument) (pricing.Input, error) {
	s := pricing.DefaultSettings()
	if doc.Settings != nil {
		if err := settings.Validate(*doc.Settings); err != nil {
			return pricing.Input{}, err
		}
		s = *doc.Settings
	}

	configs := make([]pricing.TaxConfig, 0, len(doc.TaxConfigs))
	for _, c := range doc.TaxConfigs {
		valid, err := taxconfig.Validate(c)
		if err != nil {
			return pricing.Input{}, err
		}
		configs = append(configs, valid)
	}

	var selected pricing.PackageType
	if doc.Selected != "" {
		pt, err := pricing.ParsePackageType(doc.Selected)
		if err != nil {
			return pricing.Input{}, err
		}
		selected = pt
	}

	return pricing.Input{
		Days:                  doc.Days,
		CuratedAccommodations: doc.CuratedAccommodations,
		Travelers:             doc.Travelers,
		Settings:              s,
		Discounts:             doc.Discounts,
		Tax:                   doc.Tax,
		TaxTable:              pricing.NewTaxTable(configs...),
		Selected:              selected,
	}, nil
}

func writeQuoteTable(w io.Writer, q pricing.Quote, f format.Formatter) error {
	if q.Empty() {
		_, err := fmt.Fprintln(w, "nothing to price: the document has no days or curated hotels")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PACKAGE\tBASE\tMARKUP\tDISCOUNTS\tTAX\tFINAL\tPER ADULT\tPER CHILD")
	for _, opt := range q.Options {
		name := opt.Type.String()
		if opt.Type == q.Selected {
			name += " *"
		}
		tax := 0.0
		if opt.Tax != nil {
			tax = opt.Tax.TaxAmount
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			name,
			f.Format(opt.BaseTotal),
			f.Format(opt.Markup),
			f.Format(opt.Discounts.TotalDiscountAmount),
			f.Format(tax),
			f.Format(opt.FinalTotal),
			f.Format(opt.Distribution.AdultPrice),
			f.Format(opt.Distribution.ChildPrice),
		)
	}
	return tw.Flush()
}

func valueOr(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
