package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/noah-isme/backend-proposal/internal/pricing"
	"github.com/noah-isme/backend-proposal/internal/settings"
)

func slabCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slab",
		Short: "Show which markup slab a base amount falls into",
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, _ := cmd.Flags().GetFloat64("amount")
			file, _ := cmd.Flags().GetString("file")

			var s pricing.Settings
			if err := decodeFile(file, &s); err != nil {
				return err
			}
			if err := settings.Validate(s); err != nil {
				return err
			}
			if s.Markup.Type != pricing.MarkupSlab {
				return fmt.Errorf("markup type is %q, not slab", s.Markup.Type)
			}

			out := cmd.OutOrStdout()
			slab, ok := pricing.MatchSlab(amount, s.Markup.Slabs)
			if !ok {
				fmt.Fprintf(out, "no slab matches %s; markup 0\n", amountString(amount))
				return nil
			}
			upper := "open"
			if slab.MaxAmount != nil {
				upper = amountString(*slab.MaxAmount)
			}
			fmt.Fprintf(out, "slab %s-%s at %s%%: markup %s\n",
				amountString(slab.MinAmount),
				upper,
				amountString(slab.Percentage),
				amountString(pricing.CalculateMarkup(amount, s.Markup)),
			)
			return nil
		},
	}
	cmd.Flags().Float64("amount", 0, "Base amount before markup")
	cmd.Flags().String("file", "", "Settings document (.json, .yaml or .yml)")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func amountString(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
