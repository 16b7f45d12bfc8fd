// Command quotectl prices proposal documents offline and mints admin tokens.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "quotectl",
		Short:         "Offline tools for proposal pricing",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(priceCmd(), slabCmd(), tokenCmd())
	return root
}
