package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/noah-isme/backend-proposal/internal/auth"
)

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the admin API",
		RunE: func(cmd *cobra.Command, args []string) error {
			subject, _ := cmd.Flags().GetString("subject")
			roles, _ := cmd.Flags().GetStringSlice("role")
			ttl, _ := cmd.Flags().GetDuration("ttl")
			secret, _ := cmd.Flags().GetString("secret")
			if secret == "" {
				secret = os.Getenv("JWT_SECRET")
			}
			if secret == "" {
				return errors.New("JWT_SECRET is not set")
			}

			keys, err := auth.NewKeys(secret, os.Getenv("JWT_ISSUER"), os.Getenv("JWT_AUDIENCE"))
			if err != nil {
				return err
			}
			token, err := keys.Issue(subject, roles, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().String("subject", "", "Token subject")
	cmd.Flags().StringSlice("role", []string{"admin"}, "Roles to grant")
	cmd.Flags().Duration("ttl", time.Hour, "Token lifetime")
	cmd.Flags().String("secret", "", "Signing secret (defaults to JWT_SECRET)")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
