package main

import (
	"fmt"
	"time"

	"labcatalog/internal/auth"
	"labcatalog/internal/config"

	"github.com/spf13/cobra"
)

func newTokenCmd() *cobra.Command {
	var (
		email string
		role  string
		ttl   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a session token signed with AUTH_JWT_SECRET (local testing)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			if cfg.Auth.JWTSecret == "" {
				return fmt.Errorf("AUTH_JWT_SECRET is not set")
			}
			if email == "" {
				return fmt.Errorf("--email is required")
			}
			gate := auth.NewJWTGate([]byte(cfg.Auth.JWTSecret), cfg.Auth.CookieName)
			token, err := gate.Issue(auth.Principal{Email: email, Role: role}, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "principal email")
	cmd.Flags().StringVar(&role, "role", "", "principal role (admin for write access)")
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")
	return cmd
}
