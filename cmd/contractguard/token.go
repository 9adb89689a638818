package main

import (
	"fmt"
	"time"

	"contractguard-backend/middleware"

	"github.com/spf13/cobra"
)

func tokenCmd(flags *globalFlags) *cobra.Command {
	var (
		subject string
		hours   int
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			if hours > 0 {
				cfg.Auth.TokenExpireHours = hours
			}

			token, expiresAt, err := middleware.GenerateToken(subject, &cfg.Auth)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", expiresAt.Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "Subject the token is issued to")
	cmd.Flags().IntVar(&hours, "hours", 0, "Lifetime in hours (defaults to AUTH_TOKEN_EXPIRE_HOURS)")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
