package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/iliyamo/restaurant-phone-agent/internal/middleware"
	"github.com/iliyamo/restaurant-phone-agent/internal/utils"
)

func newTokenCommand(a *app) *cobra.Command {
	var (
		sub  string
		role string
		ttl  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a staff token for the analytics and admin routes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := os.Getenv("JWT_SECRET")
			if secret == "" {
				return errors.New("JWT_SECRET is not set")
			}
			tok, err := utils.NewAccessToken(secret, sub, role, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok.Token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", tok.Exp.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&sub, "sub", "", "subject the token is issued to (required)")
	cmd.Flags().StringVar(&role, "role", middleware.RoleStaff, "role claim")
	cmd.Flags().DurationVar(&ttl, "ttl", defaultTokenTTL(), "token lifetime (default from ACCESS_TOKEN_TTL_MIN)")
	_ = cmd.MarkFlagRequired("sub")
	return cmd
}

func defaultTokenTTL() time.Duration {
	if n, err := strconv.Atoi(os.Getenv("ACCESS_TOKEN_TTL_MIN")); err == nil && n > 0 {
		return time.Duration(n) * time.Minute
	}
	return 12 * time.Hour
}
