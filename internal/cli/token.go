package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/yakoovad/member-search/internal/auth"
	"github.com/yakoovad/member-search/internal/config"
)

func NewTokenCommand(_ *RootOptions) *cobra.Command {
	var (
		tokenType string
		subject   string
		ttl       time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a signed access token for local testing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tt, err := auth.ParseTokenType(tokenType)
			if err != nil {
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			auth.SetSecret(cfg.Auth.TokenSecret)

			token, err := auth.GenerateToken(subject, tt, ttl)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	cmd.Flags().StringVar(&tokenType, "type", string(auth.TokenTypeUser), "token type (user|admin)")
	cmd.Flags().StringVar(&subject, "subject", "local", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")

	return cmd
}
