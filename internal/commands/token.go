package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"charterbooks/internal/config"
	appctx "charterbooks/internal/core/context"
	"charterbooks/internal/domain/auth"
)

func newTokenCommand(loadConfig func() (*config.Config, error)) *cobra.Command {
	var (
		user      appctx.UserContext
		ttl       time.Duration
		companies []string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed access token for development and scripts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Require("JWT_SECRET"); err != nil {
				return err
			}

			jwtConfig := auth.DefaultJWTConfig(cfg.JWTSecret)
			jwtConfig.Issuer = cfg.JWTIssuer
			jwtConfig.AccessTokenTTL = cfg.JWTTTL
			if ttl > 0 {
				jwtConfig.AccessTokenTTL = ttl
			}
			service, err := auth.NewJWTService(jwtConfig)
			if err != nil {
				return err
			}

			user.CompanyIDs = companies
			token, expiresAt, err := service.GenerateAccessToken(user)
			if err != nil {
				return fmt.Errorf("signing token: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", expiresAt.UTC().Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVar(&user.UserID, "sub", "", "user id (required)")
	_ = cmd.MarkFlagRequired("sub")
	cmd.Flags().StringVar(&user.Email, "email", "", "user email")
	cmd.Flags().StringSliceVar(&user.Roles, "role", []string{auth.RoleAccountant}, "roles (accountant, approver, admin)")
	cmd.Flags().StringSliceVar(&companies, "company", nil, "company ids the user may book for (default all)")
	cmd.Flags().BoolVar(&user.IsAdmin, "admin", false, "grant admin rights")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default JWT_TTL)")

	return cmd
}
