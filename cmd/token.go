package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"samtv/internal/server"
)

var (
	tokenTVs    []string
	tokenExpiry time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token [subject]",
	Short: "Issue a token for the REST bridge",
	Long: `Issue a bearer token for the REST bridge, signed with server.auth.jwt_secret from the
configuration file. Use --tv to limit the token to some TVs.`,
	Example: `  samtv token home-assistant
  samtv token kids-tablet --tv bedroom --expiry 720h`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadOptionalConfig()
		if err != nil {
			return err
		}
		if cfg == nil || !cfg.Server.Auth.Enabled() {
			return fmt.Errorf("server.auth.jwt_secret is not set in %s", configPath)
		}

		for _, id := range tokenTVs {
			if _, err := cfg.TV(id); err != nil {
				return err
			}
		}

		expiry := cfg.Server.Auth.TokenExpiry
		if cmd.Flags().Changed("expiry") {
			expiry = tokenExpiry
		}

		subject := "samtv"
		if len(args) > 0 {
			subject = args[0]
		}

		tokens := server.NewTokenService(cfg.Server.Auth.JWTSecret, cfg.Server.Auth.Issuer, expiry)
		token, err := tokens.GenerateToken(subject, tokenTVs)
		if err != nil {
			return fmt.Errorf("failed to generate token: %w", err)
		}

		log.Debug().Str("subject", subject).Strs("tvs", tokenTVs).Dur("expiry", expiry).Msg("Token issued")
		cmd.Println(token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringSliceVar(&tokenTVs, "tv", nil, "Limit the token to these TV IDs")
	tokenCmd.Flags().DurationVar(&tokenExpiry, "expiry", 0, "Token lifetime, 0 for no expiry (overrides server.auth.token_expiry)")
}
