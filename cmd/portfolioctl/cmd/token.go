package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-chi/jwtauth"
	"github.com/spf13/cobra"
)

var (
	tokenSecret string
	tokenTTL    time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token <subject>",
	Short: "Mint a signed API token for a principal",
	Long: `Mint an HS256 token whose "sub" claim is the given principal. The API treats
the subject as the portfolio owner.

The signing secret defaults to auth.jwtSecret from the settings.`,
	Args: cobra.ExactArgs(1),
	RunE: runToken,
}

func init() {
	rootCmd.AddCommand(tokenCmd)

	tokenCmd.Flags().StringVar(&tokenSecret, "secret", "", "signing secret, overrides auth.jwtSecret")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime, 0 for no expiry")
}

func runToken(cmd *cobra.Command, args []string) error {
	secret := tokenSecret
	if secret == "" {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		secret = cfg.Auth.JWTSecret
	}
	if secret == "" {
		return errors.New("no signing secret configured")
	}

	token, err := signToken(secret, args[0], tokenTTL, time.Now())
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}

func signToken(secret, subject string, ttl time.Duration, now time.Time) (string, error) {
	if subject == "" {
		return "", errors.New("subject is required")
	}
	claims := map[string]interface{}{
		"sub": subject,
		"iat": now.UTC(),
	}
	if ttl > 0 {
		claims["exp"] = now.Add(ttl).UTC()
	}
	_, token, err := jwtauth.New("HS256", []byte(secret), nil).Encode(claims)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}
