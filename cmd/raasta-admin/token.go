package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/model"
	"github.com/AnkitSingh-ai/raasta-sathi-sub001/pkg/jwt"
)

func tokenCmd() *cobra.Command {
	var (
		privateKeyPath string
		userID         string
		email          string
		issuer         string
		expMins        int
		outputJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an admin access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			jwtService, err := jwt.NewService(jwt.Config{
				PrivateKeyPath: privateKeyPath,
				Issuer:         issuer,
				ExpirationMins: expMins,
			})
			if err != nil {
				return fmt.Errorf("create JWT service (generate keys with: %s keys): %w", appName, err)
			}

			role := string(model.UserRoleAdmin)
			token, err := jwtService.Sign(jwt.Claims{
				UserID: userID,
				Email:  email,
				Name:   "Admin",
				Role:   role,
			})
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}

			out := cmd.OutOrStdout()
			if outputJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"access_token": token,
					"token_type":   "Bearer",
					"expires_in":   expMins * 60,
					"user_id":      userID,
					"email":        email,
					"role":         role,
				})
			}

			expTime := time.Now().Add(time.Duration(expMins) * time.Minute)
			fmt.Fprintln(out, "Admin Token Generated")
			fmt.Fprintln(out, "=====================")
			fmt.Fprintf(out, "User ID:  %s\n", userID)
			fmt.Fprintf(out, "Email:    %s\n", email)
			fmt.Fprintf(out, "Role:     %s\n", role)
			fmt.Fprintf(out, "Expires:  %s\n", expTime.Format(time.RFC3339))
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Token:")
			fmt.Fprintln(out, token)
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Usage:")
			fmt.Fprintf(out, "  curl -X POST -H 'Authorization: Bearer %s' http://localhost:8080/api/users/recalculate-points\n", abbreviate(token, 50))
			return nil
		},
	}

	cmd.Flags().StringVar(&privateKeyPath, "key", "./keys/private.pem", "Path to JWT private key")
	cmd.Flags().StringVar(&userID, "user", "user:admin", "User ID for the token")
	cmd.Flags().StringVar(&email, "email", "admin@raastasathi.dev", "Email for the token")
	cmd.Flags().StringVar(&issuer, "issuer", "api.raastasathi.in", "JWT issuer")
	cmd.Flags().IntVar(&expMins, "exp", 60*24*7, "Token expiration in minutes")
	cmd.Flags().BoolVar(&outputJSON, "json", false, "Output as JSON")

	return cmd
}

func keysCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Generate an RSA key pair for signing access tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return fmt.Errorf("create key directory: %w", err)
			}
			privPath := filepath.Join(dir, "private.pem")
			pubPath := filepath.Join(dir, "public.pem")
			if _, err := os.Stat(privPath); err == nil {
				return fmt.Errorf("%s already exists", privPath)
			}
			if err := jwt.GenerateKeyPair(privPath, pubPath); err != nil {
				return fmt.Errorf("generate key pair: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s and %s\n", privPath, pubPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "./keys", "Directory for private.pem and public.pem")
	return cmd
}

func abbreviate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
