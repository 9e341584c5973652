package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"notes-backend/internal/access"
	"notes-backend/internal/shared/auth"
	"notes-backend/internal/shared/config"
)

var (
	tokenSubject string
	tokenRole    string
)

// tokenCmd mints a bearer token signed with JWT_SECRET. The subject must
// still exist in the user store for the token to be accepted.
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token for an existing user",
	RunE: func(cmd *cobra.Command, args []string) error {
		role, err := access.ParseRole(tokenRole)
		if err != nil {
			return err
		}
		if tokenSubject == "" {
			return fmt.Errorf("--sub is required")
		}
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		signer, err := auth.NewSigner(cfg.JWTSecret, cfg.JWTAlgorithm, cfg.JWTTTL)
		if err != nil {
			return err
		}
		token, err := access.NewGate(signer, nil).Issue(access.Identity{UserID: tokenSubject, Role: role})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "sub", "", "user id")
	tokenCmd.Flags().StringVar(&tokenRole, "role", string(access.RoleStudent), "student or teacher")
}
