package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mmeshcher/vetbill/internal/auth"
	"github.com/mmeshcher/vetbill/internal/model"
	"github.com/mmeshcher/vetbill/internal/seed"
	"github.com/mmeshcher/vetbill/internal/validation"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a development bearer token",
	Example: `  # Token for the seeded admin
  vetbillctl token --user admin@example.com --role admin

  # Token for an arbitrary user id, valid for one hour
  vetbillctl token --user 6f1c... --role employee --ttl 1h`,
	RunE: runToken,
}

func init() {
	rootCmd.AddCommand(tokenCmd)

	tokenCmd.Flags().String("user", "admin@example.com", "user id or seeded user email")
	tokenCmd.Flags().String("role", string(model.RoleAdmin), "role claim (admin or employee)")
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "token lifetime")
}

func runToken(cmd *cobra.Command, args []string) error {
	user, _ := cmd.Flags().GetString("user")
	role, _ := cmd.Flags().GetString("role")
	ttl, _ := cmd.Flags().GetDuration("ttl")

	if role != string(model.RoleAdmin) && role != string(model.RoleEmployee) {
		return fmt.Errorf("unknown role %q", role)
	}

	userID, err := validation.ParseID(user, "user")
	if err != nil {
		// Почта демонстрационного пользователя.
		userID = seed.ID("user", user)
	}

	secret := flagOrEnv(cmd, "secret", "JWT_SECRET", "vetgrow-secret-key")
	token, err := auth.NewJWTProvider(secret, nil).Issue(model.Identity{UserID: userID, Role: model.Role(role)}, ttl)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
