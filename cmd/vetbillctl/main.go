// Package main содержит служебную утилиту vetbillctl: миграции, демонстрационные данные
// и выпуск токенов для разработки.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var logger *zap.Logger

var rootCmd = &cobra.Command{
	Use:   "vetbillctl",
	Short: "Operational tooling for the vetbill billing service",
	Long: `vetbillctl applies database migrations, loads demo data and issues
development bearer tokens for the vetbill billing service.

Configuration is read from flags, the environment and an optional .env file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		var err error
		logger, err = zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("database", "d", "", "database URI (default $DATABASE_URI)")
	rootCmd.PersistentFlags().StringP("secret", "s", "", "JWT signing secret (default $JWT_SECRET or vetgrow-secret-key)")
}

func flagOrEnv(cmd *cobra.Command, name, env, fallback string) string {
	if v, _ := cmd.Flags().GetString(name); v != "" {
		return v
	}
	if v := os.Getenv(env); v != "" {
		return v
	}
	return fallback
}
