package main

import (
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mmeshcher/vetbill/internal/repository"
	"github.com/mmeshcher/vetbill/internal/seed"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load demo users, shops, products and bills",
	Long: `Load the demo data set into an empty database: two users (admin and employee),
two shops, three catalog products and the historical bills INV-001 and INV-002.`,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	dsn := flagOrEnv(cmd, "database", "DATABASE_URI", "")
	if dsn == "" {
		return errors.New("database URI is required")
	}

	repo, err := repository.NewPostgresRepository(dsn)
	if err != nil {
		return err
	}
	defer repo.Close()

	res, err := seed.Run(cmd.Context(), repo, logger)
	if err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return errors.New("database already seeded")
		}
		return err
	}

	logger.Info("database seeded",
		zap.String("admin_id", res.Admin.ID.String()),
		zap.String("employee_id", res.Employee.ID.String()),
		zap.Int("bills", len(res.Bills)),
	)
	return nil
}
