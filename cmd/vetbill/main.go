// Package main запускает HTTP-сервер сервиса учёта счетов ветклиник.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/vetbill/internal/auth"
	"github.com/mmeshcher/vetbill/internal/catalog"
	"github.com/mmeshcher/vetbill/internal/config"
	"github.com/mmeshcher/vetbill/internal/handler"
	"github.com/mmeshcher/vetbill/internal/middleware"
	"github.com/mmeshcher/vetbill/internal/repository"
	"github.com/mmeshcher/vetbill/internal/seed"
	"github.com/mmeshcher/vetbill/internal/service"
)

type store interface {
	service.Store
	service.Catalog
	seed.Store
}

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	var repo store
	if cfg.DatabaseURI != "" {
		repo, err = repository.NewPostgresRepository(cfg.DatabaseURI)
		if err != nil {
			sugar.Fatalw("database initialization error", "error", err.Error())
		}
	} else {
		mem := repository.NewMemoryRepository()
		res, err := seed.Run(context.Background(), mem, logger)
		if err != nil {
			sugar.Fatalw("seed in-memory store error", "error", err.Error())
		}
		sugar.Infow("using in-memory store with demo data",
			"admin_id", res.Admin.ID.String(),
			"employee_id", res.Employee.ID.String(),
		)
		repo = mem
	}

	var cat service.Catalog = repo
	if cfg.CatalogAddress != "" {
		cat = catalog.NewClient(cfg.CatalogAddress, cfg.CatalogToken)
		sugar.Infow("using remote catalog", "addr", cfg.CatalogAddress)
	}

	svc := service.NewService(repo, cat, logger)
	defer svc.Close()

	authMiddleware := middleware.NewAuthMiddleware(auth.NewJWTProvider(cfg.JWTSecret, repo))
	h := handler.NewHandler(svc, logger, authMiddleware)

	r := h.SetupRouter()

	server := &http.Server{
		Addr:              cfg.RunAddress,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Фоновая сверка сумм оплаты с историей платежей
	g.Go(func() error {
		svc.StartReconciliation(ctx, cfg.ReconcileInterval)
		return nil
	})

	g.Go(func() error {
		sugar.Infow("starting vetbill server", "addr", cfg.RunAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
