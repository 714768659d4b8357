// Package config содержит логику чтения конфигурации сервиса учёта счетов.
package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	defaultRunAddress        = "localhost:8080"
	defaultJWTSecret         = "vetgrow-secret-key"
	defaultReconcileInterval = time.Minute
)

// Config содержит параметры конфигурации сервиса учёта счетов.
type Config struct {
	RunAddress        string        `env:"RUN_ADDRESS"`
	DatabaseURI       string        `env:"DATABASE_URI"`
	CatalogAddress    string        `env:"CATALOG_ADDRESS"`
	CatalogToken      string        `env:"CATALOG_TOKEN"`
	JWTSecret         string        `env:"JWT_SECRET"`
	ReconcileInterval time.Duration `env:"RECONCILE_INTERVAL"`
}

// Parse считывает конфигурацию из файла .env, флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	// Отсутствие .env не ошибка.
	_ = godotenv.Load()

	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envCfg := *cfg
	_, envInterval := os.LookupEnv("RECONCILE_INTERVAL")

	flag.StringVar(&cfg.RunAddress, "a", defaultRunAddress, "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI, in-memory store when empty")
	flag.StringVar(&cfg.CatalogAddress, "c", "", "catalog service address")
	flag.StringVar(&cfg.CatalogToken, "t", "", "catalog service bearer token")
	flag.StringVar(&cfg.JWTSecret, "s", defaultJWTSecret, "JWT signing secret")
	flag.DurationVar(&cfg.ReconcileInterval, "i", defaultReconcileInterval, "payment reconciliation interval, 0 disables")

	flag.Parse()

	if envCfg.RunAddress != "" {
		cfg.RunAddress = envCfg.RunAddress
	}
	if envCfg.DatabaseURI != "" {
		cfg.DatabaseURI = envCfg.DatabaseURI
	}
	if envCfg.CatalogAddress != "" {
		cfg.CatalogAddress = envCfg.CatalogAddress
	}
	if envCfg.CatalogToken != "" {
		cfg.CatalogToken = envCfg.CatalogToken
	}
	if envCfg.JWTSecret != "" {
		cfg.JWTSecret = envCfg.JWTSecret
	}
	if envInterval {
		cfg.ReconcileInterval = envCfg.ReconcileInterval
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = defaultRunAddress
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = defaultJWTSecret
	}

	return cfg, nil
}
