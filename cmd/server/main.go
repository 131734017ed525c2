package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"storeinsight/backend/internal/cache"
	"storeinsight/backend/internal/config"
	"storeinsight/backend/internal/domain"
	"storeinsight/backend/internal/httpapi"
	"storeinsight/backend/internal/logging"
	"storeinsight/backend/internal/metrics"
	"storeinsight/backend/internal/service"
	"storeinsight/backend/internal/store"
	"storeinsight/backend/internal/store/memory"
	"storeinsight/backend/internal/store/mongodb"
	pgstore "storeinsight/backend/internal/store/postgres"
)

func main() {
	loadLocalEnv()
	logging.Setup()

	cfg := config.Load()
	if err := validateSecurityConfig(cfg); err != nil {
		fatal("invalid security configuration", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		fatal("invalid timezone", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	closers := make([]func() error, 0, 2)

	repo, closeRepo, err := openRepository(ctx, cfg)
	if err != nil {
		fatal("repository unavailable", err)
	}
	if closeRepo != nil {
		closers = append(closers, closeRepo)
	}

	cacheStore, closeCache := openCache(ctx, cfg)
	if closeCache != nil {
		closers = append(closers, closeCache)
	}

	instruments := metrics.New()
	svc := service.New(repo, service.Options{
		Cache:          cacheStore,
		CacheTTL:       cfg.CacheTTL(),
		Metrics:        instruments,
		Logger:         slog.Default(),
		Location:       loc,
		StoreListLimit: cfg.StoreListLimit,
	})
	auth := httpapi.NewAuthManager(cfg.AuthSecret, cfg.AccessTokenTTL(), dashboardAccounts(cfg)...)
	api := httpapi.New(svc, auth, httpapi.Options{
		AllowedOrigin: cfg.AllowedOrigin,
		Metrics:       instruments,
		Logger:        slog.Default(),
	})

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("store insight listening", "addr", cfg.Address(), "timezone", loc.String())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("server error", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			slog.Error("close error", "error", err)
		}
	}

	slog.Info("server stopped")
}

func loadLocalEnv() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found; relying on existing environment")
	}
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}

// openRepository prefers MongoDB, then the Postgres mirror, then the seeded
// in-memory store. A configured backend that cannot be reached is fatal.
func openRepository(ctx context.Context, cfg config.Config) (store.Repository, func() error, error) {
	switch {
	case cfg.MongoURI != "":
		cols := mongodb.DefaultCollections()
		cols.RetailDB = cfg.MongoRetailDB
		cols.BillsDB = cfg.MongoBillsDB
		repo, err := mongodb.New(ctx, cfg.MongoURI, cols)
		if err != nil {
			return nil, nil, fmt.Errorf("mongodb: %w", err)
		}
		slog.Info("repository: mongodb", "retail_db", cols.RetailDB, "bills_db", cols.BillsDB)
		return repo, repo.Close, nil
	case cfg.DatabaseURL != "":
		repo, err := pgstore.New(ctx, cfg.DatabaseURL, pgstore.DefaultTables())
		if err != nil {
			return nil, nil, fmt.Errorf("postgres: %w", err)
		}
		if err := repo.EnsureSchema(ctx); err != nil {
			slog.Warn("postgres schema check failed", "error", err)
		}
		slog.Info("repository: postgres")
		return repo, repo.Close, nil
	default:
		slog.Info("repository: in-memory demo data")
		return memory.NewSeeded(), nil, nil
	}
}

func openCache(ctx context.Context, cfg config.Config) (cache.Cache, func() error) {
	if cfg.RedisAddr == "" {
		slog.Info("cache: in-memory")
		return cache.NewMemoryCache(), nil
	}
	redisCache := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err := redisCache.Ping(ctx); err != nil {
		slog.Warn("redis unavailable, using in-memory cache", "error", err)
		_ = redisCache.Close()
		return cache.NewMemoryCache(), nil
	}
	slog.Info("cache: redis", "addr", cfg.RedisAddr)
	return redisCache, redisCache.Close
}

func dashboardAccounts(cfg config.Config) []domain.UserAccount {
	accounts := []domain.UserAccount{{
		Username: "admin",
		Password: cfg.AdminPassword,
		Role:     domain.RoleAdmin,
		Active:   true,
	}}
	if cfg.SupportPassword != "" {
		accounts = append(accounts, domain.UserAccount{
			Username: "support",
			Password: cfg.SupportPassword,
			Role:     domain.RoleSupport,
			Active:   true,
		})
	}
	return accounts
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	if len(cfg.AdminPassword) < 10 {
		return fmt.Errorf("ADMIN_PASSWORD must be set and at least 10 characters")
	}
	if cfg.SupportPassword != "" && len(cfg.SupportPassword) < 10 {
		return fmt.Errorf("SUPPORT_PASSWORD must be at least 10 characters when set")
	}
	if cfg.SupportPassword != "" && cfg.SupportPassword == cfg.AdminPassword {
		return fmt.Errorf("SUPPORT_PASSWORD must differ from ADMIN_PASSWORD")
	}
	return nil
}
