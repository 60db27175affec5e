package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/geocoder89/amnii/internal/account"
	"github.com/geocoder89/amnii/internal/auth"
	"github.com/geocoder89/amnii/internal/cache"
	"github.com/geocoder89/amnii/internal/config"
	"github.com/geocoder89/amnii/internal/db"
	"github.com/geocoder89/amnii/internal/domain/resource"
	"github.com/geocoder89/amnii/internal/domain/user"
	httpx "github.com/geocoder89/amnii/internal/http"
	"github.com/geocoder89/amnii/internal/http/handlers"
	"github.com/geocoder89/amnii/internal/observability"
	"github.com/geocoder89/amnii/internal/redisclient"
	"github.com/geocoder89/amnii/internal/repo/memory"
	"github.com/geocoder89/amnii/internal/repo/postgres"
	"github.com/geocoder89/amnii/internal/security"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const serviceName = "amnii-api"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "FATAL:", err)
		os.Exit(1)
	}
}

func run() error {
	// Load the config set up; a missing JWT_PRIVATE_KEY stops here
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := observability.InitTracer(ctx, serviceName, cfg.Env, cfg.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer func() {
		sctx, cancel := config.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracer(sctx)
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	tokens, err := auth.NewManager(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		return err
	}
	hasher := security.NewHasher(cfg.BcryptCost, cfg.HashWorkers)

	checks := map[string]handlers.ReadinessCheck{}

	var (
		users     user.Store
		resources resource.Store
	)

	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		log.Warn("using in-memory stores; data is lost on restart")
		users = memory.NewUsersRepo()
		resources = memory.NewResourcesRepo()

	default:
		pool, err := db.ConnectWithRetry(ctx, cfg.DBURL, 10, 5, log)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()

		if err := db.Migrate(pool); err != nil {
			return err
		}

		users = postgres.NewUsersRepo(pool, prom)
		resources = postgres.NewResourcesRepo(pool, prom)
		checks["postgres"] = pool.Ping
	}

	var listCache cache.Store = cache.New(cfg.CacheTTL)

	if cfg.RedisAddr != "" {
		rc, err := redisclient.Connect(ctx, redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return err
		}
		defer rc.Close()

		listCache = cache.NewRedis(rc.Raw(), cfg.CacheTTL, log)
		checks["redis"] = rc.Ping
	}

	seedCtx, cancel := config.WithTimeout(ctx, 10*time.Second)
	err = db.EnsureAdminUser(seedCtx, users, hasher, cfg, log)
	cancel()
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	accounts := account.NewService(users, hasher, tokens,
		account.WithProm(prom),
		account.WithLogger(log),
	)

	var shuttingDown atomic.Bool

	router := httpx.NewRouter(httpx.Deps{
		Env:                cfg.Env,
		ServiceName:        serviceName,
		Log:                log,
		Prom:               prom,
		Gatherer:           reg,
		Accounts:           accounts,
		Tokens:             tokens,
		Resources:          resources,
		Cache:              listCache,
		Checks:             checks,
		ShuttingDown:       shuttingDown.Load,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		MaxBodyBytes:       cfg.MaxBodyBytes,
		LoginRatePerMinute: cfg.LoginRatePerMinute,
		WriteRatePerMinute: cfg.WriteRatePerMinute,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.StoreDriver)
		err := srv.ListenAndServe()

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	// Graceful shutdown
	log.Info("server shutting down")
	shuttingDown.Store(true)

	sctx, cancelShutdown := config.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(sctx); err != nil {
		log.Error("graceful shutdown failed", "err", err)
		return err
	}

	log.Info("shutdown complete")
	return nil
}
