package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/institute-erp/institute/internal/app"
	"github.com/institute-erp/institute/internal/auth"
	"github.com/institute-erp/institute/internal/logins"
	"github.com/institute-erp/institute/internal/observability"
	"github.com/institute-erp/institute/internal/platform/cache"
	"github.com/institute-erp/institute/internal/platform/db"
	"github.com/institute-erp/institute/internal/rbac"
	"github.com/institute-erp/institute/internal/roles"
	"github.com/institute-erp/institute/internal/users"
	"github.com/institute-erp/institute/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN, db.PoolOptions{MaxConns: cfg.PGMaxConns})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	metrics := observability.NewMetrics()

	tokenCfg := auth.TokenConfig{
		Secret: []byte(cfg.TokenSecret),
		TTL:    cfg.TokenTTL,
		Issuer: cfg.TokenIssuer,
		Leeway: cfg.TokenLeeway,
	}
	issuer, err := auth.NewTokenIssuer(tokenCfg)
	if err != nil {
		logger.Error("token issuer", slog.Any("error", err))
		os.Exit(1)
	}
	verifier, err := auth.NewTokenVerifier(tokenCfg)
	if err != nil {
		logger.Error("token verifier", slog.Any("error", err))
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.TokenRevocation {
		redisClient, err = cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Error("connect redis", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	loginsService := logins.NewService(logins.NewRepository(dbpool))
	var recorder auth.LoginRecorder = loginsService
	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	if cfg.LoginLogAsync {
		jobClient, err := jobs.NewClient(redisOpts)
		if err != nil {
			logger.Error("job client", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			if err := jobClient.Close(); err != nil {
				logger.Warn("job client close", slog.Any("error", err))
			}
		}()
		recorder = jobClient
	}

	hasher := auth.NewPasswordHasher(cfg.BcryptCost, cfg.HashConcurrency)
	serviceCfg := auth.ServiceConfig{
		Directory: auth.NewRepository(dbpool),
		Hasher:    hasher,
		Issuer:    issuer,
		Verifier:  verifier,
		Recorder:  recorder,
		Observer:  metrics,
		Logger:    logger,
	}
	if redisClient != nil {
		serviceCfg.Denylist = auth.NewRedisDenylist(redisClient)
	}
	authService := auth.NewService(serviceCfg)
	authHandler := auth.NewHandler(logger, authService, cfg.LoginRateLimit)

	rbacRepo := rbac.NewRepository(dbpool)
	guard := rbac.NewGuard(rbac.NewResolver(rbacRepo, cfg.RBACExpandHierarchy), metrics, logger)
	rbacHandler := rbac.NewHandler(logger, rbac.NewService(rbacRepo), guard)

	usersHandler := users.NewHandler(logger, users.NewService(users.NewRepository(dbpool), hasher), guard)
	rolesHandler := roles.NewHandler(logger, roles.NewService(roles.NewRepository(dbpool)), guard)
	loginsHandler := logins.NewHandler(logger, loginsService, guard)

	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:        logger,
		Config:        cfg,
		AuthHandler:   authHandler,
		RBACHandler:   rbacHandler,
		UsersHandler:  usersHandler,
		RolesHandler:  rolesHandler,
		LoginsHandler: loginsHandler,
		JobHandler:    jobHandler,
		Metrics:       metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server",
			slog.String("addr", cfg.AppAddr),
			slog.Bool("token_revocation", cfg.TokenRevocation),
			slog.Bool("rbac_expand_hierarchy", cfg.RBACExpandHierarchy))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
