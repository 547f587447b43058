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

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/aryan0dhankhar/pgledger/internal/domain"
	"github.com/aryan0dhankhar/pgledger/internal/featureflags"
	"github.com/aryan0dhankhar/pgledger/internal/handler"
	"github.com/aryan0dhankhar/pgledger/internal/history"
	"github.com/aryan0dhankhar/pgledger/internal/infrastructure/logger"
	"github.com/aryan0dhankhar/pgledger/internal/infrastructure/redis"
	"github.com/aryan0dhankhar/pgledger/internal/observability/metrics"
	"github.com/aryan0dhankhar/pgledger/internal/observability/tracing"
	"github.com/aryan0dhankhar/pgledger/internal/reliability/circuitbreaker"
	"github.com/aryan0dhankhar/pgledger/internal/repository"
	"github.com/aryan0dhankhar/pgledger/internal/security"
	"github.com/aryan0dhankhar/pgledger/internal/security/audit"
	"github.com/aryan0dhankhar/pgledger/internal/security/auth"
	"github.com/aryan0dhankhar/pgledger/internal/security/middleware"
	"github.com/aryan0dhankhar/pgledger/internal/security/ratelimit"
	"github.com/aryan0dhankhar/pgledger/internal/service"
	"github.com/aryan0dhankhar/pgledger/internal/worker"
	"github.com/aryan0dhankhar/pgledger/pkg/config"
	"github.com/aryan0dhankhar/pgledger/pkg/database"
)

const maxBodyBytes = 1 << 20

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("starting pgledger server", slog.String("environment", cfg.Environment))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Tracing
	shutdownTracing, err := tracing.Init(ctx, log, "pgledger", cfg.Environment)
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Database
	pool, err := database.NewConnectionPool(ctx, &database.Config{DSN: cfg.DSN()}, log)
	if err != nil {
		log.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()
	if err := database.Migrate(ctx, pool.GetDB(), log); err != nil {
		log.Error("failed to migrate database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 5. Tenant history lives in Redis when configured, otherwise in memory
	var (
		hist       history.Store = history.NewMemoryStore()
		redisCheck handler.Check
	)
	if cfg.RedisURL != "" {
		redisClient, err := redis.NewClient(ctx, cfg.RedisURL, log)
		if err != nil {
			log.Error("failed to connect to Redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer redisClient.Close()
		hist = history.NewRedisStore(redisClient, history.DefaultKey, log)
		redisCheck = redisClient.Ping
	} else {
		log.Warn("REDIS_URL not set, tenant history is kept in memory")
	}

	// 6. Repositories
	db := pool.GetDB()
	tenantRepo := repository.NewPostgresTenantRepository(db, log)
	rentRepo := repository.NewPostgresRentRepository(db, log)
	roomRepo := repository.NewPostgresRoomRepository(db, log)
	accountRepo := repository.NewPostgresAccountRepository(db, log)
	operatorRepo := repository.NewPostgresOperatorRepository(db, log)

	// 7. Services
	clock := domain.SystemClock{}
	tokenManager := auth.NewTokenManager(cfg.JWTSecret, "pgledger")
	authService := service.NewAuthService(operatorRepo, tokenManager, time.Duration(cfg.TokenTTLMinutes)*time.Minute, log)
	if err := authService.SeedOwner(ctx, cfg.OperatorEmail, cfg.OperatorPassword); err != nil {
		log.Error("failed to seed owner operator", slog.String("error", err.Error()))
		os.Exit(1)
	}
	tenantService := service.NewTenantService(tenantRepo, rentRepo, hist, clock, log)
	rentService := service.NewRentService(rentRepo, tenantRepo, clock, log)
	roomService := service.NewRoomService(roomRepo, tenantRepo, cfg.CustomRooms, log)
	accountService := service.NewAccountService(accountRepo, log)
	exportService := service.NewExportService(rentRepo, tenantRepo, accountRepo, log)

	breaker := circuitbreaker.NewCircuitBreaker(5, 2, 30*time.Second)
	breaker.SetStateChangeCallback(func(from, to circuitbreaker.State) {
		log.Warn("ledger circuit breaker state changed",
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
		metrics.SetBreakerState(int(to))
	})
	ledger := service.NewLedgerController(&service.RepositorySource{
		Tenants:  tenantRepo,
		History:  hist,
		Rents:    rentRepo,
		Rooms:    roomRepo,
		Accounts: accountRepo,
	}, breaker, clock, log)

	// 8. Handlers
	auditLogger := audit.NewLogger(log)
	handlers := handler.Handlers{
		Health:    handler.NewHealthHandler(pool.Health, redisCheck, log),
		Login:     handler.NewLoginHandler(authService, log),
		Tenants:   handler.NewTenantHandler(tenantService, ledger, auditLogger, log),
		Rents:     handler.NewRentHandler(rentService, exportService, clock, ledger, auditLogger, log),
		Rooms:     handler.NewRoomHandler(roomService, ledger, log),
		Accounts:  handler.NewAccountHandler(accountService, ledger, log),
		Dashboard: handler.NewDashboardHandler(ledger, log),
	}
	if featureflags.EnabledOr(featureflags.DashboardPush, true) {
		handlers.Stream = handler.NewDashboardStream(ledger,
			time.Duration(cfg.DashboardPushSeconds)*time.Second, cfg.CORSAllowedOrigins, log)
	}
	mux := http.NewServeMux()
	handlers.Register(mux)

	// 9. Security and middleware chain, outermost first:
	// tracing -> request ID -> CORS -> JWT -> rate limit -> authorize -> audit -> body checks -> metrics
	rateLimiter := ratelimit.NewLimiter(cfg.RateLimitPerMinute, time.Minute)
	authz := security.NewAuthorizationService(log)

	var root http.Handler = metrics.HTTPMetricsMiddleware(mux)
	root = middleware.LimitBody(maxBodyBytes)(root)
	root = middleware.ValidateJSONContentType(log)(root)
	root = middleware.AuditMiddleware(auditLogger)(root)
	root = middleware.Authorize(authz, auditLogger)(root)
	root = middleware.RateLimitMiddleware(rateLimiter, log)(root)
	root = middleware.JWTMiddleware(tokenManager, log)(root)
	root = middleware.CORS(cfg.CORSAllowedOrigins)(root)
	root = middleware.RequestID(log)(root)
	root = otelhttp.NewHandler(root, "pgledger")

	// 10. Monthly due generation worker
	dueWorker := worker.NewDueGenerator(tenantRepo, rentRepo, clock, ledger, log,
		time.Duration(cfg.DueGenerationIntervalMinutes)*time.Minute)
	go dueWorker.Start(ctx)

	// 11. HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.Int("rate_limit", cfg.RateLimitPerMinute),
		slog.Bool("redis_history", cfg.RedisURL != ""),
		slog.Bool("auto_due_generation", featureflags.Enabled(featureflags.AutoDueGeneration)),
		slog.Bool("dashboard_push", handlers.Stream != nil),
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", slog.String("error", err.Error()))
			sigChan <- syscall.SIGTERM
		}
	}()

	<-sigChan
	log.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}
	cancel()
	rateLimiter.Stop()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn("failed to flush traces", slog.String("error", err.Error()))
	}
	log.Info("server stopped")
}
