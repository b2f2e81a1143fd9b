package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	appservice "github.com/openbaseline/compliance/internal/application/service"
	"github.com/openbaseline/compliance/internal/config"
	domainservice "github.com/openbaseline/compliance/internal/domain/service"
	"github.com/openbaseline/compliance/internal/infrastructure/audit"
	"github.com/openbaseline/compliance/internal/infrastructure/catalog"
	"github.com/openbaseline/compliance/internal/infrastructure/monitoring"
	"github.com/openbaseline/compliance/internal/infrastructure/persistence/postgres"
	redisinfra "github.com/openbaseline/compliance/internal/infrastructure/persistence/redis"
	httpiface "github.com/openbaseline/compliance/internal/interfaces/http"
	"github.com/openbaseline/compliance/internal/interfaces/http/handlers"
	"github.com/openbaseline/compliance/pkg/logger"
)

func main() {
	startupLogger, _ := monitoring.NewZapLogger(&config.LogConfig{Level: "info"})

	cfg, err := config.LoadConfig(startupLogger)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := monitoring.NewZapLogger(&cfg.Log)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	ctx := context.Background()

	tracing, err := monitoring.NewTracingManager(&cfg.Tracing, appLogger)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to initialize tracing", err)
	}
	defer tracing.Shutdown(ctx)

	db, err := postgres.NewDBConnection(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to connect to database", err)
	}
	if err := postgres.AutoMigrate(db); err != nil {
		appLogger.Fatal(ctx, "Failed to migrate database schema", err)
	}

	// Repositories and transaction manager.
	profileRepo := postgres.NewProfileRepository(db, appLogger)
	policyRepo := postgres.NewPolicyRepository(db, appLogger)
	ruleRepo := catalog.NewCachedRuleRepository(postgres.NewRuleRepository(db, appLogger), appLogger)
	resultRepo := postgres.NewResultRepository(db, appLogger)
	objectiveRepo := postgres.NewObjectiveRepository(db, appLogger)
	txManager := postgres.NewTxManager(db)

	// Policy lock: in-process for single instances, Redis for fleets.
	locker := domainservice.NewLocalPolicyLocker()
	if cfg.Redis.Enabled {
		redisClient, err := redisinfra.NewClient(ctx, &cfg.Redis, appLogger)
		if err != nil {
			appLogger.Fatal(ctx, "Failed to connect to Redis", err)
		}
		defer redisClient.Close()
		locker = redisinfra.NewPolicyLocker(redisClient,
			time.Duration(cfg.Redis.LockTTL)*time.Second, appLogger)
	}

	// Audit: always durable in the database, optionally fanned out to Kafka.
	auditService := audit.NewGormAuditService(db, appLogger)
	if cfg.Kafka.Enabled {
		auditService = audit.NewMultiAuditService(
			auditService,
			audit.NewKafkaProducer(&cfg.Kafka, appLogger),
		)
	}

	metrics := monitoring.NewMetrics()
	tailoring := domainservice.NewTailoringService(appLogger)

	profileService := appservice.NewProfileAppService(
		profileRepo, policyRepo, ruleRepo, objectiveRepo,
		txManager, tailoring, auditService, metrics, appLogger,
	)
	resultService := appservice.NewResultAppService(
		resultRepo, profileRepo, policyRepo, txManager,
		locker, auditService, metrics, appLogger,
	)

	router := httpiface.NewRouter(
		cfg,
		appLogger,
		handlers.NewHealthHandler(db),
		handlers.NewProfileHandler(profileService, appLogger),
		handlers.NewResultHandler(resultService, appLogger),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- router.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			appLogger.Fatal(ctx, "HTTP server failed", err)
		}
	case sig := <-quit:
		appLogger.Info(ctx, "Shutting down", logger.Fields{"signal": sig.String()})
		shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := router.Stop(shutdownCtx); err != nil {
			appLogger.Error(ctx, "Forced shutdown", err)
		}
	}
}
