// cmd/account-opening/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"account-opening/internal/admin"
	"account-opening/internal/audit"
	"account-opening/internal/common/aws"
	"account-opening/internal/common/config"
	"account-opening/internal/common/database"
	"account-opening/internal/common/logger"
	"account-opening/internal/common/observability"
	"account-opening/internal/disclosures"
	"account-opening/internal/documents"
	"account-opening/internal/kyc"
	"account-opening/internal/notify"
	"account-opening/internal/providers"
	"account-opening/internal/risk"
	"account-opening/internal/server"
	"account-opening/internal/storage"
	"account-opening/internal/store"
	"account-opening/internal/workflow"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting account-opening service...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var redisClient *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redisClient, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redisClient.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redisClient.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init Elasticsearch (optional) with retry ---
	var esClient *database.ElasticsearchClient
	if cfg.Database.Elasticsearch.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping()
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		zapLog.Info("Elasticsearch connected successfully")
	}

	// --- File storage ---
	files, err := storage.NewLocalStore(cfg.Storage)
	if err != nil {
		zapLog.Fatal("storage init failed", zap.Error(err))
	}

	// --- Stores ---
	db := pg.GetDB()
	applications := store.NewApplicationStore(db)
	profiles := store.NewProfileStore(db)
	documentStore := store.NewDocumentStore(db)
	kycStore := store.NewKYCStore(db)
	riskStore := store.NewRiskStore(db)
	disclosureStore := store.NewDisclosureStore(db)
	adminStore := store.NewAdminStore(db)
	auditStore := store.NewAuditStore(db)

	recorder := audit.NewRecorder(auditStore, esClient, cfg.Database.Elasticsearch.AuditIndex, log)

	// --- Notifications ---
	var notifier notify.Notifier = notify.NewNoOpNotifier()
	if cfg.Notifications.Email.Enabled || cfg.Notifications.SMS.Enabled {
		sesClient, err := aws.NewSESClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("ses client init failed", zap.Error(err))
		}
		snsClient, err := aws.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("sns client init failed", zap.Error(err))
		}
		notifier = notify.NewAWSNotifier(sesClient, snsClient, cfg.Notifications, log)
		zapLog.Info("AWS notifier initialized", zap.String("region", cfg.Notifications.AWS.Region))
	}

	// --- Verification pipeline ---
	queue := documents.NewQueue(redisClient.GetClient(), config.GetDuration(cfg.Verification.PollTimeout))
	pipeline := documents.NewPipeline(
		queue,
		documentStore,
		providers.NewHTTPDocumentVerifier(cfg.Providers.DocumentVerify),
		cfg.Verification,
		log,
	)

	pipelineCtx, stopPipeline := context.WithCancel(ctx)
	pipeline.Start(pipelineCtx)
	zapLog.Info("Verification pipeline started", zap.Int("workers", cfg.Verification.Workers))

	// --- Feature services ---
	services := server.Services{
		Workflow:    workflow.NewService(applications, profiles, recorder, notifier, log),
		Documents:   documents.NewService(applications, documentStore, files, queue, recorder, log),
		KYC:         kyc.NewService(applications, profiles, kycStore, providers.NewHTTPKYCProvider(cfg.Providers.KYC), recorder, log),
		Risk:        risk.NewService(applications, profiles, documentStore, kycStore, riskStore, recorder, log),
		Disclosures: disclosures.NewService(applications, disclosureStore, recorder, log),
		Admin:       admin.NewService(adminStore, riskStore, log),
		Audit:       recorder,
		Files:       files,
		Dependencies: []server.Dependency{
			{Name: "postgres", Ping: pg.Ping},
			{Name: "redis", Ping: redisClient.Ping},
		},
	}

	srv := server.New(cfg.HTTP, services, log)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run() }()

	// --- Graceful shutdown ---
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		zapLog.Info("Shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			zapLog.Error("http server failed", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, config.GetDuration(cfg.HTTP.ShutdownTimeout))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("http shutdown failed", zap.Error(err))
	}

	stopPipeline()
	pipeline.Wait()
	zapLog.Info("Shutdown complete")
}
