package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/feral-file/crm-bridge/internal/adapter"
	"github.com/feral-file/crm-bridge/internal/api/middleware"
	"github.com/feral-file/crm-bridge/internal/api/server"
	"github.com/feral-file/crm-bridge/internal/api/shared/executor"
	"github.com/feral-file/crm-bridge/internal/audit"
	"github.com/feral-file/crm-bridge/internal/bridge"
	"github.com/feral-file/crm-bridge/internal/config"
	"github.com/feral-file/crm-bridge/internal/consent"
	"github.com/feral-file/crm-bridge/internal/export"
	"github.com/feral-file/crm-bridge/internal/logger"
	"github.com/feral-file/crm-bridge/internal/providers/chatwoot"
	"github.com/feral-file/crm-bridge/internal/providers/insights"
	"github.com/feral-file/crm-bridge/internal/providers/jetstream"
	"github.com/feral-file/crm-bridge/internal/providers/restapi"
	"github.com/feral-file/crm-bridge/internal/providers/temporal"
	"github.com/feral-file/crm-bridge/internal/resilience"
	"github.com/feral-file/crm-bridge/internal/store"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadAPIConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "api",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting CRM bridge API")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err), zap.String("host", cfg.Database.Host))
	}
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}
	if cfg.Database.ReadHost != "" {
		if err := store.RegisterReadReplica(db, cfg.Database.ReadDSN()); err != nil {
			logger.FatalCtx(ctx, "Failed to register read replica", zap.Error(err))
		}
	}
	logger.InfoCtx(ctx, "Connected to database",
		zap.Int("max_open_conns", cfg.Database.MaxOpenConns),
		zap.Bool("read_replica", cfg.Database.ReadHost != ""),
	)
	dataStore := store.NewPGStore(db)

	// Initialize adapters
	jsonAdapter := adapter.NewJSON()
	clockAdapter := adapter.NewClock()

	// Connect to Temporal
	temporalClient, err := temporal.Dial(cfg.Temporal, logger.Default())
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to Temporal", zap.Error(err))
	}
	defer temporalClient.Close()
	logger.InfoCtx(ctx, "Connected to Temporal", zap.String("host_port", cfg.Temporal.HostPort))

	// Intake stream
	publisher, err := jetstream.NewPublisher(jetstream.Config{
		URL:            cfg.NATS.URL,
		StreamName:     cfg.NATS.StreamName,
		SubjectPrefix:  cfg.NATS.SubjectPrefix,
		MaxReconnects:  cfg.NATS.MaxReconnects,
		ReconnectWait:  cfg.NATS.ReconnectWait,
		ConnectionName: cfg.NATS.ConnectionName,
	}, adapter.NewNatsJetStream(), jsonAdapter)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to create publisher", zap.Error(err))
	}
	defer publisher.Close()
	if err := publisher.EnsureStream(ctx); err != nil {
		logger.FatalCtx(ctx, "Failed to ensure intake stream", zap.Error(err), zap.String("stream", cfg.NATS.StreamName))
	}

	// Resilience state shared by the upstream clients
	guards := resilience.NewStack(cfg.Redis, clockAdapter)
	defer guards.Close()

	// Consent write-back is optional
	var chatwootClient chatwoot.Client
	if cfg.Chatwoot.BaseURL != "" {
		upstream := cfg.Chatwoot.UpstreamConfig
		upstream.APIToken = ""
		caller := restapi.NewCaller(chatwoot.Upstream,
			restapi.NewHTTPClient(upstream, chatwoot.AuthHeaders(cfg.Chatwoot.APIToken)),
			jsonAdapter, cfg.Chatwoot.ClientVersion, cfg.Debug)
		chatwootClient = chatwoot.NewClient(caller,
			guards.Guard(chatwoot.Upstream, cfg.Resilience, clockAdapter, jsonAdapter),
			jsonAdapter, int64(cfg.Chatwoot.AccountID))
	} else {
		logger.WarnCtx(ctx, "Chatwoot not configured, consent changes will not be written back")
	}

	var insightsClient insights.Client
	if cfg.Insights.BaseURL != "" {
		upstream := cfg.Insights.UpstreamConfig
		upstream.APIToken = ""
		caller := restapi.NewCaller(insights.Upstream,
			restapi.NewHTTPClient(upstream, chatwoot.AuthHeaders(cfg.Insights.APIToken)),
			jsonAdapter, cfg.Insights.ClientVersion, cfg.Debug)
		insightsClient = insights.NewClient(caller,
			guards.Guard(insights.Upstream, cfg.Resilience, clockAdapter, jsonAdapter),
			int64(cfg.Insights.AccountID), cfg.Insights.CacheTTL, cfg.Insights.StaleTTL)
	} else {
		logger.WarnCtx(ctx, "Insights not configured, summary endpoint disabled")
	}

	// Export storage
	objectStorage, err := adapter.NewS3Storage(ctx, adapter.ObjectStorageConfig{
		Bucket:          cfg.Export.Bucket,
		Region:          cfg.Export.Region,
		EndpointURL:     cfg.Export.EndpointURL,
		AccessKeyID:     cfg.Export.AccessKeyID,
		SecretAccessKey: cfg.Export.SecretAccessKey,
	})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to create export storage", zap.Error(err))
	}

	auditor := audit.NewAuditor(temporalClient, cfg.Temporal.WebhookTaskQueue, clockAdapter, 0)
	consentService := consent.NewService(dataStore, auditor, clockAdapter, cfg.Consent, chatwootClient)
	dispatcher := bridge.NewDispatcher(temporalClient, bridge.Queues{
		High:   cfg.Temporal.WebhookHighTaskQueue,
		Normal: cfg.Temporal.WebhookTaskQueue,
	})

	exec := executor.NewExecutor(executor.Dependencies{
		Store:        dataStore,
		Consent:      consentService,
		Publisher:    publisher,
		Dispatcher:   dispatcher,
		Orchestrator: temporalClient,
		Signer:       export.NewSigner(cfg.Export.Secret, cfg.Export.LinkTTL, cfg.Export.PublicBaseURL, clockAdapter),
		Archive:      export.NewArchive(objectStorage, jsonAdapter, cfg.Export.Prefix),
		Insights:     insightsClient,
		Auditor:      auditor,
		Clock:        clockAdapter,
		JSON:         jsonAdapter,
	}, executor.Config{
		WebhookSecret:    cfg.Webhook.Secret,
		WebhookTolerance: cfg.Webhook.Tolerance,
		SkipSignature:    cfg.Webhook.SkipVerification,
		BulkTaskQueue:    cfg.Temporal.BulkTaskQueue,
		AuditTaskQueue:   cfg.Temporal.WebhookTaskQueue,
		RetryWorkers:     cfg.Worker.WorkerPoolSize,
	})
	if cfg.Webhook.SkipVerification {
		logger.WarnCtx(ctx, "Webhook signature verification is disabled")
	}

	srv := server.New(server.Config{
		Debug:        cfg.Debug,
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		CORSOrigins:  cfg.Server.CORSOrigins,
		Auth: middleware.AuthConfig{
			JWTPublicKey: cfg.Auth.JWTPublicKey,
			APIKeys:      cfg.Auth.APIKeys,
		},
	}, exec, clockAdapter)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errCh <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	case err := <-errCh:
		logger.ErrorCtx(ctx, err, zap.String("component", "server"))
		cancel()
	}

	// ctx is canceled; give in-flight requests their own deadline
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorCtx(shutdownCtx, err, zap.String("component", "server"))
	}

	logger.Info("API server stopped")
}
