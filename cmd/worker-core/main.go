package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/interceptor"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/feral-file/crm-bridge/internal/adapter"
	"github.com/feral-file/crm-bridge/internal/audit"
	"github.com/feral-file/crm-bridge/internal/config"
	"github.com/feral-file/crm-bridge/internal/consent"
	"github.com/feral-file/crm-bridge/internal/export"
	"github.com/feral-file/crm-bridge/internal/logger"
	"github.com/feral-file/crm-bridge/internal/providers/chatwoot"
	"github.com/feral-file/crm-bridge/internal/providers/krayin"
	"github.com/feral-file/crm-bridge/internal/providers/restapi"
	"github.com/feral-file/crm-bridge/internal/providers/temporal"
	"github.com/feral-file/crm-bridge/internal/resilience"
	"github.com/feral-file/crm-bridge/internal/store"
	"github.com/feral-file/crm-bridge/internal/workflows"
)

const (
	// auditRetentionWorkflowID is the id of the daily audit purge cron
	auditRetentionWorkflowID = "audit-retention"
	auditRetentionSchedule   = "0 3 * * *"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadWorkerCoreConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "worker-core",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Worker Core")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err), zap.String("host", cfg.Database.Host))
	}
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to database")
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
	logger.InfoCtx(ctx, "Connected to Temporal", zap.String("namespace", cfg.Temporal.Namespace))

	// Upstream clients share breaker, limiter and cache state
	guards := resilience.NewStack(cfg.Redis, clockAdapter)
	defer guards.Close()

	krayinCaller := restapi.NewCaller(krayin.Upstream,
		restapi.NewHTTPClient(cfg.Krayin.UpstreamConfig, nil),
		jsonAdapter, cfg.Krayin.ClientVersion, cfg.Debug)
	krayinClient := krayin.NewClient(krayinCaller,
		guards.Guard(krayin.Upstream, cfg.Resilience, clockAdapter, jsonAdapter),
		jsonAdapter,
		krayin.CacheTTLs{
			Lead:      cfg.Resilience.LeadCacheTTL,
			Stages:    cfg.Resilience.StagesCacheTTL,
			Pipelines: cfg.Resilience.PipelinesCacheTTL,
		})

	chatwootUpstream := cfg.Chatwoot.UpstreamConfig
	chatwootUpstream.APIToken = ""
	chatwootCaller := restapi.NewCaller(chatwoot.Upstream,
		restapi.NewHTTPClient(chatwootUpstream, chatwoot.AuthHeaders(cfg.Chatwoot.APIToken)),
		jsonAdapter, cfg.Chatwoot.ClientVersion, cfg.Debug)
	chatwootClient := chatwoot.NewClient(chatwootCaller,
		guards.Guard(chatwoot.Upstream, cfg.Resilience, clockAdapter, jsonAdapter),
		jsonAdapter, int64(cfg.Chatwoot.AccountID))

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

	// Initialize executor for activities
	executor := workflows.NewExecutor(
		dataStore,
		krayinClient,
		chatwootClient,
		consentService,
		export.NewArchive(objectStorage, jsonAdapter, cfg.Export.Prefix),
		export.NewSigner(cfg.Export.Secret, cfg.Export.LinkTTL, cfg.Export.PublicBaseURL, clockAdapter),
		jsonAdapter,
		clockAdapter,
		workflows.LeadDefaults{
			PipelineID:   cfg.Krayin.PipelineID,
			StageID:      cfg.Krayin.StageID,
			LeadSourceID: cfg.Krayin.LeadSourceID,
			LeadTypeID:   cfg.Krayin.LeadTypeID,
			UserID:       cfg.Krayin.UserID,
		},
	)

	workerCore := workflows.NewWorkerCore(executor,
		workflows.WorkerCoreConfig{
			WebhookMaxAttempts: cfg.Scheduler.WebhookMaxAttempts,
			BulkMaxAttempts:    cfg.Scheduler.BulkMaxAttempts,
			Schedule:           cfg.Scheduler.Schedule,
			WebhookTimeout:     cfg.Scheduler.WebhookTimeout,
			BulkTimeout:        cfg.Scheduler.BulkTimeout,
			AuditTaskQueue:     cfg.Temporal.WebhookTaskQueue,
			AuditRetentionDays: cfg.Audit.RetentionDays,
		})

	// One worker per task queue. Every worker can run every workflow; the queue
	// only decides which backlog a job waits in.
	queues := []string{
		cfg.Temporal.WebhookHighTaskQueue,
		cfg.Temporal.WebhookTaskQueue,
		cfg.Temporal.BulkTaskQueue,
	}
	workers := make([]worker.Worker, 0, len(queues))
	for _, queue := range queues {
		w := worker.New(temporalClient, queue, worker.Options{
			MaxConcurrentActivityExecutionSize: cfg.Temporal.MaxConcurrentActivityExecutionSize,
			WorkerActivitiesPerSecond:          cfg.Temporal.WorkerActivitiesPerSecond,
			MaxConcurrentActivityTaskPollers:   cfg.Temporal.MaxConcurrentActivityTaskPollers,
			Interceptors:                       []interceptor.WorkerInterceptor{temporal.NewSentryActivityInterceptor()},
		})

		// Register workflows
		w.RegisterWorkflow(workerCore.ProcessWebhook)
		w.RegisterWorkflow(workerCore.ExportContactData)
		w.RegisterWorkflow(workerCore.EraseContactData)
		w.RegisterWorkflow(workerCore.PurgeExpiredAuditLogs)
		w.RegisterWorkflowWithOptions(workerCore.RecordAudit, workflow.RegisterOptions{Name: audit.WorkflowRecordAudit})

		// Register activities
		w.RegisterActivity(executor.HandleConversationCreated)
		w.RegisterActivity(executor.HandleMessageCreated)
		w.RegisterActivity(executor.HandleConversationStatusChanged)
		w.RegisterActivity(executor.DeadLetterWebhook)
		w.RegisterActivity(executor.PersistAuditLog)
		w.RegisterActivity(executor.DeadLetterAudit)
		w.RegisterActivity(executor.PurgeAuditLogs)
		w.RegisterActivity(executor.ExportContactData)
		w.RegisterActivity(executor.DeadLetterExport)
		w.RegisterActivity(executor.EraseContactData)
		w.RegisterActivity(executor.DeadLetterDeletion)

		if err := w.Start(); err != nil {
			logger.FatalCtx(ctx, "Failed to start worker", zap.Error(err), zap.String("task_queue", queue))
		}
		workers = append(workers, w)
		logger.InfoCtx(ctx, "Worker started", zap.String("task_queue", queue))
	}

	// Daily audit retention
	_, err = temporalClient.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:                    auditRetentionWorkflowID,
		TaskQueue:             cfg.Temporal.BulkTaskQueue,
		CronSchedule:          auditRetentionSchedule,
		WorkflowIDReusePolicy: enums.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
	}, workerCore.PurgeExpiredAuditLogs, cfg.Audit.RetentionDays)
	if err != nil && !temporal.IsAlreadyStarted(err) {
		logger.ErrorCtx(ctx, fmt.Errorf("failed to schedule audit retention: %w", err))
	} else {
		logger.InfoCtx(ctx, "Audit retention scheduled",
			zap.String("schedule", auditRetentionSchedule),
			zap.Int("retention_days", cfg.Audit.RetentionDays))
	}

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("Shutting down workers...")
	for _, w := range workers {
		w.Stop()
	}
	logger.Info("Workers stopped")
}
