package bridge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/feral-file/crm-bridge/internal/adapter"
	"github.com/feral-file/crm-bridge/internal/domain"
	"github.com/feral-file/crm-bridge/internal/logger"
	"github.com/feral-file/crm-bridge/internal/messaging"
	natsjs "github.com/feral-file/crm-bridge/internal/providers/jetstream"
	"github.com/feral-file/crm-bridge/internal/webhook"
)

const (
	DEFAULT_WORKER_POOL_SIZE  = 20
	DEFAULT_WORKER_QUEUE_SIZE = 200
)

// Config holds the configuration for the event bridge
type Config struct {
	URL             string
	StreamName      string
	SubjectPrefix   string
	ConsumerName    string
	MaxReconnects   int
	ReconnectWait   time.Duration
	ConnectionName  string
	AckWaitTimeout  time.Duration
	MaxDeliver      int
	WorkerPoolSize  int
	WorkerQueueSize int
}

// Bridge defines the interface for the event bridge
type Bridge interface {
	// Run starts the event bridge
	Run(ctx context.Context) error
	// Close closes the bridge and cleans up resources
	Close()
}

type bridge struct {
	nc         adapter.NatsConn
	js         adapter.JetStream
	dispatcher Dispatcher
	json       adapter.JSON
	config     Config
}

// NewBridge creates a new event bridge
func NewBridge(
	cfg Config,
	natsJS adapter.NatsJetStream,
	dispatcher Dispatcher,
	jsonAdapter adapter.JSON,
) (Bridge, error) {
	if cfg.SubjectPrefix == "" {
		cfg.SubjectPrefix = natsjs.DefaultSubjectPrefix
	}
	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = DEFAULT_WORKER_POOL_SIZE
	}
	if cfg.WorkerQueueSize <= 0 {
		cfg.WorkerQueueSize = DEFAULT_WORKER_QUEUE_SIZE
	}

	nc, js, err := natsJS.Connect(cfg.URL, natsjs.ConnectOptions(cfg.ConnectionName, cfg.MaxReconnects, cfg.ReconnectWait)...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS and create JetStream: %w", err)
	}

	return &bridge{
		nc:         nc,
		js:         js,
		dispatcher: dispatcher,
		json:       jsonAdapter,
		config:     cfg,
	}, nil
}

// ConsumerConfig returns the durable consumer the bridge reads from
func (c Config) ConsumerConfig() jetstream.ConsumerConfig {
	prefix := c.SubjectPrefix
	if prefix == "" {
		prefix = natsjs.DefaultSubjectPrefix
	}
	return jetstream.ConsumerConfig{
		Durable:       c.ConsumerName,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       c.AckWaitTimeout,
		MaxDeliver:    c.MaxDeliver,
		FilterSubject: messaging.SubjectFilter(prefix),
	}
}

// Run starts the event bridge
func (b *bridge) Run(ctx context.Context) error {
	logger.InfoCtx(ctx, "Starting event bridge",
		zap.String("stream", b.config.StreamName),
		zap.String("consumer", b.config.ConsumerName))

	consumer, err := b.js.CreateOrUpdateConsumer(ctx, b.config.StreamName, b.config.ConsumerConfig())
	if err != nil {
		return fmt.Errorf("failed to create/update consumer: %w", err)
	}

	consumerInfo, err := consumer.Info(ctx)
	if err != nil {
		return fmt.Errorf("failed to get consumer info: %w", err)
	}
	logger.InfoCtx(ctx, "Consumer created/retrieved",
		zap.String("consumer", consumerInfo.Name),
		zap.Uint64("pending", consumerInfo.NumPending))

	pool := pond.NewPool(
		b.config.WorkerPoolSize,
		pond.WithQueueSize(b.config.WorkerQueueSize),
		pond.WithContext(ctx),
	)
	defer func() {
		pool.StopAndWait()
		logger.InfoCtx(ctx, "Event bridge worker pool stopped",
			zap.Uint64("submitted", pool.SubmittedTasks()),
			zap.Uint64("completed", pool.CompletedTasks()))
	}()

	sub, err := consumer.Consume(func(msg adapter.Message) {
		pool.Submit(func() {
			b.handleMessage(ctx, msg)
		})
	})
	if err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	defer sub.Stop()

	logger.InfoCtx(ctx, "Started consuming messages")

	<-ctx.Done()
	logger.InfoCtx(ctx, "Shutting down event bridge")
	return ctx.Err()
}

// decodeJob parses and checks a queued job
func (b *bridge) decodeJob(data []byte) (*webhook.Job, error) {
	var job webhook.Job
	if err := b.json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if _, err := domain.NewEventType(string(job.EventType)); err != nil {
		return nil, err
	}
	if job.WebhookID == "" {
		return nil, fmt.Errorf("%w: webhook id is required", domain.ErrValidation)
	}
	if len(job.Payload) == 0 {
		return nil, fmt.Errorf("%w: payload is required", domain.ErrValidation)
	}
	return &job, nil
}

// handleMessage processes a single NATS message
func (b *bridge) handleMessage(ctx context.Context, msg adapter.Message) {
	var delivered uint64
	if metadata, err := msg.Metadata(); err == nil && metadata != nil {
		delivered = metadata.NumDelivered
	}

	job, err := b.decodeJob(msg.Data())
	if err != nil {
		logger.ErrorCtx(ctx, errors.New("failed to decode webhook job"),
			zap.String("subject", msg.Subject()),
			zap.Error(err))
		// Unparseable jobs never succeed
		if err := msg.Term(); err != nil {
			logger.ErrorCtx(ctx, errors.New("failed to terminate message"), zap.Error(err))
		}
		return
	}

	logger.InfoCtx(ctx, "Received webhook job",
		zap.String("event_type", string(job.EventType)),
		zap.String("webhook_id", job.WebhookID),
		zap.Uint64("delivery_count", delivered))

	if _, err := b.dispatcher.Dispatch(ctx, *job); err != nil {
		logger.ErrorCtx(ctx, errors.New("failed to forward webhook job to worker"),
			zap.String("webhook_id", job.WebhookID),
			zap.Error(err))
		if err := msg.Nak(); err != nil {
			logger.ErrorCtx(ctx, errors.New("failed to NAK message"), zap.Error(err))
		}
		return
	}

	if err := msg.Ack(); err != nil {
		logger.ErrorCtx(ctx, errors.New("failed to ACK message"), zap.Error(err))
	}
}

// Close closes the bridge and cleans up resources
func (b *bridge) Close() {
	if b.nc == nil {
		return
	}

	b.nc.Close()
}
