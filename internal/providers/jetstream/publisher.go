package jetstream

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/feral-file/crm-bridge/internal/adapter"
	"github.com/feral-file/crm-bridge/internal/logger"
	"github.com/feral-file/crm-bridge/internal/messaging"
	"github.com/feral-file/crm-bridge/internal/webhook"
)

// DefaultSubjectPrefix is the subject prefix accepted webhooks are published under
const DefaultSubjectPrefix = "chatwoot.webhooks"

// Config holds the configuration for NATS JetStream connection
type Config struct {
	URL            string
	StreamName     string
	SubjectPrefix  string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectionName string
	// DuplicateWindow is how long the stream remembers message ids
	DuplicateWindow time.Duration
}

type publisher struct {
	nc     adapter.NatsConn
	js     adapter.JetStream
	config Config
	json   adapter.JSON
}

// ConnectOptions returns the connection options shared by publishers and consumers
func ConnectOptions(name string, maxReconnects int, reconnectWait time.Duration) []nats.Option {
	return []nats.Option{
		nats.Name(name),
		nats.MaxReconnects(maxReconnects),
		nats.ReconnectWait(reconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Error(err, zap.String("message", "Disconnected from NATS"))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("Reconnected to NATS", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}
}

// NewPublisher creates a new NATS JetStream publisher
func NewPublisher(cfg Config, natsJS adapter.NatsJetStream, jsonAdapter adapter.JSON) (messaging.Publisher, error) {
	if cfg.SubjectPrefix == "" {
		cfg.SubjectPrefix = DefaultSubjectPrefix
	}
	if cfg.DuplicateWindow == 0 {
		cfg.DuplicateWindow = 2 * time.Minute
	}

	nc, js, err := natsJS.Connect(cfg.URL, ConnectOptions(cfg.ConnectionName, cfg.MaxReconnects, cfg.ReconnectWait)...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS and create JetStream: %w", err)
	}

	return &publisher{
		nc:     nc,
		js:     js,
		config: cfg,
		json:   jsonAdapter,
	}, nil
}

// EnsureStream creates or updates the intake stream
func (p *publisher) EnsureStream(ctx context.Context) error {
	err := p.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:       p.config.StreamName,
		Subjects:   []string{messaging.SubjectFilter(p.config.SubjectPrefix)},
		Retention:  jetstream.WorkQueuePolicy,
		Storage:    jetstream.FileStorage,
		Duplicates: p.config.DuplicateWindow,
	})
	if err != nil {
		return fmt.Errorf("failed to create/update stream %s: %w", p.config.StreamName, err)
	}
	return nil
}

// PublishJob publishes an accepted webhook. The workflow id doubles as the message id,
// so redeliveries inside the duplicate window are dropped by the stream.
func (p *publisher) PublishJob(ctx context.Context, job *webhook.Job) error {
	data, err := p.json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	subject := messaging.Subject(p.config.SubjectPrefix, job)
	logger.DebugCtx(ctx, "Publishing webhook job",
		zap.String("subject", subject),
		zap.String("webhook_id", job.WebhookID))

	if _, err := p.js.Publish(ctx, subject, data, jetstream.WithMsgID(job.WorkflowID())); err != nil {
		return fmt.Errorf("failed to publish job: %w", err)
	}

	return nil
}

// Close closes the NATS connection
func (p *publisher) Close() {
	if p.nc == nil {
		return
	}

	p.nc.Close()
}
