package jetstream_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/crm-bridge/internal/adapter"
	"github.com/feral-file/crm-bridge/internal/domain"
	"github.com/feral-file/crm-bridge/internal/messaging"
	"github.com/feral-file/crm-bridge/internal/mocks"
	natsjs "github.com/feral-file/crm-bridge/internal/providers/jetstream"
	"github.com/feral-file/crm-bridge/internal/webhook"
)

func setupPublisher(t *testing.T) (*mocks.MockJetStream, *mocks.MockNatsConn, func() (messaging.Publisher, error)) {
	ctrl := gomock.NewController(t)
	natsJS := mocks.NewMockNatsJetStream(ctrl)
	conn := mocks.NewMockNatsConn(ctrl)
	js := mocks.NewMockJetStream(ctrl)

	natsJS.EXPECT().Connect("nats://localhost:4222", gomock.Any()).Return(conn, js, nil)

	return js, conn, func() (messaging.Publisher, error) {
		return natsjs.NewPublisher(natsjs.Config{
			URL:            "nats://localhost:4222",
			StreamName:     "WEBHOOKS",
			ConnectionName: "api",
		}, natsJS, adapter.NewJSON())
	}
}

func TestPublisher_EnsureStream(t *testing.T) {
	js, _, build := setupPublisher(t)
	p, err := build()
	require.NoError(t, err)

	js.EXPECT().CreateOrUpdateStream(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, cfg jetstream.StreamConfig) error {
			assert.Equal(t, "WEBHOOKS", cfg.Name)
			assert.Equal(t, []string{"chatwoot.webhooks.>"}, cfg.Subjects)
			assert.Equal(t, jetstream.WorkQueuePolicy, cfg.Retention)
			assert.Equal(t, 2*time.Minute, cfg.Duplicates)
			return nil
		})

	require.NoError(t, p.EnsureStream(context.Background()))
}

func TestPublisher_PublishJob(t *testing.T) {
	js, conn, build := setupPublisher(t)
	p, err := build()
	require.NoError(t, err)

	job := &webhook.Job{
		WebhookID: "555",
		EventType: domain.EventTypeMessageCreated,
		Payload:   json.RawMessage(`{"id":555}`),
	}

	js.EXPECT().Publish(gomock.Any(), "chatwoot.webhooks.message_created", gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
			var got webhook.Job
			require.NoError(t, json.Unmarshal(data, &got))
			assert.Equal(t, "555", got.WebhookID)
			assert.Len(t, opts, 1)
			return &jetstream.PubAck{Stream: "WEBHOOKS", Sequence: 1}, nil
		})
	require.NoError(t, p.PublishJob(context.Background(), job))

	js.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, assert.AnError)
	err = p.PublishJob(context.Background(), job)
	assert.ErrorContains(t, err, "failed to publish job")

	conn.EXPECT().Close()
	p.Close()
}
