package bridge_test

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/crm-bridge/internal/adapter"
	"github.com/feral-file/crm-bridge/internal/bridge"
	"github.com/feral-file/crm-bridge/internal/domain"
	"github.com/feral-file/crm-bridge/internal/logger"
	mockspkg "github.com/feral-file/crm-bridge/internal/mocks"
	"github.com/feral-file/crm-bridge/internal/webhook"
)

func TestMain(m *testing.M) {
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

// testBridgeMocks contains all the mocks needed for testing the bridge
type testBridgeMocks struct {
	ctrl       *gomock.Controller
	natsJS     *mockspkg.MockNatsJetStream
	natsConn   *mockspkg.MockNatsConn
	jetStream  *mockspkg.MockJetStream
	dispatcher *mockspkg.MockDispatcher
}

func setupTestBridge(t *testing.T) *testBridgeMocks {
	ctrl := gomock.NewController(t)

	return &testBridgeMocks{
		ctrl:       ctrl,
		natsJS:     mockspkg.NewMockNatsJetStream(ctrl),
		natsConn:   mockspkg.NewMockNatsConn(ctrl),
		jetStream:  mockspkg.NewMockJetStream(ctrl),
		dispatcher: mockspkg.NewMockDispatcher(ctrl),
	}
}

func testConfig() bridge.Config {
	return bridge.Config{
		URL:            "nats://localhost:4222",
		StreamName:     "WEBHOOKS",
		ConsumerName:   "event-bridge",
		MaxReconnects:  10,
		ReconnectWait:  1 * time.Second,
		ConnectionName: "test-bridge",
		AckWaitTimeout: 30 * time.Second,
		MaxDeliver:     5,
	}
}

func newTestBridge(t *testing.T, mocks *testBridgeMocks) bridge.Bridge {
	mocks.natsJS.
		EXPECT().
		Connect("nats://localhost:4222", gomock.Any()).
		Return(mocks.natsConn, mocks.jetStream, nil)

	b, err := bridge.NewBridge(testConfig(), mocks.natsJS, mocks.dispatcher, adapter.NewJSON())
	require.NoError(t, err)
	require.NotNil(t, b)
	return b
}

func TestBridge_NewBridge_ConnectError(t *testing.T) {
	mocks := setupTestBridge(t)

	mocks.natsJS.
		EXPECT().
		Connect(gomock.Any(), gomock.Any()).
		Return(nil, nil, assert.AnError)

	b, err := bridge.NewBridge(testConfig(), mocks.natsJS, mocks.dispatcher, adapter.NewJSON())

	assert.Error(t, err)
	assert.Nil(t, b)
	assert.Contains(t, err.Error(), "failed to connect to NATS")
}

func TestBridge_Run_CreateConsumerError(t *testing.T) {
	mocks := setupTestBridge(t)
	b := newTestBridge(t, mocks)

	mocks.jetStream.
		EXPECT().
		CreateOrUpdateConsumer(gomock.Any(),
			"WEBHOOKS",
			jetstream.ConsumerConfig{
				Durable:       "event-bridge",
				AckPolicy:     jetstream.AckExplicitPolicy,
				AckWait:       30 * time.Second,
				MaxDeliver:    5,
				FilterSubject: "chatwoot.webhooks.>",
			}).
		Return(nil, assert.AnError)

	err := b.Run(context.Background())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create/update consumer")
}

func TestBridge_Run_ConsumerInfoError(t *testing.T) {
	mocks := setupTestBridge(t)
	b := newTestBridge(t, mocks)

	consumer := mockspkg.NewMockConsumer(mocks.ctrl)
	consumer.EXPECT().
		Info(gomock.Any()).
		Return(nil, assert.AnError)
	mocks.jetStream.
		EXPECT().
		CreateOrUpdateConsumer(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(consumer, nil)

	err := b.Run(context.Background())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get consumer info")
}

func TestBridge_Run_ConsumeError(t *testing.T) {
	mocks := setupTestBridge(t)
	b := newTestBridge(t, mocks)

	consumer := mockspkg.NewMockConsumer(mocks.ctrl)
	consumer.EXPECT().
		Info(gomock.Any()).
		Return(&jetstream.ConsumerInfo{Name: "event-bridge"}, nil)
	consumer.EXPECT().
		Consume(gomock.Any()).
		Return(nil, assert.AnError)
	mocks.jetStream.
		EXPECT().
		CreateOrUpdateConsumer(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(consumer, nil)

	err := b.Run(context.Background())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create subscription")
}

// runWithMessage starts the bridge, delivers msg and waits until it is settled
func runWithMessage(t *testing.T, mocks *testBridgeMocks, b bridge.Bridge, msg adapter.Message, settled <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consumer := mockspkg.NewMockConsumer(mocks.ctrl)
	consumeContext := mockspkg.NewMockConsumeContext(mocks.ctrl)
	consumeContext.EXPECT().Stop().AnyTimes()

	consumer.EXPECT().
		Info(gomock.Any()).
		Return(&jetstream.ConsumerInfo{Name: "event-bridge"}, nil)
	consumer.EXPECT().
		Consume(gomock.Any()).
		DoAndReturn(func(handler adapter.MessageHandler, opts ...jetstream.PullConsumeOpt) (adapter.ConsumeContext, error) {
			go handler(msg)
			return consumeContext, nil
		})
	mocks.jetStream.
		EXPECT().
		CreateOrUpdateConsumer(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(consumer, nil)

	errChan := make(chan error, 1)
	go func() {
		errChan <- b.Run(ctx)
	}()

	select {
	case <-settled:
	case <-time.After(5 * time.Second):
		t.Fatal("message was not settled")
	}
	cancel()

	select {
	case err := <-errChan:
		assert.Equal(t, context.Canceled, err)
	case <-time.After(5 * time.Second):
		t.Fatal("bridge did not stop")
	}
}

func jobBytes(t *testing.T, job webhook.Job) []byte {
	data, err := json.Marshal(job)
	require.NoError(t, err)
	return data
}

func TestBridge_HandleMessage_Dispatches(t *testing.T) {
	mocks := setupTestBridge(t)
	b := newTestBridge(t, mocks)

	job := webhook.Job{
		WebhookID:  "555",
		EventType:  domain.EventTypeMessageCreated,
		Payload:    json.RawMessage(`{"id":555,"conversation_id":42,"message_type":"incoming"}`),
		ReceivedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}

	settled := make(chan struct{})
	msg := mockspkg.NewMockJetStreamMessage(mocks.ctrl)
	msg.EXPECT().Metadata().Return(&jetstream.MsgMetadata{NumDelivered: 1}, nil)
	msg.EXPECT().Data().Return(jobBytes(t, job))
	msg.EXPECT().Ack().DoAndReturn(func() error {
		close(settled)
		return nil
	})

	mocks.dispatcher.EXPECT().
		Dispatch(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, got webhook.Job) (bool, error) {
			assert.Equal(t, job.WebhookID, got.WebhookID)
			assert.Equal(t, job.EventType, got.EventType)
			assert.JSONEq(t, string(job.Payload), string(got.Payload))
			return true, nil
		})

	runWithMessage(t, mocks, b, msg, settled)
}

func TestBridge_HandleMessage_AlreadyProcessedIsAcked(t *testing.T) {
	mocks := setupTestBridge(t)
	b := newTestBridge(t, mocks)

	job := webhook.Job{WebhookID: "42", EventType: domain.EventTypeConversationCreated, Payload: json.RawMessage(`{"id":42}`)}

	settled := make(chan struct{})
	msg := mockspkg.NewMockJetStreamMessage(mocks.ctrl)
	msg.EXPECT().Metadata().Return(&jetstream.MsgMetadata{NumDelivered: 3}, nil)
	msg.EXPECT().Data().Return(jobBytes(t, job))
	msg.EXPECT().Ack().DoAndReturn(func() error {
		close(settled)
		return nil
	})
	mocks.dispatcher.EXPECT().Dispatch(gomock.Any(), gomock.Any()).Return(false, nil)

	runWithMessage(t, mocks, b, msg, settled)
}

func TestBridge_HandleMessage_UnparseableIsTerminated(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "malformed json", data: []byte(`{not json`)},
		{name: "unsupported event", data: []byte(`{"webhook_id":"1","event_type":"contact_updated","payload":{}}`)},
		{name: "missing webhook id", data: []byte(`{"event_type":"message_created","payload":{}}`)},
		{name: "missing payload", data: []byte(`{"webhook_id":"1","event_type":"message_created"}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mocks := setupTestBridge(t)
			b := newTestBridge(t, mocks)

			settled := make(chan struct{})
			msg := mockspkg.NewMockJetStreamMessage(mocks.ctrl)
			msg.EXPECT().Metadata().Return(&jetstream.MsgMetadata{NumDelivered: 1}, nil)
			msg.EXPECT().Data().Return(tt.data)
			msg.EXPECT().Subject().Return("chatwoot.webhooks.message_created").AnyTimes()
			msg.EXPECT().Term().DoAndReturn(func() error {
				close(settled)
				return nil
			})

			runWithMessage(t, mocks, b, msg, settled)
		})
	}
}

func TestBridge_HandleMessage_DispatchErrorIsNaked(t *testing.T) {
	mocks := setupTestBridge(t)
	b := newTestBridge(t, mocks)

	job := webhook.Job{WebhookID: "42-resolved-abcdef", EventType: domain.EventTypeConversationStatusChanged, Payload: json.RawMessage(`{"id":42}`)}

	settled := make(chan struct{})
	msg := mockspkg.NewMockJetStreamMessage(mocks.ctrl)
	msg.EXPECT().Metadata().Return(nil, assert.AnError)
	msg.EXPECT().Data().Return(jobBytes(t, job))
	msg.EXPECT().Nak().DoAndReturn(func() error {
		close(settled)
		return nil
	})
	mocks.dispatcher.EXPECT().Dispatch(gomock.Any(), gomock.Any()).Return(false, assert.AnError)

	runWithMessage(t, mocks, b, msg, settled)
}

func TestBridge_Close(t *testing.T) {
	mocks := setupTestBridge(t)
	b := newTestBridge(t, mocks)

	mocks.natsConn.EXPECT().Close()

	b.Close()
}
