package bridge_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"github.com/feral-file/crm-bridge/internal/bridge"
	"github.com/feral-file/crm-bridge/internal/domain"
	mockspkg "github.com/feral-file/crm-bridge/internal/mocks"
	"github.com/feral-file/crm-bridge/internal/webhook"
)

var queues = bridge.Queues{High: "webhooks-high", Normal: "webhooks"}

func TestQueues_QueueFor(t *testing.T) {
	assert.Equal(t, "webhooks-high", queues.QueueFor(webhook.Job{EventType: domain.EventTypeMessageCreated}))
	assert.Equal(t, "webhooks-high", queues.QueueFor(webhook.Job{EventType: domain.EventTypeConversationCreated}))
	assert.Equal(t, "webhooks-high", queues.QueueFor(webhook.Job{EventType: domain.EventTypeContactCreated}))
	assert.Equal(t, "webhooks", queues.QueueFor(webhook.Job{EventType: domain.EventTypeConversationStatusChanged}))
}

func TestDispatcher_Dispatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	orchestrator := mockspkg.NewMockTemporalOrchestrator(ctrl)
	run := mockspkg.NewMockWorkflowRun(ctrl)
	run.EXPECT().GetID().Return("webhook-message_created-555").AnyTimes()
	run.EXPECT().GetRunID().Return("run-1").AnyTimes()

	job := webhook.Job{WebhookID: "555", EventType: domain.EventTypeMessageCreated, Payload: json.RawMessage(`{}`)}

	orchestrator.EXPECT().
		ExecuteWorkflow(gomock.Any(), gomock.Any(), gomock.Any(), job).
		DoAndReturn(func(_ context.Context, options client.StartWorkflowOptions, _ interface{}, _ ...interface{}) (client.WorkflowRun, error) {
			assert.Equal(t, "webhook-message_created-555", options.ID)
			assert.Equal(t, "webhooks-high", options.TaskQueue)
			assert.Equal(t, enums.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE_FAILED_ONLY, options.WorkflowIDReusePolicy)
			return run, nil
		})

	started, err := bridge.NewDispatcher(orchestrator, queues).Dispatch(context.Background(), job)
	require.NoError(t, err)
	assert.True(t, started)
}

func TestDispatcher_Dispatch_Replay(t *testing.T) {
	ctrl := gomock.NewController(t)
	orchestrator := mockspkg.NewMockTemporalOrchestrator(ctrl)
	run := mockspkg.NewMockWorkflowRun(ctrl)
	run.EXPECT().GetID().Return("").AnyTimes()
	run.EXPECT().GetRunID().Return("").AnyTimes()

	replayOf := uint64(17)
	job := webhook.Job{WebhookID: "42-resolved-abcdef", EventType: domain.EventTypeConversationStatusChanged, ReplayOf: &replayOf}

	orchestrator.EXPECT().
		ExecuteWorkflow(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, options client.StartWorkflowOptions, _ interface{}, _ ...interface{}) (client.WorkflowRun, error) {
			assert.Equal(t, "webhook-conversation_status_changed-42-resolved-abcdef-replay-17", options.ID)
			assert.Equal(t, "webhooks", options.TaskQueue)
			return run, nil
		})

	started, err := bridge.NewDispatcher(orchestrator, queues).Dispatch(context.Background(), job)
	require.NoError(t, err)
	assert.True(t, started)
}

func TestDispatcher_Dispatch_AlreadyCompleted(t *testing.T) {
	ctrl := gomock.NewController(t)
	orchestrator := mockspkg.NewMockTemporalOrchestrator(ctrl)

	orchestrator.EXPECT().
		ExecuteWorkflow(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, serviceerror.NewWorkflowExecutionAlreadyStarted("already started", "", ""))

	started, err := bridge.NewDispatcher(orchestrator, queues).
		Dispatch(context.Background(), webhook.Job{WebhookID: "42", EventType: domain.EventTypeConversationCreated})
	require.NoError(t, err)
	assert.False(t, started)
}

func TestDispatcher_Dispatch_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	orchestrator := mockspkg.NewMockTemporalOrchestrator(ctrl)

	orchestrator.EXPECT().
		ExecuteWorkflow(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, assert.AnError)

	started, err := bridge.NewDispatcher(orchestrator, queues).
		Dispatch(context.Background(), webhook.Job{WebhookID: "42", EventType: domain.EventTypeConversationCreated})
	assert.Error(t, err)
	assert.False(t, started)
}
