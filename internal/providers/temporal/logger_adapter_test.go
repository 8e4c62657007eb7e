package temporal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.temporal.io/sdk/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestToFields(t *testing.T) {
	fields := toFields([]interface{}{"workflow_id", "webhook-message_created-555", 42, "dropped", "error", errors.New("boom"), "dangling"})

	assert.Len(t, fields, 2)
	assert.Equal(t, "workflow_id", fields[0].Key)
	assert.Equal(t, "error", fields[1].Key)
}

func TestZapLoggerAdapter_With(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	adapter := NewZapLoggerAdapter(zap.New(core))

	withLogger, ok := adapter.(log.WithLogger)
	assert.True(t, ok)

	withLogger.With("task_queue", "webhooks-high").Info("started", "attempt", 1)

	entries := logs.All()
	assert.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "temporal", ctx["component"])
	assert.Equal(t, "webhooks-high", ctx["task_queue"])
	assert.EqualValues(t, 1, ctx["attempt"])
}
