package messaging

import (
	"context"

	"github.com/feral-file/crm-bridge/internal/webhook"
)

// Publisher defines the interface for publishing accepted webhooks to the intake queue
//
//go:generate mockgen -source=publisher.go -destination=../mocks/publisher.go -package=mocks -mock_names=Publisher=MockPublisher
type Publisher interface {
	// EnsureStream creates or updates the intake stream
	EnsureStream(ctx context.Context) error
	// PublishJob publishes an accepted webhook job
	PublishJob(ctx context.Context, job *webhook.Job) error
	// Close closes the connection
	Close()
}

// Subject returns the subject a job is published under
func Subject(prefix string, job *webhook.Job) string {
	return prefix + "." + string(job.EventType)
}

// SubjectFilter returns the wildcard subject matching every job under prefix
func SubjectFilter(prefix string) string {
	return prefix + ".>"
}
