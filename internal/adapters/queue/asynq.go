// internal/adapters/queue/asynq.go
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/stockledger/internal/core/ports"
)

// Queue names, highest priority first
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// Publisher enqueues ledger tasks on asynq
type Publisher struct {
	client *asynq.Client
	logger *slog.Logger
}

var _ ports.TaskPublisher = (*Publisher)(nil)

// NewPublisher creates a new task publisher
func NewPublisher(client *asynq.Client, logger *slog.Logger) *Publisher {
	return &Publisher{
		client: client,
		logger: logger.With(slog.String("component", "task_publisher")),
	}
}

// NewTask encodes payload as JSON and picks the queue options of taskType
func NewTask(taskType string, payload interface{}) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal %s payload: %w", taskType, err)
	}
	return asynq.NewTask(taskType, b), TaskOptions(taskType), nil
}

// TaskOptions returns the queue, retry and retention policy of a task type
func TaskOptions(taskType string) []asynq.Option {
	switch taskType {
	case ports.TaskApprovalRequested:
		return []asynq.Option{asynq.Queue(QueueCritical), asynq.MaxRetry(5), asynq.Retention(24 * time.Hour)}
	case ports.TaskReconcile:
		return []asynq.Option{asynq.Queue(QueueDefault), asynq.MaxRetry(3), asynq.Timeout(2 * time.Minute)}
	case ports.TaskExport:
		return []asynq.Option{asynq.Queue(QueueLow), asynq.MaxRetry(3), asynq.Timeout(10 * time.Minute), asynq.Retention(7 * 24 * time.Hour)}
	case ports.TaskCloseStaleSessions:
		return []asynq.Option{asynq.Queue(QueueLow), asynq.MaxRetry(1), asynq.Unique(time.Hour)}
	}
	return []asynq.Option{asynq.Queue(QueueDefault)}
}

// Enqueue publishes a task and returns its id
func (p *Publisher) Enqueue(ctx context.Context, taskType string, payload interface{}) (string, error) {
	task, opts, err := NewTask(taskType, payload)
	if err != nil {
		return "", err
	}

	info, err := p.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue %s: %w", taskType, err)
	}

	p.logger.DebugContext(ctx, "task enqueued",
		slog.String("type", taskType),
		slog.String("task_id", info.ID),
		slog.String("queue", info.Queue))

	return info.ID, nil
}

// Close releases the underlying client
func (p *Publisher) Close() error {
	return p.client.Close()
}
