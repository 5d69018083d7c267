package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
)

const (
	taskTypeMemberEvent = "audit:member_event"
	queueName           = "audit"
)

// QueuePublisher はイベントを asynq キューに投入します。
type QueuePublisher struct {
	client *asynq.Client
}

// NewQueuePublisher は QueuePublisher を作成します。
func NewQueuePublisher(opt asynq.RedisConnOpt) *QueuePublisher {
	return &QueuePublisher{client: asynq.NewClient(opt)}
}

// Publish はイベントをキューに投入します。
func (p *QueuePublisher) Publish(ctx context.Context, ev Event) error {
	task, err := newTask(ev)
	if err != nil {
		return err
	}
	if _, err := p.client.EnqueueContext(ctx, task, asynq.MaxRetry(3)); err != nil {
		return fmt.Errorf("enqueue audit event: %w", err)
	}
	return nil
}

// Close はクライアントを閉じます。
func (p *QueuePublisher) Close() error {
	return p.client.Close()
}

func newTask(ev Event) (*asynq.Task, error) {
	if ev.ID == "" {
		return nil, fmt.Errorf("event id is required")
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskTypeMemberEvent, body, asynq.Queue(queueName)), nil
}

// LogPublisher はキューを使わずにイベントをログへ出力します。
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher は LogPublisher を作成します。
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, ev Event) error {
	p.logger.InfoContext(ctx, "audit event",
		"event_id", ev.ID,
		"type", ev.Type,
		"member_id", ev.MemberID,
	)
	return nil
}
