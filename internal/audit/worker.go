package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Worker はキューからイベントを受け取り、データベースに記録します。
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	db     *gorm.DB
	logger *slog.Logger
}

// NewWorker は Worker を初期化します。
func NewWorker(opt asynq.RedisConnOpt, db *gorm.DB, logger *slog.Logger) (*Worker, error) {
	if db == nil {
		return nil, errors.New("db is nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	server := asynq.NewServer(
		opt,
		asynq.Config{
			Concurrency: 2,
			Queues: map[string]int{
				queueName: 1,
			},
		},
	)

	w := &Worker{
		server: server,
		mux:    asynq.NewServeMux(),
		db:     db,
		logger: logger,
	}
	w.mux.HandleFunc(taskTypeMemberEvent, w.handleTask)
	return w, nil
}

// Start は asynq サーバーをバックグラウンドで起動します。
func (w *Worker) Start() {
	go func() {
		if err := w.server.Run(w.mux); err != nil && !errors.Is(err, asynq.ErrServerClosed) {
			w.logger.Error("audit worker stopped with error", "error", err)
		}
	}()
}

// Shutdown はサーバーを停止します。
func (w *Worker) Shutdown() {
	w.server.Shutdown()
}

func (w *Worker) handleTask(ctx context.Context, task *asynq.Task) error {
	var ev Event
	if err := json.Unmarshal(task.Payload(), &ev); err != nil {
		return fmt.Errorf("decode audit event: %v: %w", err, asynq.SkipRetry)
	}
	if ev.ID == "" {
		return fmt.Errorf("missing event id: %w", asynq.SkipRetry)
	}
	return w.record(ctx, ev)
}

// record はイベントを保存します。同じ ID の再配送は無視します。
func (w *Worker) record(ctx context.Context, ev Event) error {
	rec := EventRecord{
		ID:         ev.ID,
		Type:       string(ev.Type),
		MemberID:   ev.MemberID,
		Email:      ev.Email,
		OccurredAt: ev.OccurredAt,
	}
	err := w.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rec).Error
	if err != nil {
		return fmt.Errorf("record audit event %s: %w", ev.ID, err)
	}
	return nil
}
