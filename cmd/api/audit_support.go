package main

import (
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	redis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/loopwhile/firstppt/internal/audit"
	"github.com/loopwhile/firstppt/internal/config"
)

// setupAudit は監査イベントの発行先とワーカーを用意します。
// QUEUE_REDIS_URL が空の場合はログ出力のみ行います。
func setupAudit(cfg *config.Config, db *gorm.DB, logger *slog.Logger) (audit.Publisher, func(), error) {
	if cfg.QueueRedisURL == "" {
		return audit.NewLogPublisher(logger), func() {}, nil
	}

	opt, err := queueConnOpt(cfg.QueueRedisURL)
	if err != nil {
		return nil, nil, err
	}

	worker, err := audit.NewWorker(opt, db, logger)
	if err != nil {
		return nil, nil, err
	}
	worker.Start()

	publisher := audit.NewQueuePublisher(opt)
	stop := func() {
		worker.Shutdown()
		if err := publisher.Close(); err != nil {
			logger.Warn("failed to close audit publisher", "error", err)
		}
	}
	return publisher, stop, nil
}

func queueConnOpt(rawURL string) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return asynq.RedisClientOpt{}, fmt.Errorf("parse QUEUE_REDIS_URL: %w", err)
	}
	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Username:  opt.Username,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: opt.TLSConfig,
	}, nil
}
