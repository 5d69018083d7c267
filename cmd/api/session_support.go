package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/loopwhile/firstppt/internal/config"
	"github.com/loopwhile/firstppt/internal/session"
)

// setupSessionStore はセッショントークンの保存先を用意します。
// SESSION_REDIS_URL が空の場合はプロセス内のメモリに保存します。
func setupSessionStore(cfg *config.Config, logger *slog.Logger) (session.Store, func(), error) {
	if cfg.SessionRedisURL == "" {
		logger.Warn("SESSION_REDIS_URL is not set; sessions are kept in memory")
		return session.NewMemoryStore(cfg.SessionMaxAge), func() {}, nil
	}

	opt, err := redis.ParseURL(cfg.SessionRedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse SESSION_REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("ping session redis: %w", err)
	}

	logger.Info("session store connected", "addr", opt.Addr, "db", opt.DB)
	return session.NewRedisStore(rdb, cfg.SessionMaxAge), func() { _ = rdb.Close() }, nil
}
