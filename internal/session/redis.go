package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "session:"

// RedisStore はセッションを Redis に保存します。
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore は RedisStore を作成します。
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		rdb: rdb,
		ttl: ttl,
	}
}

// Bind はトークンに会員IDを結び付けます。
func (s *RedisStore) Bind(ctx context.Context, token string, memberID int64) error {
	if token == "" {
		return ErrEmptyToken
	}
	if err := s.rdb.Set(ctx, sessionKey(token), memberID, s.ttl).Err(); err != nil {
		return fmt.Errorf("bind session: %w", err)
	}
	return nil
}

// Lookup はトークンに対応する会員IDを返します。存在しない場合は false を返します。
func (s *RedisStore) Lookup(ctx context.Context, token string) (int64, bool, error) {
	if token == "" {
		return 0, false, nil
	}
	id, err := s.rdb.Get(ctx, sessionKey(token)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("lookup session: %w", err)
	}
	return id, true, nil
}

// Revoke はトークンを削除します。
func (s *RedisStore) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.rdb.Del(ctx, sessionKey(token)).Err(); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func sessionKey(token string) string {
	return keyPrefix + token
}
