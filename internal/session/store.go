// Package session はセッショントークンと会員IDの対応を管理します。
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
)

// ErrEmptyToken は空のトークンが渡された場合に返されます。
var ErrEmptyToken = errors.New("session token is empty")

// Store はセッショントークンを会員IDに結び付けるストアです。
// 有効期限はストア側のポリシーに従います。
type Store interface {
	Bind(ctx context.Context, token string, memberID int64) error
	Lookup(ctx context.Context, token string) (int64, bool, error)
	Revoke(ctx context.Context, token string) error
}

// NewToken はランダムなセッショントークンを生成します。
func NewToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
