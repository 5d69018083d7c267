// Package auth はログインセッションの確立と検証を提供します。
package auth

import (
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/loopwhile/firstppt/internal/session"
)

const (
	SessionCookieName    = "firstppt_session"
	sessionKeyToken      = "session_token"
	sessionKeyName       = "member_name"
	sessionKeyIssuedAt   = "issued_at"
	sessionKeyLastActive = "last_activity"
	sessionKeyCSRF       = "csrf_token"

	// CSRFHeader は CSRF トークンを受け渡すヘッダー名です。
	CSRFHeader = "X-CSRF-Token"
)

// ContextMemberIDKey はログイン済み会員IDを gin.Context で共有するためのキーです。
const ContextMemberIDKey = "auth.member_id"

var defaultIdleTimeout = 30 * time.Minute

// Manager はセッションの確立・検証・破棄を担います。
type Manager struct {
	store       session.Store
	maxLifetime time.Duration
	idleTimeout time.Duration
	logger      *slog.Logger
	now         func() time.Time
}

// NewManager は Manager を作成します。
func NewManager(store session.Store, maxLifetime time.Duration, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:       store,
		maxLifetime: maxLifetime,
		idleTimeout: defaultIdleTimeout,
		logger:      logger,
		now:         time.Now,
	}
}

// MaxAgeSeconds はクッキーの MaxAge に利用する秒数を返します。
func (m *Manager) MaxAgeSeconds() int {
	return int(m.maxLifetime.Seconds())
}

// Establish はログイン成功時にセッションを確立し、CSRF トークンを返します。
// トークンはセッションストアで会員IDに結び付けられ、クッキーにはトークンのみを保存します。
func (m *Manager) Establish(c *gin.Context, memberID int64, name string) (string, error) {
	token, err := session.NewToken()
	if err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	csrf, err := session.NewToken()
	if err != nil {
		return "", fmt.Errorf("generate csrf token: %w", err)
	}

	sess := sessions.Default(c)
	// 既存セッションのトークンは失効させる（セッション固定対策）
	if old, ok := sess.Get(sessionKeyToken).(string); ok && old != "" {
		if err := m.store.Revoke(c.Request.Context(), old); err != nil {
			m.logger.Warn("failed to revoke previous session", "error", err)
		}
	}

	if err := m.store.Bind(c.Request.Context(), token, memberID); err != nil {
		return "", err
	}

	now := m.now()
	sess.Clear()
	sess.Set(sessionKeyToken, token)
	sess.Set(sessionKeyName, name)
	sess.Set(sessionKeyIssuedAt, now.Unix())
	sess.Set(sessionKeyLastActive, now.Unix())
	sess.Set(sessionKeyCSRF, csrf)
	if err := sess.Save(); err != nil {
		_ = m.store.Revoke(c.Request.Context(), token)
		return "", fmt.Errorf("save session: %w", err)
	}

	c.Header(CSRFHeader, csrf)
	return csrf, nil
}

// Clear はセッションを破棄します。
func (m *Manager) Clear(c *gin.Context) error {
	sess := sessions.Default(c)
	if token, ok := sess.Get(sessionKeyToken).(string); ok && token != "" {
		if err := m.store.Revoke(c.Request.Context(), token); err != nil {
			return err
		}
	}
	sess.Clear()
	sess.Options(sessions.Options{Path: "/", MaxAge: -1})
	return sess.Save()
}

// MemberID は RequireLogin が設定した会員IDを返します。
func MemberID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(ContextMemberIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

// DisplayName はログイン時に保存した会員名を返します。
func DisplayName(c *gin.Context) string {
	name, _ := sessions.Default(c).Get(sessionKeyName).(string)
	return name
}

// RequireLogin はセッションを検証するミドルウェアを返します。
func (m *Manager) RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)
		token, ok := sess.Get(sessionKeyToken).(string)
		if !ok || token == "" {
			abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "login required")
			return
		}

		memberID, found, err := m.store.Lookup(c.Request.Context(), token)
		if err != nil {
			m.logger.Error("session lookup failed", "error", err)
			abort(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
			return
		}
		if !found {
			m.expire(sess)
			abort(c, http.StatusUnauthorized, "SESSION_EXPIRED", "session expired")
			return
		}

		now := m.now()
		issuedAt := readUnix(sess.Get(sessionKeyIssuedAt))
		lastActive := readUnix(sess.Get(sessionKeyLastActive))

		if issuedAt.IsZero() || now.Sub(issuedAt) > m.maxLifetime {
			_ = m.store.Revoke(c.Request.Context(), token)
			m.expire(sess)
			abort(c, http.StatusUnauthorized, "SESSION_EXPIRED", "session expired")
			return
		}

		if lastActive.IsZero() || now.Sub(lastActive) > m.idleTimeout {
			_ = m.store.Revoke(c.Request.Context(), token)
			m.expire(sess)
			abort(c, http.StatusUnauthorized, "SESSION_IDLE_TIMEOUT", "session idle timeout")
			return
		}

		sess.Set(sessionKeyLastActive, now.Unix())
		_ = sess.Save()
		c.Set(ContextMemberIDKey, memberID)
		c.Next()
	}
}

// VerifyCSRF は X-CSRF-Token ヘッダーを検証するミドルウェアです。
func (m *Manager) VerifyCSRF() gin.HandlerFunc {
	return func(c *gin.Context) {
		if isSafeMethod(c.Request.Method) {
			c.Next()
			return
		}

		sess := sessions.Default(c)
		expected, ok := sess.Get(sessionKeyCSRF).(string)
		if !ok || expected == "" {
			abort(c, http.StatusForbidden, "CSRF_MISSING", "csrf token is not set")
			return
		}

		received := c.GetHeader(CSRFHeader)
		if subtle.ConstantTimeCompare([]byte(expected), []byte(received)) != 1 {
			abort(c, http.StatusForbidden, "CSRF_INVALID", "csrf token mismatch")
			return
		}

		c.Next()
	}
}

func (m *Manager) expire(sess sessions.Session) {
	sess.Clear()
	if err := sess.Save(); err != nil {
		m.logger.Warn("failed to clear session cookie", "error", err)
	}
}

func abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"code":    code,
		"message": message,
	})
}

func readUnix(v interface{}) time.Time {
	switch t := v.(type) {
	case int64:
		return time.Unix(t, 0)
	case int:
		return time.Unix(int64(t), 0)
	case float64:
		return time.Unix(int64(t), 0)
	default:
		return time.Time{}
	}
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	default:
		return false
	}
}
