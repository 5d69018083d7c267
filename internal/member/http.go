package member

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/loopwhile/firstppt/internal/audit"
	"github.com/loopwhile/firstppt/internal/auth"
	"github.com/loopwhile/firstppt/internal/logging"
	"github.com/loopwhile/firstppt/internal/metrics"
)

// レスポンスメッセージ
const (
	msgSignupComplete  = "signup complete"
	msgDuplicateEmail  = "email already registered"
	msgLoginSuccess    = "login success"
	msgLoginFailed     = "login failed"
	msgEmailDuplicate  = "duplicate"
	msgEmailAvailable  = "available"
	msgAccountFound    = "account found"
	msgAccountNotFound = "account not found"
	msgLogoutComplete  = "logout complete"
	msgInvalidBody     = "invalid request body"
	msgEmailRequired   = "email query parameter is required"
	msgInternalError   = "internal error"
)

// Envelope は API 共通のレスポンス形式です。
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Profile はログイン中の会員情報です。
type Profile struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Handler は /api/members 配下のハンドラーをまとめた構造体です。
type Handler struct {
	svc    *Service
	auth   *auth.Manager
	events audit.Publisher
	logger *slog.Logger
}

// NewHandler は Handler を作成します。
func NewHandler(svc *Service, authManager *auth.Manager, events audit.Publisher, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if events == nil {
		events = audit.NewLogPublisher(logger)
	}
	return &Handler{
		svc:    svc,
		auth:   authManager,
		events: events,
		logger: logger,
	}
}

// RegisterRoutes はルートを登録します。
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	members := api.Group("/members")
	{
		members.POST("/signup", h.Signup)
		// ログイン時はセッション未生成なので CSRF 検証は不要
		members.POST("/login", h.Login)
		members.GET("/check-email", h.CheckEmail)
		members.POST("/find-account", h.FindAccount)

		protected := members.Group("")
		protected.Use(h.auth.RequireLogin(), h.auth.VerifyCSRF())
		{
			protected.GET("/me", h.Me)
			protected.POST("/logout", h.Logout)
		}
	}
}

// Signup は POST /api/members/signup のハンドラーです。
func (h *Handler) Signup(c *gin.Context) {
	var payload signupPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, Envelope{Message: msgInvalidBody})
		return
	}

	saved, err := h.svc.Signup(c.Request.Context(), payload.toRequest())
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			metrics.RecordSignup(metrics.ResultDuplicate)
			c.JSON(http.StatusOK, Envelope{Message: msgDuplicateEmail})
			return
		}
		metrics.RecordSignup(metrics.ResultError)
		h.internalError(c, "signup failed", err)
		return
	}

	metrics.RecordSignup(metrics.ResultSuccess)
	h.publish(c.Request.Context(), audit.NewEvent(audit.EventSignedUp, saved.ID, saved.Email))
	c.JSON(http.StatusOK, Envelope{Success: true, Message: msgSignupComplete, Data: saved.ID})
}

// Login は POST /api/members/login のハンドラーです。
// 会員不在とパスワード不一致は同じメッセージで返します。
func (h *Handler) Login(c *gin.Context) {
	var payload loginPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, Envelope{Message: msgInvalidBody})
		return
	}
	email := string(payload.Email)

	m, err := h.svc.Authenticate(c.Request.Context(), email, string(payload.Password))
	if err != nil {
		switch {
		case errors.Is(err, ErrAccountNotFound):
			metrics.RecordLogin(metrics.ResultNotFound)
		case errors.Is(err, ErrInvalidCredentials):
			metrics.RecordLogin(metrics.ResultInvalidCredentials)
		default:
			metrics.RecordLogin(metrics.ResultError)
			h.internalError(c, "login failed", err)
			return
		}
		h.publish(c.Request.Context(), audit.NewEvent(audit.EventLoginFailed, 0, email))
		c.JSON(http.StatusOK, Envelope{Message: msgLoginFailed})
		return
	}

	if _, err := h.auth.Establish(c, m.ID, m.Name); err != nil {
		metrics.RecordLogin(metrics.ResultError)
		h.internalError(c, "session establish failed", err)
		return
	}

	metrics.RecordLogin(metrics.ResultSuccess)
	h.publish(c.Request.Context(), audit.NewEvent(audit.EventLoggedIn, m.ID, m.Email))
	c.JSON(http.StatusOK, Envelope{Success: true, Message: msgLoginSuccess, Data: m.Name})
}

// CheckEmail は GET /api/members/check-email のハンドラーです。
// 重複していても success は true です。
func (h *Handler) CheckEmail(c *gin.Context) {
	email, ok := c.GetQuery("email")
	if !ok {
		c.JSON(http.StatusBadRequest, Envelope{Message: msgEmailRequired})
		return
	}

	duplicated, err := h.svc.IsEmailRegistered(c.Request.Context(), email)
	if err != nil {
		metrics.RecordEmailCheck(metrics.ResultError)
		h.internalError(c, "email check failed", err)
		return
	}

	message := msgEmailAvailable
	result := metrics.ResultAvailable
	if duplicated {
		message = msgEmailDuplicate
		result = metrics.ResultRegistered
	}
	metrics.RecordEmailCheck(result)
	c.JSON(http.StatusOK, Envelope{Success: true, Message: message, Data: duplicated})
}

// FindAccount は POST /api/members/find-account のハンドラーです。
// 名前と電話番号が一致した会員のメールアドレスをマスクして返します。
func (h *Handler) FindAccount(c *gin.Context) {
	var payload findAccountPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, Envelope{Message: msgInvalidBody})
		return
	}

	m, err := h.svc.FindByNameAndPhone(c.Request.Context(), string(payload.Name), string(payload.PhoneNumber))
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			c.JSON(http.StatusOK, Envelope{Message: msgAccountNotFound})
			return
		}
		h.internalError(c, "find account failed", err)
		return
	}

	c.JSON(http.StatusOK, Envelope{Success: true, Message: msgAccountFound, Data: maskEmail(m.Email)})
}

// Me は GET /api/members/me のハンドラーです。
func (h *Handler) Me(c *gin.Context) {
	id, _ := auth.MemberID(c)
	c.JSON(http.StatusOK, Envelope{
		Success: true,
		Message: "ok",
		Data:    Profile{ID: id, Name: auth.DisplayName(c)},
	})
}

// Logout は POST /api/members/logout のハンドラーです。
func (h *Handler) Logout(c *gin.Context) {
	id, _ := auth.MemberID(c)
	if err := h.auth.Clear(c); err != nil {
		h.internalError(c, "logout failed", err)
		return
	}
	h.publish(c.Request.Context(), audit.NewEvent(audit.EventLoggedOut, id, ""))
	c.JSON(http.StatusOK, Envelope{Success: true, Message: msgLogoutComplete})
}

func (h *Handler) publish(ctx context.Context, ev audit.Event) {
	if err := h.events.Publish(ctx, ev); err != nil {
		h.logger.Warn("failed to publish audit event", "type", ev.Type, "error", err)
	}
}

func (h *Handler) internalError(c *gin.Context, msg string, err error) {
	logging.LogError(h.logger, msg, err)
	c.JSON(http.StatusInternalServerError, Envelope{Message: msgInternalError})
}

// maskEmail はローカル部の先頭1文字以外を * に置き換えます。
func maskEmail(email string) string {
	local, domain, found := strings.Cut(email, "@")
	runes := []rune(local)
	if len(runes) == 0 {
		return email
	}
	masked := string(runes[0]) + strings.Repeat("*", len(runes)-1)
	if !found {
		return masked
	}
	return masked + "@" + domain
}
