package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loopwhile/firstppt/internal/session"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func newTestRouter(t *testing.T, m *Manager) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(sessions.Sessions(SessionCookieName, cookie.NewStore([]byte("test-secret"))))
	router.POST("/login", func(c *gin.Context) {
		csrf, err := m.Establish(c, 7, "Kim")
		if err != nil {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"csrf": csrf})
	})

	protected := router.Group("/p", m.RequireLogin(), m.VerifyCSRF())
	protected.GET("/me", func(c *gin.Context) {
		id, _ := MemberID(c)
		c.JSON(http.StatusOK, gin.H{"id": id, "name": DisplayName(c)})
	})
	protected.POST("/logout", func(c *gin.Context) {
		if err := m.Clear(c); err != nil {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusNoContent)
	})
	return router
}

func serve(router *gin.Engine, req *http.Request, cookies []*http.Cookie) *httptest.ResponseRecorder {
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, router *gin.Engine) ([]*http.Cookie, string) {
	t.Helper()
	rec := serve(router, httptest.NewRequest(http.MethodPost, "/login", nil), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	csrf := rec.Header().Get(CSRFHeader)
	require.NotEmpty(t, csrf)
	return rec.Result().Cookies(), csrf
}

func decodeCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	code, _ := payload["code"].(string)
	return code
}

func TestRequireLoginWithoutSession(t *testing.T) {
	m := NewManager(session.NewMemoryStore(0), 12*time.Hour, nil)
	router := newTestRouter(t, m)

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/p/me", nil), nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", decodeCode(t, rec))
}

func TestEstablishBindsMemberToSession(t *testing.T) {
	store := session.NewMemoryStore(0)
	m := NewManager(store, 12*time.Hour, nil)
	router := newTestRouter(t, m)

	cookies, _ := login(t, router)
	rec := serve(router, httptest.NewRequest(http.MethodGet, "/p/me", nil), cookies)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var payload struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, int64(7), payload.ID)
	assert.Equal(t, "Kim", payload.Name)
}

func TestLogoutRequiresCSRFAndRevokesToken(t *testing.T) {
	m := NewManager(session.NewMemoryStore(0), 12*time.Hour, nil)
	router := newTestRouter(t, m)
	cookies, csrf := login(t, router)

	rec := serve(router, httptest.NewRequest(http.MethodPost, "/p/logout", nil), cookies)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "CSRF_INVALID", decodeCode(t, rec))

	req := httptest.NewRequest(http.MethodPost, "/p/logout", nil)
	req.Header.Set(CSRFHeader, csrf)
	rec = serve(router, req, cookies)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// 古いクッキーを再送してもトークンは失効している
	rec = serve(router, httptest.NewRequest(http.MethodGet, "/p/me", nil), cookies)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "SESSION_EXPIRED", decodeCode(t, rec))
}

func TestRequireLoginMaxLifetime(t *testing.T) {
	clock := &testClock{now: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
	m := NewManager(session.NewMemoryStore(0), time.Hour, nil)
	m.now = clock.Now
	router := newTestRouter(t, m)
	cookies, _ := login(t, router)

	clock.now = clock.now.Add(2 * time.Hour)
	rec := serve(router, httptest.NewRequest(http.MethodGet, "/p/me", nil), cookies)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "SESSION_EXPIRED", decodeCode(t, rec))
}

func TestRequireLoginIdleTimeout(t *testing.T) {
	clock := &testClock{now: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
	m := NewManager(session.NewMemoryStore(0), 12*time.Hour, nil)
	m.now = clock.Now
	router := newTestRouter(t, m)
	cookies, _ := login(t, router)

	clock.now = clock.now.Add(defaultIdleTimeout + time.Minute)
	rec := serve(router, httptest.NewRequest(http.MethodGet, "/p/me", nil), cookies)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "SESSION_IDLE_TIMEOUT", decodeCode(t, rec))
}

func TestReadUnix(t *testing.T) {
	assert.Equal(t, int64(10), readUnix(int64(10)).Unix())
	assert.Equal(t, int64(10), readUnix(10).Unix())
	assert.Equal(t, int64(10), readUnix(float64(10)).Unix())
	assert.True(t, readUnix("x").IsZero())
}
