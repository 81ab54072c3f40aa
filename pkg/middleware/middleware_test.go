package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rightmycv/pkg/middleware"
	"rightmycv/pkg/utils"
)

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestThrottlerAllowsLimitPerKey(t *testing.T) {
	th := middleware.NewThrottler(3, time.Minute)

	for i := 0; i < 3; i++ {
		assert.True(t, th.Allow("1.1.1.1"), "request %d", i)
	}
	assert.False(t, th.Allow("1.1.1.1"))
	assert.True(t, th.Allow("2.2.2.2"))
}

func TestThrottlerMiddlewareReturns429(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ping", middleware.NewThrottler(1, time.Minute).Middleware(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusNoContent, serve(r, req).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(r, req).Code)
}

func TestJWTAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	secret := []byte("s3cret")
	userID := uuid.New()

	r := gin.New()
	r.GET("/me", middleware.JWTAuthMiddleware(secret), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("user_id")+"|"+c.GetString("Role"))
	})
	r.GET("/admin", middleware.JWTAuthMiddleware(secret), middleware.RoleMiddleware(utils.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	token, err := utils.CreateToken(secret, userID, "user", time.Hour)
	require.NoError(t, err)

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := serve(r, req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, userID.String()+"|user", w.Body.String())
	})

	t.Run("missing header", func(t *testing.T) {
		w := serve(r, httptest.NewRequest(http.MethodGet, "/me", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := utils.CreateToken([]byte("other"), userID, "user", time.Hour)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+other)
		assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)
	})

	t.Run("expired", func(t *testing.T) {
		expired, err := utils.CreateToken(secret, userID, "user", -time.Minute)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+expired)
		assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)
	})

	t.Run("role required", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		assert.Equal(t, http.StatusForbidden, serve(r, req).Code)
	})
}

func TestTraceIDAndRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.TraceIDMiddleware(), middleware.RequestLogger(zap.NewNop()))

	var gotTrace string
	var gotLogger bool
	r.GET("/x", func(c *gin.Context) {
		gotTrace = c.GetString("trace_id")
		_, gotLogger = c.Get(utils.LoggerKey)
		c.Status(http.StatusOK)
	})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/x", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, gotTrace)
	assert.Equal(t, gotTrace, w.Header().Get("X-Trace-ID"))
	assert.True(t, gotLogger)
}

func TestTraceIDPropagatesCallerValue(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.TraceIDMiddleware())
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("trace_id")) })

	incoming := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(middleware.TraceIDHeader, incoming)
	w := serve(r, req)
	assert.Equal(t, incoming, w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(middleware.TraceIDHeader, "not-a-uuid")
	w = serve(r, req)
	assert.NotEqual(t, "not-a-uuid", w.Body.String())
	_, err := uuid.Parse(w.Body.String())
	assert.NoError(t, err)
}
