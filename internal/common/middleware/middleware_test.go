package middleware

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

	"github.com/hearthstay/service-booking/internal/common/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(jwtManager *auth.JWTManager, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(RecoveryMiddleware(zap.NewNop()), RequestIDMiddleware(), SecurityHeadersMiddleware())
	handlers := append([]gin.HandlerFunc{AuthMiddleware(jwtManager)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		id, _ := GetUserID(c)
		role, _ := GetUserRole(c)
		c.JSON(http.StatusOK, gin.H{"user_id": id, "role": role})
	})
	r.GET("/me", handlers...)
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	return r
}

func get(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	m := auth.NewJWTManager("test-secret", time.Hour)
	r := newRouter(m)
	userID := uuid.New()

	token, err := m.GenerateAccessToken(userID, auth.RoleGuest)
	require.NoError(t, err)

	w := get(r, "/me", token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), userID.String())

	assert.Equal(t, http.StatusUnauthorized, get(r, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/me", "garbage").Code)
}

func TestRequireHost(t *testing.T) {
	m := auth.NewJWTManager("test-secret", time.Hour)
	r := newRouter(m, RequireHost())

	guest, err := m.GenerateAccessToken(uuid.New(), auth.RoleGuest)
	require.NoError(t, err)
	host, err := m.GenerateAccessToken(uuid.New(), auth.RoleHost)
	require.NoError(t, err)
	both, err := m.GenerateAccessToken(uuid.New(), auth.RoleBoth)
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, get(r, "/me", guest).Code)
	assert.Equal(t, http.StatusOK, get(r, "/me", host).Code)
	assert.Equal(t, http.StatusOK, get(r, "/me", both).Code)
}

func TestRequestIDAndHeaders(t *testing.T) {
	r := newRouter(auth.NewJWTManager("s", time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	w = get(r, "/me", "")
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestRecoveryMiddleware(t *testing.T) {
	r := newRouter(auth.NewJWTManager("s", time.Hour))
	w := get(r, "/panic", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal server error")
}
