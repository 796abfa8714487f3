package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func serve(h *Handler, path string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h.RegisterRoutes(r)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealth(t *testing.T) {
	h := NewHandler("service-booking", nil, zap.NewNop())
	w := serve(h, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "service-booking")
}

func TestReady(t *testing.T) {
	ok := CheckFunc(func(context.Context) error { return nil })
	down := CheckFunc(func(context.Context) error {
		return errors.New("dial tcp 10.0.3.7:6379: connection refused")
	})

	w := serve(NewHandler("svc", map[string]Checker{"postgres": ok, "redis": ok}, zap.NewNop()), "/ready")
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(NewHandler("svc", map[string]Checker{"postgres": ok, "redis": down}, zap.NewNop()), "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"unavailable","service":"svc","checks":{"postgres":"ok","redis":"unavailable"}}`, w.Body.String())
	assert.NotContains(t, w.Body.String(), "10.0.3.7")
}
