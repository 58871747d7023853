package admin

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func verifyRouter(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(nil, secret, zap.NewNop())
	r := gin.New()
	r.POST("/admin/verify-secret", h.RequireSecret(), h.VerifySecret)
	return r
}

func TestRequireSecret(t *testing.T) {
	t.Run("header accepted", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/admin/verify-secret", nil)
		req.Header.Set("x-admin-secret", "op-secret")
		w := httptest.NewRecorder()
		verifyRouter("op-secret").ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("body accepted", func(t *testing.T) {
		body := strings.NewReader(`{"adminSecret":"op-secret"}`)
		req := httptest.NewRequest(http.MethodPost, "/admin/verify-secret", body)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		verifyRouter("op-secret").ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("wrong secret", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/admin/verify-secret", nil)
		req.Header.Set("x-admin-secret", "nope")
		w := httptest.NewRecorder()
		verifyRouter("op-secret").ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("unconfigured surface", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/admin/verify-secret", nil)
		req.Header.Set("x-admin-secret", "anything")
		w := httptest.NewRecorder()
		verifyRouter("").ServeHTTP(w, req)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "ADMIN_SECRET")
	})
}
