package demo

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(enabled bool, called *bool) *gin.Engine {
	router := gin.New()
	router.Use(NewMiddleware(enabled).Handler())
	handler := func(c *gin.Context) {
		*called = true
		c.String(http.StatusOK, "OK")
	}
	router.GET("/api/books", handler)
	router.HEAD("/api/books", handler)
	router.OPTIONS("/api/books", handler)
	router.POST("/api/chapters", handler)
	router.DELETE("/api/chapters/:id", handler)
	return router
}

func TestNewMiddleware(t *testing.T) {
	assert.True(t, NewMiddleware(true).IsEnabled())
	assert.False(t, NewMiddleware(false).IsEnabled())
}

func TestMiddleware_AllowsReads(t *testing.T) {
	for _, method := range []string{http.MethodGet, http.MethodHead, http.MethodOptions} {
		called := false
		router := newRouter(true, &called)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(method, "/api/books", nil))

		assert.Equal(t, http.StatusOK, w.Code, method)
		assert.True(t, called, method)
	}
}

func TestMiddleware_BlocksWrites(t *testing.T) {
	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/chapters"},
		{http.MethodDelete, "/api/chapters/1"},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			called := false
			router := newRouter(true, &called)

			req := httptest.NewRequest(tt.method, tt.path, nil)
			req.Header.Set("Accept", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, http.StatusForbidden, w.Code)
			assert.False(t, called)

			var resp map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, "demo_mode", resp["code"])
		})
	}
}

func TestMiddleware_JSONBodyGetsJSONError(t *testing.T) {
	called := false
	router := newRouter(true, &called)

	req := httptest.NewRequest(http.MethodPost, "/api/chapters", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), `"demo_mode"`)
}

func TestMiddleware_PlainTextResponse(t *testing.T) {
	called := false
	router := newRouter(true, &called)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/chapters", nil))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "This action is disabled in demo mode", w.Body.String())
}

func TestMiddleware_DisabledPassesWrites(t *testing.T) {
	called := false
	router := newRouter(false, &called)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/chapters", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, called)
}
