package demo

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(enabled bool) *gin.Engine {
	router := gin.New()
	router.Use(NewMiddleware(enabled).Handler())
	ok := func(c *gin.Context) { c.String(http.StatusOK, "OK") }
	router.GET("/api/apiaries", ok)
	router.HEAD("/api/apiaries", ok)
	router.POST("/api/apiaries", ok)
	router.PUT("/api/hives/1/photo", ok)
	router.PATCH("/api/hives/1", ok)
	router.DELETE("/api/hives/1", ok)
	router.POST("/api/auth/login", ok)
	router.POST("/api/auth/logout", ok)
	return router
}

func serve(router *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestNewMiddleware(t *testing.T) {
	assert.True(t, NewMiddleware(true).IsEnabled())
	assert.False(t, NewMiddleware(false).IsEnabled())
}

func TestMiddleware_AllowsReads(t *testing.T) {
	router := newRouter(true)

	w := serve(router, http.MethodGet, "/api/apiaries")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())

	w = serve(router, http.MethodHead, "/api/apiaries")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMiddleware_BlocksWrites(t *testing.T) {
	router := newRouter(true)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/apiaries"},
		{http.MethodPut, "/api/hives/1/photo"},
		{http.MethodPatch, "/api/hives/1"},
		{http.MethodDelete, "/api/hives/1"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := serve(router, tt.method, tt.path)
			assert.Equal(t, http.StatusForbidden, w.Code)
			assert.Equal(t, "true", w.Header().Get("X-Demo-Mode"))

			var response map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.Equal(t, true, response["demo_mode"])
			assert.Equal(t, "demo_mode", response["code"])
		})
	}
}

func TestMiddleware_AllowsAuthEndpoints(t *testing.T) {
	router := newRouter(true)

	assert.Equal(t, http.StatusOK, serve(router, http.MethodPost, "/api/auth/login").Code)
	assert.Equal(t, http.StatusOK, serve(router, http.MethodPost, "/api/auth/logout").Code)
}

func TestMiddleware_DisabledAllowsEverything(t *testing.T) {
	router := newRouter(false)

	assert.Equal(t, http.StatusOK, serve(router, http.MethodPost, "/api/apiaries").Code)
	assert.Equal(t, http.StatusOK, serve(router, http.MethodDelete, "/api/hives/1").Code)
}
