package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beesmart/beesmart/internal/config"
	"github.com/beesmart/beesmart/internal/database/users"
	"github.com/beesmart/beesmart/internal/entities"
	"github.com/beesmart/beesmart/internal/logging"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type middlewareFixture struct {
	router   *gin.Engine
	service  *Service
	sessions *SessionManager
}

func setupMiddleware(t *testing.T, mode config.AuthMode) *middlewareFixture {
	t.Helper()
	db := setupTestDB(t)
	cfg := testAuthConfig(mode)

	service := NewService(users.NewRepository(db.DB), cfg, logging.Discard())
	sessions, err := NewSessionManager(db, cfg)
	require.NoError(t, err)

	router := gin.New()
	router.Use(sessions.SessionLoadSave())
	router.Use(NewMiddleware(service, sessions, cfg).Handler())
	router.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id":   GetUserID(c),
			"user_ref":  UserRef(c),
			"name":      GetUserName(c),
			"guest":     IsGuest(c),
			"auth_type": GetAuthType(c),
		})
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetUserID(c)})
	})
	router.POST("/api/auth/login", func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Query("id"), 10, 64)
		require.NoError(t, err)
		user, err := service.GetUserByID(c.Request.Context(), uint(id))
		require.NoError(t, err)
		require.NoError(t, sessions.CreateSession(c.Request.Context(), user))
		c.Status(http.StatusNoContent)
	})

	return &middlewareFixture{router: router, service: service, sessions: sessions}
}

func (f *middlewareFixture) do(t *testing.T, method, path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func TestMiddleware_NoAuthMode(t *testing.T) {
	f := setupMiddleware(t, config.AuthModeNone)

	rr := f.do(t, http.MethodGet, "/whoami", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	body := decode(t, rr)
	assert.Equal(t, float64(DefaultUserID), body["user_id"])
	assert.Nil(t, body["user_ref"])
	assert.Equal(t, string(AuthTypeNone), body["auth_type"])
}

func TestMiddleware_LocalMode_RequiresSession(t *testing.T) {
	f := setupMiddleware(t, config.AuthModeLocal)

	rr := f.do(t, http.MethodGet, "/whoami", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "authentication required", decode(t, rr)["error"])
}

func TestMiddleware_LocalMode_PublicPaths(t *testing.T) {
	f := setupMiddleware(t, config.AuthModeLocal)

	rr := f.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, float64(DefaultUserID), decode(t, rr)["user_id"])
}

func TestMiddleware_LocalMode_SessionUser(t *testing.T) {
	f := setupMiddleware(t, config.AuthModeLocal)
	user, err := f.service.Register(context.Background(), "Ana", "ana@example.com", "secret1")
	require.NoError(t, err)

	rr := f.do(t, http.MethodPost, "/api/auth/login?id="+idPath(user.ID), nil)
	require.Equal(t, http.StatusNoContent, rr.Code)
	cookie := sessionCookie(t, rr)
	require.NotNil(t, cookie)

	rr = f.do(t, http.MethodGet, "/whoami", cookie)
	require.Equal(t, http.StatusOK, rr.Code)

	body := decode(t, rr)
	assert.Equal(t, float64(user.ID), body["user_id"])
	assert.Equal(t, float64(user.ID), body["user_ref"])
	assert.Equal(t, "Ana", body["name"])
	assert.Equal(t, false, body["guest"])
	assert.Equal(t, string(AuthTypeSession), body["auth_type"])
}

func TestMiddleware_LocalMode_GuestSession(t *testing.T) {
	f := setupMiddleware(t, config.AuthModeLocal)
	guest, err := f.service.Guest(context.Background())
	require.NoError(t, err)

	rr := f.do(t, http.MethodPost, "/api/auth/login?id="+idPath(guest.ID), nil)
	cookie := sessionCookie(t, rr)
	require.NotNil(t, cookie)

	body := decode(t, f.do(t, http.MethodGet, "/whoami", cookie))
	assert.Equal(t, true, body["guest"])
	assert.Equal(t, entities.GuestDisplayName, body["name"])
}

func TestHelpers_WithoutMiddleware(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	assert.Equal(t, DefaultUserID, GetUserID(c))
	assert.Nil(t, UserRef(c))
	assert.Empty(t, GetUserName(c))
	assert.False(t, IsGuest(c))
	assert.Equal(t, AuthTypeNone, GetAuthType(c))
}

func idPath(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
