package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gathering-hub/backend/internal/auth"
	"github.com/gathering-hub/backend/internal/session"
)

type stubRoles map[uuid.UUID]bool

func (s stubRoles) IsAdmin(_ context.Context, id uuid.UUID) (bool, error) {
	return s[id], nil
}

type failingRoles struct{}

func (failingRoles) IsAdmin(context.Context, uuid.UUID) (bool, error) {
	return false, errors.New("db down")
}

func newRouter(jwtSvc *auth.JWTService, roles RoleLookup, extra ...gin.HandlerFunc) (*gin.Engine, *session.Caller) {
	gin.SetMode(gin.TestMode)
	var seen session.Caller
	r := gin.New()
	handlers := append([]gin.HandlerFunc{JWT(jwtSvc, roles, zap.NewNop())}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		seen = Caller(c)
		c.Status(http.StatusOK)
	})
	r.GET("/", handlers...)
	return r, &seen
}

func request(t *testing.T, r http.Handler, token string) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestJWTResolvesCaller(t *testing.T) {
	jwtSvc := auth.NewJWTService("secret", 1)
	admin, member := uuid.New(), uuid.New()
	r, seen := newRouter(jwtSvc, stubRoles{admin: true})

	token, err := jwtSvc.Generate(admin, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, request(t, r, token))
	assert.Equal(t, session.Caller{ID: admin, IsAdmin: true}, *seen)

	token, err = jwtSvc.Generate(member, "m@example.com")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, request(t, r, token))
	assert.Equal(t, session.Caller{ID: member, IsAdmin: false}, *seen)
}

func TestJWTRejectsMissingOrBadToken(t *testing.T) {
	r, _ := newRouter(auth.NewJWTService("secret", 1), stubRoles{})
	assert.Equal(t, http.StatusUnauthorized, request(t, r, ""))
	assert.Equal(t, http.StatusUnauthorized, request(t, r, "garbage"))
}

func TestJWTRoleLookupFailure(t *testing.T) {
	jwtSvc := auth.NewJWTService("secret", 1)
	r, _ := newRouter(jwtSvc, failingRoles{})
	token, err := jwtSvc.Generate(uuid.New(), "m@example.com")
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, request(t, r, token))
}

func TestRequireAdmin(t *testing.T) {
	jwtSvc := auth.NewJWTService("secret", 1)
	admin, member := uuid.New(), uuid.New()
	r, _ := newRouter(jwtSvc, stubRoles{admin: true}, RequireAdmin())

	adminToken, _ := jwtSvc.Generate(admin, "admin@example.com")
	memberToken, _ := jwtSvc.Generate(member, "m@example.com")
	assert.Equal(t, http.StatusOK, request(t, r, adminToken))
	assert.Equal(t, http.StatusForbidden, request(t, r, memberToken))
}

func TestCORSPreflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS([]string{"http://localhost:5173"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSAnyOrigin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	for _, origins := range [][]string{nil, {"http://localhost:5173", "*"}} {
		r := gin.New()
		r.Use(CORS(origins))
		r.PATCH("/", func(c *gin.Context) { c.Status(http.StatusOK) })

		req := httptest.NewRequest(http.MethodPatch, "/", nil)
		req.Header.Set("Origin", "http://anywhere.example")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPatch)
	}
}
