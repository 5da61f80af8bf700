package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrudenko/user-management-api/internal/domain/entity"
	"github.com/mrudenko/user-management-api/pkg/helpers"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func authRouter(jwt *helpers.JWTManager) *gin.Engine {
	r := gin.New()
	g := r.Group("/", Auth(jwt))
	g.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"login": c.GetString(CtxLoginKey),
			"admin": c.GetBool(CtxAdminKey),
		})
	})
	admin := g.Group("/", AdminOnly())
	admin.GET("/admin", func(c *gin.Context) { c.Status(http.StatusOK) })
	self := g.Group("/", SelfOrAdmin("login"))
	self.GET("/users/:login", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func issueFor(t *testing.T, jwt *helpers.JWTManager, login string, admin bool) string {
	t.Helper()
	token, _, err := jwt.Issue(&entity.User{ID: "id", Login: login, Admin: admin})
	require.NoError(t, err)
	return token
}

func TestAuthRejectsMissingToken(t *testing.T) {
	jwt := &helpers.JWTManager{Secret: []byte("s"), TTL: time.Hour}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)

	authRouter(jwt).ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRejectsBadToken(t *testing.T) {
	jwt := &helpers.JWTManager{Secret: []byte("s"), TTL: time.Hour}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")

	authRouter(jwt).ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthAcceptsBearerHeader(t *testing.T) {
	jwt := &helpers.JWTManager{Secret: []byte("s"), TTL: time.Hour}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+issueFor(t, jwt, "alice", false))

	authRouter(jwt).ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"login":"alice"`)
}

func TestAuthAcceptsCookie(t *testing.T) {
	jwt := &helpers.JWTManager{Secret: []byte("s"), TTL: time.Hour}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: issueFor(t, jwt, "bob", true)})

	authRouter(jwt).ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"admin":true`)
}

func TestAdminOnly(t *testing.T) {
	jwt := &helpers.JWTManager{Secret: []byte("s"), TTL: time.Hour}
	r := authRouter(jwt)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+issueFor(t, jwt, "alice", false))
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+issueFor(t, jwt, "root", true))
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSelfOrAdmin(t *testing.T) {
	jwt := &helpers.JWTManager{Secret: []byte("s"), TTL: time.Hour}
	r := authRouter(jwt)

	// Owner passes.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/users/alice", nil)
	req.Header.Set("Authorization", "Bearer "+issueFor(t, jwt, "alice", false))
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// Stranger does not.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/users/alice", nil)
	req.Header.Set("Authorization", "Bearer "+issueFor(t, jwt, "bob", false))
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Admin passes for anyone.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/users/alice", nil)
	req.Header.Set("Authorization", "Bearer "+issueFor(t, jwt, "root", true))
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
