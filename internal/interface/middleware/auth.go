package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrudenko/user-management-api/pkg/helpers"
	"github.com/mrudenko/user-management-api/pkg/response"
)

const (
	CtxLoginKey = "login"
	CtxAdminKey = "admin"
)

// tokenFrom reads the credential from the "token" cookie or a Bearer header.
func tokenFrom(c *gin.Context) string {
	if t, err := c.Cookie("token"); err == nil && t != "" {
		return t
	}
	h := c.GetHeader("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

// Auth validates the session credential and injects the caller's login and
// admin flag into the Gin context. Tokens are stateless: validity is solely a
// function of signature and expiry.
func Auth(jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFrom(c)
		if token == "" {
			resp := response.Error[any](c, http.StatusUnauthorized, "missing token", nil)
			c.AbortWithStatusJSON(resp.Status, resp)
			return
		}
		claims, err := jwt.Parse(token)
		if err != nil {
			resp := response.Error[any](c, http.StatusUnauthorized, "invalid token", err.Error())
			c.AbortWithStatusJSON(resp.Status, resp)
			return
		}
		c.Set(CtxLoginKey, claims.Login)
		c.Set(CtxAdminKey, claims.Admin)
		c.Next()
	}
}

// AdminOnly requires the authenticated caller to carry the admin flag.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool(CtxAdminKey) {
			resp := response.Error[any](c, http.StatusForbidden, "admin rights required", nil)
			c.AbortWithStatusJSON(resp.Status, resp)
			return
		}
		c.Next()
	}
}

// SelfOrAdmin allows the account owner or an administrator through. The
// target login is taken from the named path parameter.
func SelfOrAdmin(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(CtxLoginKey) != c.Param(param) && !c.GetBool(CtxAdminKey) {
			resp := response.Error[any](c, http.StatusForbidden, "insufficient rights", nil)
			c.AbortWithStatusJSON(resp.Status, resp)
			return
		}
		c.Next()
	}
}
