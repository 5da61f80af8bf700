package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mrudenko/user-management-api/internal/application"
	"github.com/mrudenko/user-management-api/pkg/helpers"
	"github.com/mrudenko/user-management-api/pkg/response"
	"github.com/mrudenko/user-management-api/pkg/validation"
)

type AuthHandler struct {
	Svc     *application.AuthService
	Logger  *logrus.Logger
	Cookies *helpers.CookieManager
}

func NewAuthHandler(svc *application.AuthService, logger *logrus.Logger, cookieDomain string, cookieSecure bool) *AuthHandler {
	return &AuthHandler{Svc: svc, Logger: logger, Cookies: helpers.NewCookie(cookieDomain, cookieSecure)}
}

type loginRequest struct {
	Login    string `json:"login" binding:"required,loginchars"`
	Password string `json:"password" binding:"required"`
}

// Login POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp := response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		c.JSON(resp.Status, resp)
		return
	}
	r := h.Svc.Login(c.Request.Context(), req.Login, req.Password)
	r.Match(func(lr application.LoginResponse) {
		h.Cookies.SetToken(c, lr.Token, lr.ExpiresAt)
	}, nil)
	response.FromResult(c, r, "login successful")
}

// Logout POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	h.Cookies.Clear(c)
	resp := response.Success[any](c, http.StatusOK, map[string]any{"logged_out": true}, "logged out", nil)
	c.JSON(resp.Status, resp)
}
