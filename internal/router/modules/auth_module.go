package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrudenko/user-management-api/internal/container"
	handlers "github.com/mrudenko/user-management-api/internal/interface/http"
	"github.com/mrudenko/user-management-api/internal/interface/middleware"
	"github.com/mrudenko/user-management-api/pkg/helpers"
)

type AuthModule struct {
	Handler *handlers.AuthHandler
	JWT     *helpers.JWTManager
}

func NewAuthModule(h *handlers.AuthHandler, jwt *helpers.JWTManager) *AuthModule {
	return &AuthModule{Handler: h, JWT: jwt}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	// Credential guessing gets a tight per-IP budget.
	loginLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP())

	rg.POST("/v1/auth/login", loginLimiter, m.Handler.Login)

	auth := rg.Group("/")
	auth.Use(middleware.Auth(m.JWT))
	{
		auth.POST("/v1/auth/logout", m.Handler.Logout)
	}
}
