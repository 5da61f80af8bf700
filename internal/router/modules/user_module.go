package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrudenko/user-management-api/internal/container"
	handlers "github.com/mrudenko/user-management-api/internal/interface/http"
	"github.com/mrudenko/user-management-api/internal/interface/middleware"
	"github.com/mrudenko/user-management-api/pkg/helpers"
)

// UserModule wires the user lifecycle endpoints. Admin-only: create, read,
// list, stream, search, delete, restore. Self-or-admin: profile, password and
// login changes. Authorization lives entirely at this layer; the services
// receive the already-authenticated actor login.
type UserModule struct {
	Handler *handlers.UserHandler
	JWT     *helpers.JWTManager
}

func NewUserModule(h *handlers.UserHandler, jwt *helpers.JWTManager) *UserModule {
	return &UserModule{Handler: h, JWT: jwt}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/v1/users")
	auth.Use(middleware.Auth(m.JWT))
	auth.Use(middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByLogin(), nil))

	admin := auth.Group("/")
	admin.Use(middleware.AdminOnly())
	{
		admin.POST("", m.Handler.Create)
		admin.GET("/active", m.Handler.Active)
		admin.GET("/active/stream", m.Handler.ActiveStream)
		admin.GET("/older-than/:age", m.Handler.OlderThan)
		admin.GET("/older-than/:age/stream", m.Handler.OlderThanStream)
		admin.GET("/search", m.Handler.Search)
		admin.GET("/:login", m.Handler.GetByLogin)
		admin.DELETE("/:login", m.Handler.Delete)
		admin.POST("/:login/restore", m.Handler.Restore)
	}

	self := auth.Group("/")
	self.Use(middleware.SelfOrAdmin("login"))
	{
		self.PATCH("/:login/profile", m.Handler.UpdateProfile)
		self.PATCH("/:login/password", m.Handler.ChangePassword)
		self.PATCH("/:login/login", m.Handler.ChangeLogin)
	}
}
