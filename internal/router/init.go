package router

import (
	"github.com/mrudenko/user-management-api/internal/application"
	"github.com/mrudenko/user-management-api/internal/container"
	pginfra "github.com/mrudenko/user-management-api/internal/infrastructure/postgres"
	handlers "github.com/mrudenko/user-management-api/internal/interface/http"
	"github.com/mrudenko/user-management-api/internal/router/modules"
)

// InitModules builds the dependency graph out of the container singletons and
// registers every feature module. Called once during startup.
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	repo := pginfra.NewUserRepository(container.GetPGPool())

	userSvc := application.NewUserService(
		repo,
		container.GetRabbitPub(),
		container.GetLogger(),
		container.GetES(),
		cfg.ESUsersIndex,
	)
	authSvc := application.NewAuthService(repo, container.GetJWT(), container.GetLogger())

	userHandler := handlers.NewUserHandler(userSvc, container.GetLogger())
	authHandler := handlers.NewAuthHandler(authSvc, container.GetLogger(), cfg.CookieDomain, cfg.CookieSecure)

	r.Add(modules.NewAuthModule(authHandler, container.GetJWT()))
	r.Add(modules.NewUserModule(userHandler, container.GetJWT()))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}
}
