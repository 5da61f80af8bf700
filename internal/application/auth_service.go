package application

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	repo "github.com/mrudenko/user-management-api/internal/domain/repository"
	"github.com/mrudenko/user-management-api/pkg/helpers"
	"github.com/mrudenko/user-management-api/pkg/result"
)

// AuthService authenticates a login/password pair and issues the session
// credential. It never mutates the record; there is no last-login tracking.
type AuthService struct {
	Repo   repo.UserRepository
	JWT    *helpers.JWTManager
	Logger *logrus.Logger
}

func NewAuthService(r repo.UserRepository, jwt *helpers.JWTManager, logger *logrus.Logger) *AuthService {
	return &AuthService{Repo: r, JWT: jwt, Logger: logger}
}

// LoginResponse carries the public profile together with the issued token.
type LoginResponse struct {
	User      UserResponse `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

func (s *AuthService) Login(ctx context.Context, login, password string) result.Result[LoginResponse] {
	u, err := s.Repo.FindByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return result.NotFound[LoginResponse]("user not found")
		}
		return fail[LoginResponse](s.Logger, "login failed", err)
	}

	if !helpers.CompareHashAndPassword(u.PasswordHash, password) {
		return result.Failure[LoginResponse]("invalid credentials")
	}
	if !u.Active() {
		return result.Failure[LoginResponse]("user is revoked")
	}

	token, exp, err := s.JWT.Issue(u)
	if err != nil {
		return fail[LoginResponse](s.Logger, "login failed", err)
	}
	return result.Success(LoginResponse{User: toResponse(u), Token: token, ExpiresAt: exp})
}
