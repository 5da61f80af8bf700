package repository

import (
	"context"
	"errors"
	"time"

	"github.com/mrudenko/user-management-api/internal/domain/entity"
)

// Sentinel errors the store adapter must surface. The application layer
// normalizes them into Result values; anything else is an infrastructure
// fault.
var (
	ErrNotFound       = errors.New("user not found")
	ErrLoginTaken     = errors.New("login already exists")
	ErrAlreadyRevoked = errors.New("user already revoked")
)

// UserRepository is the persistence contract the services depend on. The
// store is the single source of truth for login uniqueness: Create and
// ChangeLogin must fail with ErrLoginTaken when the login is taken at write
// time, regardless of any pre-flight check the caller performed.
type UserRepository interface {
	FindByLogin(ctx context.Context, login string) (*entity.User, error)
	Create(ctx context.Context, u *entity.User) error
	ListActive(ctx context.Context) ([]*entity.User, error)
	ListOlderThan(ctx context.Context, age int) ([]*entity.User, error)
	UpdateProfile(ctx context.Context, login, name string, gender entity.Gender, birthday *time.Time, modifiedBy string) (*entity.User, error)
	ChangePassword(ctx context.Context, login, newHash, modifiedBy string) (*entity.User, error)
	ChangeLogin(ctx context.Context, currentLogin, newLogin, modifiedBy string) (*entity.User, error)
	SoftDelete(ctx context.Context, login, revokedBy string) error
	HardDelete(ctx context.Context, login string) error
	Restore(ctx context.Context, login string) (*entity.User, error)
}
