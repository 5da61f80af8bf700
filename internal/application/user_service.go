package application

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mrudenko/user-management-api/internal/domain/entity"
	repo "github.com/mrudenko/user-management-api/internal/domain/repository"
	"github.com/mrudenko/user-management-api/pkg/events"
	"github.com/mrudenko/user-management-api/pkg/helpers"
	"github.com/mrudenko/user-management-api/pkg/result"
)

const (
	minAge = 0
	maxAge = 150
)

// DeleteMode selects between the reversible and the irreversible delete. An
// explicit enum keeps the distinction visible at call sites.
type DeleteMode string

const (
	DeleteSoft DeleteMode = "soft"
	DeleteHard DeleteMode = "hard"
)

func ParseDeleteMode(s string) (DeleteMode, bool) {
	switch DeleteMode(s) {
	case DeleteSoft, DeleteHard:
		return DeleteMode(s), true
	case "":
		return DeleteSoft, true
	}
	return "", false
}

// UserService orchestrates the account lifecycle. Every operation returns a
// Result; repository faults never leak to callers. Pub, Logger and ES are
// optional collaborators and are nil-guarded.
type UserService struct {
	Repo    repo.UserRepository
	Pub     *helpers.RabbitPublisher
	Logger  *logrus.Logger
	ES      *elasticsearch.Client
	ESIndex string
}

func NewUserService(r repo.UserRepository, pub *helpers.RabbitPublisher, logger *logrus.Logger, es *elasticsearch.Client, esIndex string) *UserService {
	return &UserService{Repo: r, Pub: pub, Logger: logger, ES: es, ESIndex: esIndex}
}

type CreateUserInput struct {
	Login    string
	Password string
	Name     string
	Gender   entity.Gender
	Birthday *time.Time
	Admin    bool
}

type UpdateProfileInput struct {
	Name     string
	Gender   entity.Gender
	Birthday *time.Time
}

type ChangePasswordInput struct {
	OldPassword string // empty means not supplied
	NewPassword string
}

// UserResponse is the public view of a user record. The password hash is
// never part of it.
type UserResponse struct {
	ID         string        `json:"id"`
	Login      string        `json:"login"`
	Name       string        `json:"name"`
	Gender     entity.Gender `json:"gender"`
	Birthday   *time.Time    `json:"birthday,omitempty"`
	Admin      bool          `json:"admin"`
	Active     bool          `json:"active"`
	CreatedOn  time.Time     `json:"created_on"`
	ModifiedOn time.Time     `json:"modified_on"`
}

func toResponse(u *entity.User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Login:      u.Login,
		Name:       u.Name,
		Gender:     u.Gender,
		Birthday:   u.Birthday,
		Admin:      u.Admin,
		Active:     u.Active(),
		CreatedOn:  u.CreatedOn,
		ModifiedOn: u.ModifiedOn,
	}
}

// CreateUser registers a new account. The pre-flight login check narrows the
// check-then-create race; the store's unique constraint is the final
// authority, and a write-time collision surfaces as the same Failure.
func (s *UserService) CreateUser(ctx context.Context, in CreateUserInput, createdBy string) result.Result[UserResponse] {
	existing, err := s.Repo.FindByLogin(ctx, in.Login)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return fail[UserResponse](s.Logger, "failed to create user", err)
	}
	if existing != nil {
		return result.Failure[UserResponse]("user with login " + in.Login + " already exists")
	}

	if strings.TrimSpace(in.Password) == "" {
		return result.Failure[UserResponse]("there must be a password")
	}
	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return fail[UserResponse](s.Logger, "failed to create user", err)
	}

	res := entity.NewUser(uuid.NewString(), in.Login, hash, in.Name, in.Gender, in.Birthday, in.Admin, time.Now().UTC(), createdBy)
	u, msg := res.Unwrap()
	if u == nil {
		return result.Failure[UserResponse](msg)
	}

	if err := s.Repo.Create(ctx, u); err != nil {
		if errors.Is(err, repo.ErrLoginTaken) {
			return result.Failure[UserResponse]("user with login " + in.Login + " already exists")
		}
		return fail[UserResponse](s.Logger, "failed to create user", err)
	}

	s.publish(ctx, events.New(events.UserCreated, u.Login, createdBy))
	s.indexUser(ctx, u)
	return result.SuccessCreate(toResponse(u))
}

func (s *UserService) GetUserByLogin(ctx context.Context, login string) result.Result[UserResponse] {
	u, err := s.Repo.FindByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return result.NotFound[UserResponse]("user not found")
		}
		return fail[UserResponse](s.Logger, "error retrieving user", err)
	}
	return result.Success(toResponse(u))
}

// GetActiveUsers returns all non-revoked users ordered by creation time.
func (s *UserService) GetActiveUsers(ctx context.Context) result.Result[[]UserResponse] {
	users, err := s.Repo.ListActive(ctx)
	if err != nil {
		return fail[[]UserResponse](s.Logger, "error listing users", err)
	}
	return result.Success(mapResponses(users))
}

func (s *UserService) GetUsersOlderThan(ctx context.Context, age int) result.Result[[]UserResponse] {
	if age < minAge || age > maxAge {
		return result.Failure[[]UserResponse]("age must be between 0 and 150")
	}
	users, err := s.Repo.ListOlderThan(ctx, age)
	if err != nil {
		return fail[[]UserResponse](s.Logger, "error listing users", err)
	}
	return result.Success(mapResponses(users))
}

// StreamActiveUsers emits mapped records one at a time on a finite channel.
// The stream is not restartable; callers re-invoke to start over.
func (s *UserService) StreamActiveUsers(ctx context.Context) <-chan UserResponse {
	return s.stream(ctx, func() ([]*entity.User, error) { return s.Repo.ListActive(ctx) })
}

// StreamUsersOlderThan is the streaming variant of GetUsersOlderThan. An
// out-of-range age yields an empty, closed stream.
func (s *UserService) StreamUsersOlderThan(ctx context.Context, age int) <-chan UserResponse {
	return s.stream(ctx, func() ([]*entity.User, error) {
		if age < minAge || age > maxAge {
			return nil, nil
		}
		return s.Repo.ListOlderThan(ctx, age)
	})
}

func (s *UserService) stream(ctx context.Context, fetch func() ([]*entity.User, error)) <-chan UserResponse {
	out := make(chan UserResponse)
	go func() {
		defer close(out)
		users, err := fetch()
		if err != nil {
			if s.Logger != nil {
				s.Logger.WithError(err).Error("user stream fetch failed")
			}
			return
		}
		for _, u := range users {
			select {
			case out <- toResponse(u):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func (s *UserService) UpdateProfile(ctx context.Context, login string, in UpdateProfileInput, modifiedBy string) result.Result[UserResponse] {
	target, r := s.activeTarget(ctx, login, "update failed")
	if target == nil {
		return r
	}

	if !entity.ValidName(in.Name) {
		return result.Failure[UserResponse]("name must contain only Latin and Cyrillic letters")
	}
	if !in.Gender.Valid() {
		return result.Failure[UserResponse]("invalid gender value")
	}
	if in.Birthday != nil && in.Birthday.After(time.Now().UTC()) {
		return result.Failure[UserResponse]("birthday cannot be in the future")
	}

	u, err := s.Repo.UpdateProfile(ctx, login, in.Name, in.Gender, in.Birthday, modifiedBy)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return result.NotFound[UserResponse]("user not found")
		}
		return fail[UserResponse](s.Logger, "update failed", err)
	}

	s.publish(ctx, events.New(events.UserProfileUpdated, u.Login, modifiedBy))
	s.indexUser(ctx, u)
	return result.Success(toResponse(u))
}

func (s *UserService) ChangePassword(ctx context.Context, login string, in ChangePasswordInput, modifiedBy string) result.Result[UserResponse] {
	target, r := s.activeTarget(ctx, login, "password change failed")
	if target == nil {
		return r
	}

	if strings.TrimSpace(in.NewPassword) == "" {
		return result.Failure[UserResponse]("there must be a password")
	}

	// Administrators may reset without the old password; everyone else who
	// supplied one must prove it.
	if !s.actorIsAdmin(ctx, modifiedBy) && in.OldPassword != "" &&
		!helpers.CompareHashAndPassword(target.PasswordHash, in.OldPassword) {
		return result.Failure[UserResponse]("invalid old password")
	}

	hash, err := helpers.HashPassword(in.NewPassword)
	if err != nil {
		return fail[UserResponse](s.Logger, "password change failed", err)
	}

	u, err := s.Repo.ChangePassword(ctx, login, hash, modifiedBy)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return result.NotFound[UserResponse]("user not found")
		}
		return fail[UserResponse](s.Logger, "password change failed", err)
	}

	s.publish(ctx, events.New(events.UserPasswordChanged, u.Login, modifiedBy))
	return result.Success(toResponse(u))
}

func (s *UserService) ChangeLogin(ctx context.Context, currentLogin, newLogin, modifiedBy string) result.Result[UserResponse] {
	target, r := s.activeTarget(ctx, currentLogin, "login change failed")
	if target == nil {
		return r
	}

	other, err := s.Repo.FindByLogin(ctx, newLogin)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return fail[UserResponse](s.Logger, "login change failed", err)
	}
	if other != nil {
		return result.Failure[UserResponse]("login already exists")
	}

	u, err := s.Repo.ChangeLogin(ctx, currentLogin, newLogin, modifiedBy)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrLoginTaken):
			return result.Failure[UserResponse]("login already exists")
		case errors.Is(err, repo.ErrNotFound):
			return result.NotFound[UserResponse]("user not found")
		}
		return fail[UserResponse](s.Logger, "login change failed", err)
	}

	ev := events.New(events.UserLoginChanged, u.Login, modifiedBy)
	ev.Details = map[string]string{"previous_login": currentLogin}
	s.publish(ctx, ev)
	s.indexUser(ctx, u)
	return result.Success(toResponse(u))
}

// DeleteUser revokes (soft) or permanently removes (hard) an account. The
// hard path is irreversible.
func (s *UserService) DeleteUser(ctx context.Context, login string, mode DeleteMode, actor string) result.Result[bool] {
	target, err := s.Repo.FindByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return result.NotFound[bool]("user not found")
		}
		return fail[bool](s.Logger, "delete failed", err)
	}

	switch mode {
	case DeleteSoft:
		if err := s.Repo.SoftDelete(ctx, login, actor); err != nil {
			switch {
			case errors.Is(err, repo.ErrAlreadyRevoked):
				return result.Failure[bool]("user already revoked")
			case errors.Is(err, repo.ErrNotFound):
				return result.NotFound[bool]("user not found")
			}
			return fail[bool](s.Logger, "delete failed", err)
		}
		s.publish(ctx, events.New(events.UserRevoked, login, actor))
		// Index the post-revocation state, not the snapshot read above.
		if u, err := s.Repo.FindByLogin(ctx, login); err == nil {
			s.indexUser(ctx, u)
		}
	case DeleteHard:
		if err := s.Repo.HardDelete(ctx, login); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return result.NotFound[bool]("user not found")
			}
			return fail[bool](s.Logger, "delete failed", err)
		}
		s.publish(ctx, events.New(events.UserDeleted, login, actor))
		s.removeFromIndex(ctx, target.ID)
	default:
		return result.Failure[bool]("unknown delete mode")
	}

	return result.Success(true)
}

// RestoreUser clears the revocation fields. Restoring an already-active user
// succeeds and leaves state unchanged.
func (s *UserService) RestoreUser(ctx context.Context, login string) result.Result[UserResponse] {
	if _, err := s.Repo.FindByLogin(ctx, login); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return result.NotFound[UserResponse]("user not found")
		}
		return fail[UserResponse](s.Logger, "restore failed", err)
	}

	u, err := s.Repo.Restore(ctx, login)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return result.NotFound[UserResponse]("user not found")
		}
		return fail[UserResponse](s.Logger, "restore failed", err)
	}

	s.publish(ctx, events.New(events.UserRestored, u.Login, ""))
	s.indexUser(ctx, u)
	return result.Success(toResponse(u))
}

// activeTarget loads a user that must exist and must not be revoked. On a
// miss it returns nil together with the Result the operation should return.
func (s *UserService) activeTarget(ctx context.Context, login, failMsg string) (*entity.User, result.Result[UserResponse]) {
	u, err := s.Repo.FindByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, result.NotFound[UserResponse]("user not found")
		}
		return nil, fail[UserResponse](s.Logger, failMsg, err)
	}
	if !u.Active() {
		return nil, result.Failure[UserResponse]("user is revoked")
	}
	return u, result.Result[UserResponse]{}
}

func (s *UserService) actorIsAdmin(ctx context.Context, login string) bool {
	u, err := s.Repo.FindByLogin(ctx, login)
	return err == nil && u.Admin
}

func mapResponses(users []*entity.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toResponse(u))
	}
	return out
}

// fail logs the underlying infrastructure error and converts it into a
// Failure so raw faults never cross the service boundary.
func fail[T any](logger *logrus.Logger, msg string, err error) result.Result[T] {
	if logger != nil {
		logger.WithError(err).Error(msg)
	}
	return result.Failure[T](msg + ": " + err.Error())
}

func (s *UserService) publish(ctx context.Context, ev events.UserEvent) {
	if s.Pub == nil {
		return
	}
	if err := s.Pub.PublishJSON(ctx, ev); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("event", ev.Type).Warn("event publish failed")
	}
}

func (s *UserService) indexUser(ctx context.Context, u *entity.User) {
	if s.ES == nil || s.ESIndex == "" {
		return
	}
	b, _ := json.Marshal(map[string]any{
		"id":       u.ID,
		"login":    u.Login,
		"name":     u.Name,
		"gender":   u.Gender,
		"admin":    u.Admin,
		"active":   u.Active(),
		"created":  u.CreatedOn.Format(time.RFC3339Nano),
		"modified": u.ModifiedOn.Format(time.RFC3339Nano),
	})
	req := esapi.IndexRequest{Index: s.ESIndex, DocumentID: u.ID, Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Warn("es index failed")
		}
		return
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && s.Logger != nil {
		s.Logger.WithField("status", res.Status()).WithField("user_id", u.ID).Warn("es index response error")
	}
}

func (s *UserService) removeFromIndex(ctx context.Context, id string) {
	if s.ES == nil || s.ESIndex == "" {
		return
	}
	req := esapi.DeleteRequest{Index: s.ESIndex, DocumentID: id}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", id).Warn("es delete failed")
		}
		return
	}
	_ = res.Body.Close()
}

// SearchUsers performs a multi_match query on login and name over the public
// profile index.
func (s *UserService) SearchUsers(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.ES == nil || s.ESIndex == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"login^2", "name"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(s.ES.Search.WithContext(c), s.ES.Search.WithIndex(s.ESIndex), s.ES.Search.WithBody(strings.NewReader(string(b))))
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
