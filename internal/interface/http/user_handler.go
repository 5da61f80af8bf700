package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mrudenko/user-management-api/internal/application"
	"github.com/mrudenko/user-management-api/internal/domain/entity"
	"github.com/mrudenko/user-management-api/internal/interface/middleware"
	"github.com/mrudenko/user-management-api/pkg/response"
	"github.com/mrudenko/user-management-api/pkg/validation"
)

type UserHandler struct {
	Svc    *application.UserService
	Logger *logrus.Logger
}

func NewUserHandler(svc *application.UserService, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

type createUserRequest struct {
	Login    string     `json:"login" binding:"required,loginchars"`
	Password string     `json:"password" binding:"required,loginchars"`
	Name     string     `json:"name" binding:"required,namechars"`
	Gender   string     `json:"gender" binding:"omitempty,oneof=unknown man woman"`
	Birthday *time.Time `json:"birthday"`
	Admin    bool       `json:"admin"`
}

type updateProfileRequest struct {
	Name     string     `json:"name" binding:"required,namechars"`
	Gender   string     `json:"gender" binding:"omitempty,oneof=unknown man woman"`
	Birthday *time.Time `json:"birthday"`
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"omitempty,loginchars"`
	NewPassword string `json:"new_password" binding:"required,loginchars"`
}

type changeLoginRequest struct {
	NewLogin string `json:"new_login" binding:"required,loginchars"`
}

func genderOrUnknown(s string) entity.Gender {
	if s == "" {
		return entity.GenderUnknown
	}
	return entity.Gender(s)
}

func actor(c *gin.Context) string {
	return c.GetString(middleware.CtxLoginKey)
}

// Create POST /api/v1/users (admin only)
func (h *UserHandler) Create(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp := response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		c.JSON(resp.Status, resp)
		return
	}
	r := h.Svc.CreateUser(c.Request.Context(), application.CreateUserInput{
		Login:    req.Login,
		Password: req.Password,
		Name:     req.Name,
		Gender:   genderOrUnknown(req.Gender),
		Birthday: req.Birthday,
		Admin:    req.Admin,
	}, actor(c))
	response.FromResult(c, r, "user created")
}

// GetByLogin GET /api/v1/users/:login (admin only)
func (h *UserHandler) GetByLogin(c *gin.Context) {
	r := h.Svc.GetUserByLogin(c.Request.Context(), c.Param("login"))
	response.FromResult(c, r, "user")
}

// Active GET /api/v1/users/active (admin only)
func (h *UserHandler) Active(c *gin.Context) {
	r := h.Svc.GetActiveUsers(c.Request.Context())
	response.FromResult(c, r, "active users")
}

// ActiveStream GET /api/v1/users/active/stream (admin only)
// Emits one JSON document per line as records are produced.
func (h *UserHandler) ActiveStream(c *gin.Context) {
	streamUsers(c, h.Svc.StreamActiveUsers(c.Request.Context()))
}

// OlderThan GET /api/v1/users/older-than/:age (admin only)
func (h *UserHandler) OlderThan(c *gin.Context) {
	age, err := strconv.Atoi(c.Param("age"))
	if err != nil {
		resp := response.Error[any](c, http.StatusBadRequest, "age must be an integer", nil)
		c.JSON(resp.Status, resp)
		return
	}
	r := h.Svc.GetUsersOlderThan(c.Request.Context(), age)
	response.FromResult(c, r, "users older than")
}

// OlderThanStream GET /api/v1/users/older-than/:age/stream (admin only)
func (h *UserHandler) OlderThanStream(c *gin.Context) {
	age, err := strconv.Atoi(c.Param("age"))
	if err != nil {
		resp := response.Error[any](c, http.StatusBadRequest, "age must be an integer", nil)
		c.JSON(resp.Status, resp)
		return
	}
	streamUsers(c, h.Svc.StreamUsersOlderThan(c.Request.Context(), age))
}

func streamUsers(c *gin.Context, ch <-chan application.UserResponse) {
	c.Header("Content-Type", "application/x-ndjson")
	c.Status(http.StatusOK)
	enc := json.NewEncoder(c.Writer)
	for u := range ch {
		if err := enc.Encode(u); err != nil {
			return
		}
		c.Writer.Flush()
	}
}

// UpdateProfile PATCH /api/v1/users/:login/profile (self or admin)
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp := response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		c.JSON(resp.Status, resp)
		return
	}
	r := h.Svc.UpdateProfile(c.Request.Context(), c.Param("login"), application.UpdateProfileInput{
		Name:     req.Name,
		Gender:   genderOrUnknown(req.Gender),
		Birthday: req.Birthday,
	}, actor(c))
	response.FromResult(c, r, "profile updated")
}

// ChangePassword PATCH /api/v1/users/:login/password (self or admin)
func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp := response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		c.JSON(resp.Status, resp)
		return
	}
	r := h.Svc.ChangePassword(c.Request.Context(), c.Param("login"), application.ChangePasswordInput{
		OldPassword: req.OldPassword,
		NewPassword: req.NewPassword,
	}, actor(c))
	response.FromResult(c, r, "password changed")
}

// ChangeLogin PATCH /api/v1/users/:login/login (self or admin)
func (h *UserHandler) ChangeLogin(c *gin.Context) {
	var req changeLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp := response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		c.JSON(resp.Status, resp)
		return
	}
	r := h.Svc.ChangeLogin(c.Request.Context(), c.Param("login"), req.NewLogin, actor(c))
	response.FromResult(c, r, "login changed")
}

// Delete DELETE /api/v1/users/:login?mode=soft|hard (admin only)
func (h *UserHandler) Delete(c *gin.Context) {
	mode, ok := application.ParseDeleteMode(c.Query("mode"))
	if !ok {
		resp := response.Error[any](c, http.StatusBadRequest, "mode must be soft or hard", nil)
		c.JSON(resp.Status, resp)
		return
	}
	r := h.Svc.DeleteUser(c.Request.Context(), c.Param("login"), mode, actor(c))
	response.FromResult(c, r, "user deleted")
}

// Restore POST /api/v1/users/:login/restore (admin only)
func (h *UserHandler) Restore(c *gin.Context) {
	r := h.Svc.RestoreUser(c.Request.Context(), c.Param("login"))
	response.FromResult(c, r, "user restored")
}

// Search GET /api/v1/users/search?q=&size= (admin only)
func (h *UserHandler) Search(c *gin.Context) {
	q := c.Query("q")
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	hits, err := h.Svc.SearchUsers(c.Request.Context(), q, size)
	if err != nil {
		if h.Logger != nil {
			h.Logger.WithError(err).Warn("user search failed")
		}
		resp := response.Error[any](c, http.StatusBadGateway, "search unavailable", nil)
		c.JSON(resp.Status, resp)
		return
	}
	resp := response.Success(c, http.StatusOK, hits, "search results", map[string]any{"count": len(hits)})
	c.JSON(resp.Status, resp)
}
