package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gathering-hub/backend/internal/apperr"
	"github.com/gathering-hub/backend/internal/models"
	"github.com/gathering-hub/backend/pkg/response"
	"github.com/gathering-hub/backend/pkg/utils"
)

// RegisterRequest is the body for POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	FullName string `json:"full_name"`
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// SetAdminRequest is the body for PUT /users/:id/admin.
type SetAdminRequest struct {
	Admin bool `json:"admin"`
}

// TokenResponse is the auth response with JWT.
type TokenResponse struct {
	Token string            `json:"token"`
	User  models.UserPublic `json:"user"`
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	repo        Store
	jwt         *JWTService
	adminEmails map[string]struct{}
	logger      *zap.Logger
}

// NewHandler creates an auth handler. Accounts registering with one of adminEmails become admins.
func NewHandler(repo Store, jwt *JWTService, adminEmails []string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	admins := make(map[string]struct{}, len(adminEmails))
	for _, e := range adminEmails {
		admins[strings.ToLower(e)] = struct{}{}
	}
	return &Handler{repo: repo, jwt: jwt, adminEmails: admins, logger: logger}
}

// Register handles POST /auth/register.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		response.Internal(c, "failed to hash password")
		return
	}

	var fullName *string
	if name := strings.TrimSpace(req.FullName); name != "" {
		fullName = &name
	}
	user, err := h.repo.CreateUser(c.Request.Context(), email, hash, fullName)
	if err != nil {
		if apperr.IsBackend(err) {
			h.logger.Error("create user failed", zap.Error(err))
		}
		response.Error(c, err)
		return
	}

	if _, ok := h.adminEmails[email]; ok {
		if err := h.repo.SetAdmin(c.Request.Context(), user.ID, true); err != nil {
			h.logger.Error("grant bootstrap admin failed", zap.Error(err), zap.String("user_id", user.ID.String()))
		} else {
			user.Role = models.RoleAdmin
		}
	}

	token, err := h.jwt.Generate(user.ID, user.Email)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}
	response.Created(c, TokenResponse{Token: token, User: user.ToPublic()})
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	user, err := h.repo.GetUserByEmail(c.Request.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if apperr.IsNotFound(err) {
			response.Unauthorized(c, "invalid email or password")
			return
		}
		h.logger.Error("login lookup failed", zap.Error(err))
		response.Error(c, err)
		return
	}

	if !utils.CheckPassword(req.Password, user.Password) {
		response.Unauthorized(c, "invalid email or password")
		return
	}

	token, err := h.jwt.Generate(user.ID, user.Email)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}
	response.OK(c, TokenResponse{Token: token, User: user.ToPublic()})
}

// List handles GET /users (admin only).
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.ListUsers(c.Request.Context())
	if err != nil {
		h.logger.Error("list users failed", zap.Error(err))
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// SetAdmin handles PUT /users/:id/admin (admin only).
func (h *Handler) SetAdmin(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	var req SetAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if _, err := h.repo.GetUserByID(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	if err := h.repo.SetAdmin(c.Request.Context(), id, req.Admin); err != nil {
		h.logger.Error("set admin failed", zap.Error(err), zap.String("user_id", id.String()))
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"user_id": id, "admin": req.Admin})
}
