package comments

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gathering-hub/backend/internal/apperr"
	"github.com/gathering-hub/backend/internal/middleware"
	"github.com/gathering-hub/backend/internal/models"
	"github.com/gathering-hub/backend/pkg/response"
)

// AddRequest is the body for POST /events/:id/comments and POST /notices/:id/comments.
type AddRequest struct {
	Content         string  `json:"content" binding:"required"`
	ParentCommentID *string `json:"parent_comment_id"`
}

// Handler handles comment HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a comment handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) fail(c *gin.Context, err error, msg string) {
	if apperr.IsBackend(err) {
		h.logger.Error(msg, zap.Error(err))
	}
	response.Error(c, err)
}

func parentFrom(c *gin.Context, kind models.ParentKind) (models.Parent, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid "+string(kind)+" id")
		return models.Parent{}, false
	}
	return models.Parent{Kind: kind, ID: id}, true
}

// Threads returns a handler for GET /<kind>s/:id/comments.
func (h *Handler) Threads(kind models.ParentKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		parent, ok := parentFrom(c, kind)
		if !ok {
			return
		}
		threads, err := h.svc.Thread(c.Request.Context(), middleware.Caller(c), parent)
		if err != nil {
			h.fail(c, err, "list comments failed")
			return
		}
		response.OK(c, threads)
	}
}

// Add returns a handler for POST /<kind>s/:id/comments.
func (h *Handler) Add(kind models.ParentKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		parent, ok := parentFrom(c, kind)
		if !ok {
			return
		}
		var req AddRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "invalid request: "+err.Error())
			return
		}
		var parentCommentID *uuid.UUID
		if req.ParentCommentID != nil && *req.ParentCommentID != "" {
			id, err := uuid.Parse(*req.ParentCommentID)
			if err != nil {
				response.BadRequest(c, "invalid parent_comment_id")
				return
			}
			parentCommentID = &id
		}
		comment, err := h.svc.Add(c.Request.Context(), middleware.Caller(c), parent, req.Content, parentCommentID)
		if err != nil {
			h.fail(c, err, "add comment failed")
			return
		}
		response.Created(c, comment)
	}
}

// Delete handles DELETE /comments/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid comment id")
		return
	}
	if err := h.svc.Delete(c.Request.Context(), middleware.Caller(c), id); err != nil {
		h.fail(c, err, "delete comment failed")
		return
	}
	response.NoContent(c)
}
