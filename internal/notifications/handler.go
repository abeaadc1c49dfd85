package notifications

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gathering-hub/backend/internal/apperr"
	"github.com/gathering-hub/backend/internal/middleware"
	"github.com/gathering-hub/backend/pkg/response"
)

// Handler handles notification HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a notification handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the notification routes on an authenticated group.
func (h *Handler) Register(g *gin.RouterGroup) {
	g.GET("", h.Recent)
	g.GET("/unread-count", h.UnreadCount)
	g.POST("/read-all", h.MarkAllRead)
	g.PATCH("/:id/read", h.MarkRead)
	g.DELETE("/:id", h.Delete)
}

func (h *Handler) fail(c *gin.Context, err error, msg string) {
	if apperr.IsBackend(err) {
		h.logger.Error(msg, zap.Error(err))
	}
	response.Error(c, err)
}

func notificationID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid notification id")
		return uuid.Nil, false
	}
	return id, true
}

// Recent handles GET /notifications.
func (h *Handler) Recent(c *gin.Context) {
	list, err := h.svc.Recent(c.Request.Context(), middleware.Caller(c))
	if err != nil {
		h.fail(c, err, "list notifications failed")
		return
	}
	response.OK(c, list)
}

// UnreadCount handles GET /notifications/unread-count.
func (h *Handler) UnreadCount(c *gin.Context) {
	n, err := h.svc.UnreadCount(c.Request.Context(), middleware.Caller(c))
	if err != nil {
		h.fail(c, err, "count unread failed")
		return
	}
	response.OK(c, gin.H{"unread": n})
}

// MarkRead handles PATCH /notifications/:id/read.
func (h *Handler) MarkRead(c *gin.Context) {
	id, ok := notificationID(c)
	if !ok {
		return
	}
	if err := h.svc.MarkRead(c.Request.Context(), middleware.Caller(c), id); err != nil {
		h.fail(c, err, "mark read failed")
		return
	}
	response.OK(c, gin.H{"id": id, "is_read": true})
}

// MarkAllRead handles POST /notifications/read-all.
func (h *Handler) MarkAllRead(c *gin.Context) {
	n, err := h.svc.MarkAllRead(c.Request.Context(), middleware.Caller(c))
	if err != nil {
		h.fail(c, err, "mark all read failed")
		return
	}
	response.OK(c, gin.H{"updated": n})
}

// Delete handles DELETE /notifications/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := notificationID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), middleware.Caller(c), id); err != nil {
		h.fail(c, err, "delete notification failed")
		return
	}
	response.NoContent(c)
}
