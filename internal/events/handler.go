package events

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gathering-hub/backend/internal/apperr"
	"github.com/gathering-hub/backend/internal/middleware"
	"github.com/gathering-hub/backend/internal/models"
	"github.com/gathering-hub/backend/internal/session"
	"github.com/gathering-hub/backend/pkg/response"
)

// GalleryRequest is the body for POST and DELETE /events/:id/gallery.
type GalleryRequest struct {
	URL string `json:"url" binding:"required"`
}

// Handler handles event HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates an event handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the event routes on an authenticated group.
func (h *Handler) Register(g *gin.RouterGroup) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/pending", h.Pending)
	g.GET("/:id", h.Get)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/approve", h.Approve)
	g.POST("/:id/reject", h.Reject)
	g.POST("/:id/attend", h.Attend)
	g.DELETE("/:id/attend", h.CancelAttendance)
	g.GET("/:id/attendees", h.Attendees)
	g.POST("/:id/gallery", h.AddImage)
	g.DELETE("/:id/gallery", h.RemoveImage)
}

func (h *Handler) fail(c *gin.Context, err error, msg string) {
	if apperr.IsBackend(err) {
		h.logger.Error(msg, zap.Error(err), zap.String("path", c.FullPath()))
	}
	response.Error(c, err)
}

func eventID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return uuid.Nil, false
	}
	return id, true
}

// Create handles POST /events.
func (h *Handler) Create(c *gin.Context) {
	var draft models.EventDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	res, err := h.svc.Create(c.Request.Context(), middleware.Caller(c), draft)
	if err != nil {
		h.fail(c, err, "create event failed")
		return
	}
	response.CreatedWithWarnings(c, res.Event, res.Warnings)
}

// List handles GET /events.
func (h *Handler) List(c *gin.Context) {
	listing, err := h.svc.List(c.Request.Context(), middleware.Caller(c))
	if err != nil {
		h.fail(c, err, "list events failed")
		return
	}
	response.OK(c, listing)
}

// Pending handles GET /events/pending (admin only).
func (h *Handler) Pending(c *gin.Context) {
	list, err := h.svc.Pending(c.Request.Context(), middleware.Caller(c))
	if err != nil {
		h.fail(c, err, "list pending events failed")
		return
	}
	response.OK(c, list)
}

// Get handles GET /events/:id.
func (h *Handler) Get(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	d, err := h.svc.Get(c.Request.Context(), middleware.Caller(c), id)
	if err != nil {
		h.fail(c, err, "get event failed")
		return
	}
	response.OK(c, d)
}

// Delete handles DELETE /events/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), middleware.Caller(c), id); err != nil {
		h.fail(c, err, "delete event failed")
		return
	}
	response.NoContent(c)
}

// Approve handles POST /events/:id/approve (admin only).
func (h *Handler) Approve(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	res, err := h.svc.Approve(c.Request.Context(), middleware.Caller(c), id)
	if err != nil {
		h.fail(c, err, "approve event failed")
		return
	}
	response.OKWithWarnings(c, res.Event, res.Warnings)
}

// Reject handles POST /events/:id/reject (admin only).
func (h *Handler) Reject(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	e, err := h.svc.Reject(c.Request.Context(), middleware.Caller(c), id)
	if err != nil {
		h.fail(c, err, "reject event failed")
		return
	}
	response.OK(c, e)
}

// Attend handles POST /events/:id/attend.
func (h *Handler) Attend(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	if err := h.svc.Attend(c.Request.Context(), middleware.Caller(c), id); err != nil {
		h.fail(c, err, "attend event failed")
		return
	}
	response.OK(c, gin.H{"event_id": id, "status": models.AttendanceGoing})
}

// CancelAttendance handles DELETE /events/:id/attend.
func (h *Handler) CancelAttendance(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	if err := h.svc.CancelAttendance(c.Request.Context(), middleware.Caller(c), id); err != nil {
		h.fail(c, err, "cancel attendance failed")
		return
	}
	response.NoContent(c)
}

// Attendees handles GET /events/:id/attendees.
func (h *Handler) Attendees(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	list, err := h.svc.Attendees(c.Request.Context(), middleware.Caller(c), id)
	if err != nil {
		h.fail(c, err, "list attendees failed")
		return
	}
	response.OK(c, list)
}

// AddImage handles POST /events/:id/gallery.
func (h *Handler) AddImage(c *gin.Context) {
	h.gallery(c, h.svc.AddImage)
}

// RemoveImage handles DELETE /events/:id/gallery.
func (h *Handler) RemoveImage(c *gin.Context) {
	h.gallery(c, h.svc.RemoveImage)
}

func (h *Handler) gallery(c *gin.Context, op func(ctx context.Context, caller session.Caller, id uuid.UUID, url string) (*models.Event, error)) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	var req GalleryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	e, err := op(c.Request.Context(), middleware.Caller(c), id, req.URL)
	if err != nil {
		h.fail(c, err, "update gallery failed")
		return
	}
	response.OK(c, e)
}
