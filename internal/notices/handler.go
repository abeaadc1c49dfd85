package notices

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gathering-hub/backend/internal/apperr"
	"github.com/gathering-hub/backend/internal/middleware"
	"github.com/gathering-hub/backend/internal/models"
	"github.com/gathering-hub/backend/pkg/response"
)

// Handler handles notice HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a notice handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the notice routes on an authenticated group.
func (h *Handler) Register(g *gin.RouterGroup) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/pin", h.TogglePin)
}

func noticeID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid notice id")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) fail(c *gin.Context, err error, msg string) {
	if apperr.IsBackend(err) {
		h.logger.Error(msg, zap.Error(err))
	}
	response.Error(c, err)
}

// Create handles POST /notices.
func (h *Handler) Create(c *gin.Context) {
	var draft models.NoticeDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	n, err := h.svc.Create(c.Request.Context(), middleware.Caller(c), draft)
	if err != nil {
		h.fail(c, err, "create notice failed")
		return
	}
	response.Created(c, n)
}

// List handles GET /notices.
func (h *Handler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		h.fail(c, err, "list notices failed")
		return
	}
	response.OK(c, list)
}

// Get handles GET /notices/:id.
func (h *Handler) Get(c *gin.Context) {
	id, ok := noticeID(c)
	if !ok {
		return
	}
	d, err := h.svc.Get(c.Request.Context(), middleware.Caller(c), id)
	if err != nil {
		h.fail(c, err, "get notice failed")
		return
	}
	response.OK(c, d)
}

// TogglePin handles POST /notices/:id/pin (admin only).
func (h *Handler) TogglePin(c *gin.Context) {
	id, ok := noticeID(c)
	if !ok {
		return
	}
	n, err := h.svc.TogglePin(c.Request.Context(), middleware.Caller(c), id)
	if err != nil {
		h.fail(c, err, "toggle pin failed")
		return
	}
	response.OK(c, n)
}

// Delete handles DELETE /notices/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := noticeID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), middleware.Caller(c), id); err != nil {
		h.fail(c, err, "delete notice failed")
		return
	}
	response.NoContent(c)
}
