package storage

import (
	"io"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gathering-hub/backend/internal/apperr"
	"github.com/gathering-hub/backend/pkg/response"
)

// Handler serves image uploads.
type Handler struct {
	images *Images
	logger *zap.Logger
}

// NewHandler returns an upload handler. images may be nil when S3 is not configured.
func NewHandler(images *Images, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{images: images, logger: logger}
}

// Register mounts the upload routes on g.
func (h *Handler) Register(g *gin.RouterGroup) {
	g.POST("/images", h.UploadImage)
}

// UploadImage handles POST /uploads/images (multipart form field: file).
func (h *Handler) UploadImage(c *gin.Context) {
	if h.images == nil {
		response.ServiceUnavailable(c, "image storage not configured")
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "missing file (form field: file)")
		return
	}
	if file.Size > MaxImageSize {
		response.BadRequest(c, "file size exceeds 10MB limit")
		return
	}
	rc, err := file.Open()
	if err != nil {
		h.logger.Error("open uploaded file failed", zap.Error(err))
		response.Internal(c, "failed to read file")
		return
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, MaxImageSize+1))
	if err != nil {
		h.logger.Error("read uploaded file failed", zap.Error(err))
		response.Internal(c, "failed to read file")
		return
	}
	url, err := h.images.Upload(c.Request.Context(), data)
	if err != nil {
		if apperr.IsBackend(err) {
			h.logger.Error("image upload failed", zap.Error(err), zap.String("filename", file.Filename))
		}
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"url": url})
}
