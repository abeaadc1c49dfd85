package storage

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"path"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/nfnt/resize"
	"go.uber.org/zap"

	"github.com/gathering-hub/backend/internal/apperr"
)

const (
	// MaxImageSize is the maximum accepted upload (10MB).
	MaxImageSize = 10 * 1024 * 1024
	// MaxImageWidth is the width wider jpeg and png images are scaled down to.
	MaxImageWidth = 1920
	// FolderImages is the S3 prefix for event images.
	FolderImages = "images"
)

// AllowedImageTypes maps accepted sniffed MIME types to the stored extension.
var AllowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// Image is an upload ready to store.
type Image struct {
	Data        []byte
	ContentType string
	Ext         string
}

// PrepareImage sniffs data, rejects anything outside AllowedImageTypes and
// scales jpeg and png images wider than maxWidth down to maxWidth.
func PrepareImage(data []byte, maxWidth int) (*Image, error) {
	if len(data) == 0 {
		return nil, apperr.Validation("file is empty")
	}
	if len(data) > MaxImageSize {
		return nil, apperr.Validation("file size exceeds 10MB limit")
	}
	mt := mimetype.Detect(data)
	ct := mt.String()
	ext, ok := AllowedImageTypes[ct]
	if !ok {
		return nil, apperr.Validation("invalid file type %s: only jpg, png, webp and gif images allowed", ct)
	}
	img := &Image{Data: data, ContentType: ct, Ext: ext}
	if maxWidth <= 0 || (ct != "image/jpeg" && ct != "image/png") {
		return img, nil
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, apperr.Validation("image could not be decoded")
	}
	if cfg.Width <= maxWidth {
		return img, nil
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperr.Validation("image could not be decoded")
	}
	scaled := resize.Resize(uint(maxWidth), 0, src, resize.Lanczos3)
	var buf bytes.Buffer
	if ct == "image/png" {
		err = png.Encode(&buf, scaled)
	} else {
		err = jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: 85})
	}
	if err != nil {
		return nil, apperr.Backend("encode image", err)
	}
	img.Data = buf.Bytes()
	return img, nil
}

// ImageKey returns a fresh object key: images/{uuid}{ext}.
func ImageKey(ext string) string {
	return path.Join(FolderImages, uuid.NewString()+ext)
}

// ObjectStore is where prepared images end up; *S3 implements it.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
}

// Images prepares and stores event images.
type Images struct {
	store    ObjectStore
	maxWidth int
	logger   *zap.Logger
}

// NewImages returns an image uploader over store.
func NewImages(store ObjectStore, maxWidth int, logger *zap.Logger) *Images {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Images{store: store, maxWidth: maxWidth, logger: logger}
}

// Upload validates data and stores it, returning the public URL.
func (i *Images) Upload(ctx context.Context, data []byte) (string, error) {
	img, err := PrepareImage(data, i.maxWidth)
	if err != nil {
		return "", err
	}
	key := ImageKey(img.Ext)
	url, err := i.store.Put(ctx, key, img.ContentType, bytes.NewReader(img.Data), int64(len(img.Data)))
	if err != nil {
		return "", apperr.Backend("store image", err)
	}
	i.logger.Info("image stored", zap.String("key", key), zap.String("content_type", img.ContentType), zap.Int("size", len(img.Data)))
	return url, nil
}
