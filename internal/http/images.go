package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrlokans/chapterdesk/internal/entities"
	"github.com/mrlokans/chapterdesk/internal/storage"
)

// imageField is the multipart field carrying an uploaded image.
const imageField = "image"

type ImagesController struct {
	files         FileStore
	images        ImageStore
	assetPrefix   string
	publicBaseURL string
	maxBytes      int64
	log           *zap.Logger
}

func NewImagesController(files FileStore, images ImageStore, assetPrefix, publicBaseURL string, maxBytes int64, log *zap.Logger) *ImagesController {
	return &ImagesController{
		files:         files,
		images:        images,
		assetPrefix:   assetPrefix,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		maxBytes:      maxBytes,
		log:           log,
	}
}

// Upload handles POST /api/uploads/images
// Responds with {"url": ...} pointing at the stored image.
func (ic *ImagesController) Upload(c *gin.Context) {
	if ic.maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, ic.maxBytes+multipartOverhead)
	}

	fh, err := c.FormFile(imageField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, http.StatusRequestEntityTooLarge, "image is too large")
			return
		}
		respondBadRequest(c, "image file is required")
		return
	}

	data, err := readFormFile(fh)
	if err != nil {
		respondBadRequest(c, "could not read image")
		return
	}

	stored, err := ic.files.SaveImage(fh.Filename, data)
	if err != nil {
		if msg, ok := fileErrorMessage(err); ok {
			status := http.StatusUnprocessableEntity
			if errors.Is(err, storage.ErrTooLarge) {
				status = http.StatusRequestEntityTooLarge
			}
			respondError(c, status, msg)
			return
		}
		respondInternalError(c, ic.log, err, "store image")
		return
	}

	record := &entities.UploadedImage{
		FileName:     stored.FileName,
		OriginalName: fh.Filename,
		ContentType:  stored.ContentType,
		Size:         stored.Size,
	}
	if err := ic.images.CreateImage(record); err != nil {
		if rmErr := ic.files.RemoveImage(stored.FileName); rmErr != nil {
			ic.log.Warn("Failed to remove unrecorded image", zap.String("file", stored.FileName), zap.Error(rmErr))
		}
		respondInternalError(c, ic.log, err, "record image")
		return
	}

	url := ic.publicBaseURL + storage.ImageURL(ic.assetPrefix, stored.FileName)
	ic.log.Info("Image uploaded", zap.String("file", stored.FileName), zap.Int64("size", stored.Size))
	c.JSON(http.StatusCreated, gin.H{"url": url})
}
