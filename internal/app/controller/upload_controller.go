package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/grocerly/grocerly-backend/internal/app/model"
	apperrors "github.com/grocerly/grocerly-backend/internal/errors"
	"github.com/grocerly/grocerly-backend/internal/middleware"
	"github.com/grocerly/grocerly-backend/internal/storage"
)

type UploadController struct {
	storage storage.DocumentStorage
}

func NewUploadController(storage storage.DocumentStorage) *UploadController {
	return &UploadController{storage: storage}
}

type PresignRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
	Kind        string `json:"kind" binding:"required"`
	Size        int64  `json:"size"`
}

// GeneratePresignedURL returns a short-lived URL for uploading one verification document
// POST /api/uploads/presigned-url
func (ctrl *UploadController) GeneratePresignedURL(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req PresignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "filename, content_type and kind are required")
		return
	}

	upload, err := ctrl.storage.PresignDocument(c.Request.Context(), model.DocumentKind(req.Kind), req.Filename, req.ContentType, req.Size)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrInvalidKind):
			apperrors.BadRequest(c, apperrors.UploadInvalidKind, "Unknown document kind")
		case errors.Is(err, storage.ErrUnsupportedType):
			apperrors.BadRequest(c, apperrors.UploadInvalidFileType, "Only JPEG, PNG, WEBP and PDF files are allowed")
		case errors.Is(err, storage.ErrFileTooLarge):
			apperrors.BadRequest(c, apperrors.UploadFileTooLarge, "File must be 10MB or smaller")
		default:
			log.Error("Failed to presign upload", err, map[string]interface{}{
				"kind": req.Kind,
			})
			apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.UploadFailed, "Could not prepare the upload")
		}
		return
	}

	c.JSON(http.StatusOK, upload)
}
