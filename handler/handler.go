package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"onboarding-media/dto"
	"onboarding-media/pkg/auth"
	"onboarding-media/service"
)

type ServiceDependencies struct {
	IngestionService service.IngestionService
	VideoTranscoder  service.VideoTranscoder
}

// TranscodeHandler is the dispatcher-side entry for background video jobs.
func TranscodeHandler(ctx context.Context, job dto.TranscodeJob, deps ServiceDependencies) error {
	return deps.VideoTranscoder.Process(ctx, job)
}

type Handler struct {
	svc service.IngestionService
}

func NewHandler(svc service.IngestionService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Root(c *gin.Context) {
	c.String(http.StatusOK, "onboarding media service")
}

func (h *Handler) Upload(c *gin.Context) {
	userId := c.GetString(ContextUserKey)
	if userId == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": service.ErrPayloadTooLarge.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": service.ErrMissingFile.Error()})
		return
	}

	result, err := h.svc.Upload(c.Request.Context(), userId, roleValue(c), file)
	if err != nil {
		status, message := mapError(err)
		c.JSON(status, gin.H{"error": message})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) ListMedia(c *gin.Context) {
	modelId, err := uuid.Parse(c.Query("model_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid model_id"})
		return
	}

	items, err := h.svc.List(c.Request.Context(), modelId)
	if err != nil {
		status, message := mapError(err)
		c.JSON(status, gin.H{"error": message})
		return
	}

	c.JSON(http.StatusOK, items)
}

func (h *Handler) DeleteMedia(c *gin.Context) {
	userId := c.GetString(ContextUserKey)
	if userId == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	mediaId, err := uuid.Parse(c.Query("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := h.svc.Delete(c.Request.Context(), userId, mediaId); err != nil {
		status, message := mapError(err)
		c.JSON(status, gin.H{"error": message})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// roleValue reads the target role from the form field, the query parameter
// or the custom header, in that precedence.
func roleValue(c *gin.Context) string {
	if v := c.PostForm("media_role"); v != "" {
		return v
	}
	if v := c.Query("media_role"); v != "" {
		return v
	}
	return c.GetHeader("X-Media-Role")
}

func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidRole),
		errors.Is(err, service.ErrMissingFile),
		errors.Is(err, service.ErrInvalidMediaType),
		errors.Is(err, service.ErrUnsupportedLegacyFormat):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge, err.Error()
	case errors.Is(err, service.ErrCapacityExceeded):
		return http.StatusConflict, err.Error()
	case errors.Is(err, service.ErrOwnerProfileNotFound),
		errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, service.ErrOwnershipMismatch):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, auth.ErrUnauthorized):
		return http.StatusUnauthorized, err.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
