package media

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/inkwell/internal/apperror"
	"github.com/keyxmakerx/inkwell/internal/plugins/auth"
)

// Handler handles HTTP requests for media operations.
type Handler struct {
	service MediaService
}

// NewHandler creates a new media handler.
func NewHandler(service MediaService) *Handler {
	return &Handler{service: service}
}

// Upload handles a multipart upload (POST /api/admin/media/upload).
func (h *Handler) Upload(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return apperror.NewBadRequest("no file provided")
	}

	src, err := file.Open()
	if err != nil {
		return apperror.NewInternal(err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return apperror.NewBadRequest("could not read upload")
	}

	mediaFile, err := h.service.Upload(c.Request().Context(), UploadInput{
		UploadedBy:   auth.GetUserID(c),
		OriginalName: file.Filename,
		MimeType:     file.Header.Get("Content-Type"),
		FileBytes:    data,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, mediaFile)
}

// Info returns a media file's metadata (GET /api/admin/media/:id).
func (h *Handler) Info(c echo.Context) error {
	file, err := h.service.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, file)
}

// Delete removes a media file (DELETE /api/admin/media/:id).
func (h *Handler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Media deleted"})
}
