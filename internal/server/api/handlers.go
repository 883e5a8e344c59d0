package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"winzap/internal/server/catalog"
	"winzap/internal/server/service"

	"github.com/labstack/echo/v4"
)

// Handler contains the HTTP handlers for the catalog API.
type Handler struct {
	svc     *service.CatalogService
	started time.Time
}

// NewHandler creates a new handler with the given service dependency.
func NewHandler(svc *service.CatalogService) *Handler {
	return &Handler{svc: svc, started: time.Now()}
}

// HandleListFiles handles GET /api/files.
// Supports search, category, limit and offset query parameters.
func (h *Handler) HandleListFiles(c echo.Context) error {
	q := catalog.Query{
		Search:   c.QueryParam("search"),
		Category: c.QueryParam("category"),
	}
	if v := c.QueryParam("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			q.Limit = n
		}
	}
	if v := c.QueryParam("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			q.Offset = n
		}
	}

	entries, total, hasMore := h.svc.List(q)
	return c.JSON(http.StatusOK, echo.Map{
		"files":   entries,
		"total":   total,
		"hasMore": hasMore,
	})
}

// HandleGetFile handles GET /api/files/:id.
func (h *Handler) HandleGetFile(c echo.Context) error {
	entry, err := h.svc.Get(c.Param("id"))
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, entry)
}

// HandleUpload handles POST /api/upload.
// Accepts a multipart form with title, description, optional category,
// a "coverImage" part and a "file" part.
func (h *Handler) HandleUpload(c echo.Context) error {
	req := service.UploadRequest{
		Title:       c.FormValue("title"),
		Description: c.FormValue("description"),
		Category:    c.FormValue("category"),
	}

	if cover, err := c.FormFile("coverImage"); err == nil {
		src, err := cover.Open()
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{
				"error": "failed to read cover image",
			})
		}
		defer src.Close()
		req.CoverName = cover.Filename
		req.CoverType = cover.Header.Get("Content-Type")
		req.CoverSize = cover.Size
		req.Cover = src
	}

	if file, err := c.FormFile("file"); err == nil {
		src, err := file.Open()
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{
				"error": "failed to read uploaded file",
			})
		}
		defer src.Close()
		req.FileName = file.Filename
		req.FileType = file.Header.Get("Content-Type")
		req.FileSize = file.Size
		req.File = src
	}

	entry, err := h.svc.Upload(c.Request().Context(), req)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "file uploaded successfully",
		"file":    entry,
	})
}

// HandleDownload handles GET /api/download/:id.
// Streams the payload as an attachment under its original filename.
func (h *Handler) HandleDownload(c echo.Context) error {
	path, name, mediaType, err := h.svc.Download(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mapServiceError(c, err)
	}

	if mediaType != "" {
		c.Response().Header().Set(echo.HeaderContentType, mediaType)
	}
	return c.Attachment(path, name)
}

// HandleView handles POST /api/files/:id/view.
// An unknown id is a tolerated no-op.
func (h *Handler) HandleView(c echo.Context) error {
	if err := h.svc.View(c.Param("id")); err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

type adminRequest struct {
	Password    string  `json:"password"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Featured    *bool   `json:"featured"`
}

// HandleAdminDelete handles DELETE /api/admin/files/:id.
func (h *Handler) HandleAdminDelete(c echo.Context) error {
	var req adminRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	if err := h.svc.Delete(c.Request().Context(), c.Param("id"), req.Password); err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "file deleted successfully"})
}

// HandleAdminUpdate handles PUT /api/admin/files/:id.
func (h *Handler) HandleAdminUpdate(c echo.Context) error {
	var req adminRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	entry, err := h.svc.Update(c.Request().Context(), c.Param("id"), req.Password, service.UpdatePatch{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Featured:    req.Featured,
	})
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "file updated successfully",
		"file":    entry,
	})
}

// HandleStats handles GET /api/stats.
func (h *Handler) HandleStats(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.Stats())
}

// HandleVisit handles POST /api/visit.
func (h *Handler) HandleVisit(c echo.Context) error {
	if err := h.svc.Visit(); err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "visit recorded"})
}

// HandleHealth handles GET /api/health.
func (h *Handler) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(h.started).Seconds(),
		"files":     h.svc.FileCount(),
	})
}

// HandleThumb handles GET /api/files/:id/thumb.
func (h *Handler) HandleThumb(c echo.Context) error {
	max := 0
	if v := c.QueryParam("max"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			max = n
		}
	}

	jpg, err := h.svc.Thumb(c.Param("id"), max)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.Blob(http.StatusOK, "image/jpeg", jpg)
}

// HandleShareQR handles GET /api/files/:id/qr.
func (h *Handler) HandleShareQR(c echo.Context) error {
	png, err := h.svc.ShareQR(c.Param("id"))
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.Blob(http.StatusOK, "image/png", png)
}

// mapServiceError translates service-layer errors into HTTP responses.
func mapServiceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrUnsupportedMedia),
		errors.Is(err, service.ErrTooLarge):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "file not found"})
	case errors.Is(err, service.ErrUnauthorized):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid password"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
}
