package downloads

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"docgateway-backend/internal/shared/server/respond"
	"docgateway-backend/internal/shared/storage/object"
	"docgateway-backend/internal/shared/telemetry"
)

// Handler serves rendered result documents from the outbound bucket.
type Handler struct {
	Store          object.Store
	OutboundBucket string
}

// NewHandler constructs a Handler.
func NewHandler(store object.Store, outboundBucket string) *Handler {
	return &Handler{Store: store, OutboundBucket: outboundBucket}
}

// Register mounts the download endpoint on the router root.
func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/download", h.download)
}

// download streams one stored result. Every failure collapses to 404 so the
// endpoint cannot be used to probe which keys exist or why a fetch failed.
func (h *Handler) download(c *gin.Context) {
	key := c.Query("file")
	if key == "" {
		respond.Error(c, http.StatusNotFound, "not_found", "File not found.", nil)
		return
	}
	c.Set("fileName", key)

	body, contentType, err := h.Store.Open(c.Request.Context(), h.OutboundBucket, key)
	if err != nil {
		code := "download_failed"
		if errors.Is(err, object.ErrNotFound) {
			code = "download_missing"
		} else if errors.Is(err, object.ErrAccessDenied) {
			code = "download_access_denied"
		}
		telemetry.Warn("download failed", map[string]any{
			"file_name": key,
			"code":      code,
			"error":     err.Error(),
		})
		respond.Error(c, http.StatusNotFound, "not_found", "File not found.", nil)
		return
	}
	defer body.Close()

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", `attachment; filename="`+key+`"`)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, body); err != nil {
		telemetry.Warn("download stream interrupted", map[string]any{
			"file_name": key,
			"error":     err.Error(),
		})
	}
}
