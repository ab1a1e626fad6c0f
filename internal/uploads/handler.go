package uploads

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"docgateway-backend/internal/analysis"
	"docgateway-backend/internal/shared/server/respond"
	"docgateway-backend/internal/shared/storage/object"
)

const accessHint = "If storage access was granted recently, permissions can take a few minutes to propagate. Please retry shortly."

// Handler exposes the upload pipeline over HTTP.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterAPI mounts the history endpoint on the API group.
func (h *Handler) RegisterAPI(rg *gin.RouterGroup) {
	rg.GET("/uploads", h.list)
}

type uploadResponse struct {
	Message      string `json:"message"`
	FileName     string `json:"fileName"`
	DownloadPath string `json:"downloadPath"`
}

// Upload handles POST /upload: accept a multipart file, run the pipeline,
// and return the download path of the rendered result.
func (h *Handler) Upload(c *gin.Context) {
	// Cap the request body a little above the document limit so multipart
	// framing does not push a maximal file over the edge.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadBytes+(1<<20))

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "A file is required in the 'file' form field.", nil)
		return
	}
	c.Set("fileName", fileHeader.Filename)

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "The uploaded file could not be read.", nil)
		return
	}
	defer file.Close()

	upload, err := h.Svc.Process(c.Request.Context(), fileHeader.Filename, fileHeader.Size, file)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Set("uploadId", upload.ID)

	respond.OK(c, uploadResponse{
		Message:      "File processed successfully.",
		FileName:     upload.FileName,
		DownloadPath: "/download?file=" + url.QueryEscape(upload.OutboundKey),
	})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	var pipeErr *PipelineError
	var authErr *analysis.AuthError
	var remoteErr *analysis.RemoteError

	switch {
	case errors.Is(err, ErrValidation):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, object.ErrAccessDenied):
		respond.Error(c, http.StatusBadGateway, "storage_access_denied", accessHint, nil)
	case errors.As(err, &authErr):
		respond.Error(c, http.StatusBadGateway, "analysis_auth_error", accessHint, nil)
	case errors.Is(err, analysis.ErrTimeout):
		respond.Error(c, http.StatusGatewayTimeout, "analysis_timeout", "Document analysis did not finish in time. Please retry.", nil)
	case errors.Is(err, analysis.ErrEmptyResult):
		respond.Error(c, http.StatusUnprocessableEntity, "analysis_empty", "No text could be extracted from the document.", nil)
	case errors.As(err, &remoteErr):
		respond.Error(c, http.StatusBadGateway, "analysis_error", "Document analysis failed: "+remoteErr.Message, nil)
	case errors.As(err, &pipeErr) && pipeErr.Stage == StageAnalyze:
		respond.Error(c, http.StatusBadGateway, "analysis_error", "Document analysis failed. Please retry.", nil)
	case errors.As(err, &pipeErr) && (pipeErr.Stage == StageStoreOriginal || pipeErr.Stage == StageReopen || pipeErr.Stage == StageStoreResult):
		respond.Error(c, http.StatusBadGateway, "storage_error", "The document could not be stored. Please retry.", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "Something went wrong while processing the document.", nil)
	}
}

type uploadRecord struct {
	ID          string `json:"id"`
	FileName    string `json:"fileName"`
	SizeBytes   int64  `json:"sizeBytes"`
	OutboundKey string `json:"outboundKey,omitempty"`
	Status      string `json:"status"`
	FailStage   string `json:"failStage,omitempty"`
	FailReason  string `json:"failReason,omitempty"`
	CreatedAt   string `json:"createdAt"`
}

func (h *Handler) list(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	records, err := h.Svc.List(c.Request.Context(), limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "Could not load upload history.", nil)
		return
	}

	out := make([]uploadRecord, 0, len(records))
	for _, u := range records {
		out = append(out, uploadRecord{
			ID:          u.ID,
			FileName:    u.FileName,
			SizeBytes:   u.SizeBytes,
			OutboundKey: u.OutboundKey,
			Status:      u.Status,
			FailStage:   u.FailStage,
			FailReason:  u.FailReason,
			CreatedAt:   u.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	respond.OK(c, gin.H{"uploads": out})
}
