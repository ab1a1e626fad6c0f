package uploads

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"docgateway-backend/internal/analysis"
	"docgateway-backend/internal/shared/storage/object"
)

func newHandlerRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(svc)
	r.POST("/upload", h.Upload)
	h.RegisterAPI(r.Group("/api/v1"))
	return r
}

func multipartBody(t *testing.T, fieldName, fileName, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(fieldName, fileName)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func decodeError(t *testing.T, body *bytes.Buffer) (code, message string) {
	t.Helper()
	var resp struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body: %v (%s)", err, body.String())
	}
	return resp.Error.Code, resp.Error.Message
}

func TestUploadEndpointHappyPath(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeAnalyzer{text: "Invoice Total: $42"}, NewMemoryRepo())
	r := newHandlerRouter(svc)

	body, contentType := multipartBody(t, "file", "report.pdf", "%PDF-1.4 test")
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		Message      string `json:"message"`
		FileName     string `json:"fileName"`
		DownloadPath string `json:"downloadPath"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.FileName != "report.pdf" {
		t.Fatalf("fileName %q", resp.FileName)
	}
	if !strings.HasPrefix(resp.DownloadPath, "/download?file=") {
		t.Fatalf("downloadPath %q", resp.DownloadPath)
	}
	if !strings.Contains(resp.DownloadPath, "report_") || !strings.Contains(resp.DownloadPath, ".docx") {
		t.Fatalf("downloadPath should point at the rendered docx, got %q", resp.DownloadPath)
	}
}

func TestUploadEndpointMissingFile(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeAnalyzer{text: "ok"}, NewMemoryRepo())
	r := newHandlerRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(""))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status %d", w.Code)
	}
	if code, _ := decodeError(t, w.Body); code != "validation_error" {
		t.Fatalf("code %q", code)
	}
}

func TestUploadEndpointRejectsUnsupportedType(t *testing.T) {
	store := newFakeStore()
	analyzer := &fakeAnalyzer{text: "ok"}
	r := newHandlerRouter(newTestService(store, analyzer, NewMemoryRepo()))

	body, contentType := multipartBody(t, "file", "script.exe", "MZ")
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status %d, body %s", w.Code, w.Body.String())
	}
	if analyzer.calls != 0 || store.saveCalls != 0 {
		t.Fatal("rejected upload must not touch collaborators")
	}
}

func TestUploadEndpointAccessDeniedHint(t *testing.T) {
	store := newFakeStore()
	store.saveErr = object.ErrAccessDenied
	r := newHandlerRouter(newTestService(store, &fakeAnalyzer{text: "ok"}, NewMemoryRepo()))

	body, contentType := multipartBody(t, "file", "report.pdf", "data")
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("status %d", w.Code)
	}
	code, message := decodeError(t, w.Body)
	if code != "storage_access_denied" {
		t.Fatalf("code %q", code)
	}
	if !strings.Contains(message, "propagate") {
		t.Fatalf("expected propagation hint, got %q", message)
	}
}

func TestUploadEndpointAnalysisTimeout(t *testing.T) {
	r := newHandlerRouter(newTestService(newFakeStore(), &fakeAnalyzer{err: analysis.ErrTimeout}, NewMemoryRepo()))

	body, contentType := multipartBody(t, "file", "report.pdf", "data")
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusGatewayTimeout {
		t.Fatalf("status %d", w.Code)
	}
	if code, _ := decodeError(t, w.Body); code != "analysis_timeout" {
		t.Fatalf("code %q", code)
	}
}

func TestUploadEndpointEmptyResult(t *testing.T) {
	r := newHandlerRouter(newTestService(newFakeStore(), &fakeAnalyzer{err: analysis.ErrEmptyResult}, NewMemoryRepo()))

	body, contentType := multipartBody(t, "file", "scan.png", "data")
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status %d", w.Code)
	}
	if code, _ := decodeError(t, w.Body); code != "analysis_empty" {
		t.Fatalf("code %q", code)
	}
}

func TestListUploadsEndpoint(t *testing.T) {
	repo := NewMemoryRepo()
	svc := newTestService(newFakeStore(), &fakeAnalyzer{text: "ok"}, repo)
	r := newHandlerRouter(svc)

	if _, err := svc.Process(context.Background(), "report.pdf", 4, strings.NewReader("data")); err != nil {
		t.Fatalf("seed upload: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/uploads", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		Uploads []struct {
			FileName string `json:"fileName"`
			Status   string `json:"status"`
		} `json:"uploads"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Uploads) != 1 || resp.Uploads[0].FileName != "report.pdf" || resp.Uploads[0].Status != StatusDone {
		t.Fatalf("unexpected uploads %+v", resp.Uploads)
	}
}
