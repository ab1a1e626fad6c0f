package uploads

import (
	"bytes"
	"context"
	"io"
	"mime"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"docgateway-backend/internal/analysis"
	"docgateway-backend/internal/render"
	"docgateway-backend/internal/shared/storage/object"
	"docgateway-backend/internal/shared/telemetry"
)

// Service drives a document through the full pipeline: validate, store the
// original, analyze, render the result, store the result, record history.
type Service struct {
	Store          object.Store
	Analyzer       analysis.Analyzer
	Repo           Repo
	InboundBucket  string
	OutboundBucket string
	Now            func() time.Time
}

// NewService constructs a Service with the real clock.
func NewService(store object.Store, analyzer analysis.Analyzer, repo Repo, inboundBucket, outboundBucket string) *Service {
	return &Service{
		Store:          store,
		Analyzer:       analyzer,
		Repo:           repo,
		InboundBucket:  inboundBucket,
		OutboundBucket: outboundBucket,
		Now:            time.Now,
	}
}

// Process runs the pipeline for one uploaded document. Validation failures
// are returned before any store or analyzer call is made. Later failures are
// logged here, recorded in history, and returned wrapped in a PipelineError
// carrying the failing stage.
func (s *Service) Process(ctx context.Context, fileName string, sizeBytes int64, r io.Reader) (Upload, error) {
	if err := validate(fileName, sizeBytes); err != nil {
		return Upload{}, err
	}

	upload := Upload{
		ID:        uuid.NewString(),
		FileName:  fileName,
		SizeBytes: sizeBytes,
		CreatedAt: s.Now().UTC(),
	}

	if err := s.Store.EnsureBucket(ctx, s.InboundBucket); err != nil {
		return s.fail(ctx, upload, StageStoreOriginal, err)
	}
	contentType := contentTypeFor(fileName)
	inboundKey, storedBytes, err := s.Store.Save(ctx, s.InboundBucket, fileName, contentType, r)
	if err != nil {
		return s.fail(ctx, upload, StageStoreOriginal, err)
	}
	upload.InboundKey = inboundKey
	upload.SizeBytes = storedBytes

	// Analyze from the stored copy, not the request stream, so the bytes
	// that were persisted are the bytes that get analyzed.
	body, savedType, err := s.Store.Open(ctx, s.InboundBucket, inboundKey)
	if err != nil {
		return s.fail(ctx, upload, StageReopen, err)
	}
	data, err := io.ReadAll(body)
	body.Close()
	if err != nil {
		return s.fail(ctx, upload, StageReopen, err)
	}
	if savedType != "" {
		contentType = savedType
	}

	text, err := s.Analyzer.Analyze(ctx, data, contentType)
	if err != nil {
		return s.fail(ctx, upload, StageAnalyze, err)
	}

	generatedAt := s.Now()
	doc, err := render.Document(text, fileName, generatedAt)
	if err != nil {
		return s.fail(ctx, upload, StageRender, err)
	}

	if err := s.Store.EnsureBucket(ctx, s.OutboundBucket); err != nil {
		return s.fail(ctx, upload, StageStoreResult, err)
	}
	outboundKey := object.ResultKey(fileName, generatedAt)
	if _, err := s.Store.SaveWithKey(ctx, s.OutboundBucket, outboundKey, object.DocxContentType, bytes.NewReader(doc)); err != nil {
		return s.fail(ctx, upload, StageStoreResult, err)
	}
	upload.OutboundKey = outboundKey
	upload.Status = StatusDone

	s.record(ctx, upload)
	telemetry.Info("upload processed", map[string]any{
		"upload_id":    upload.ID,
		"file_name":    upload.FileName,
		"size_bytes":   upload.SizeBytes,
		"outbound_key": upload.OutboundKey,
	})
	return upload, nil
}

// List returns upload history, newest-first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Upload, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.Repo.List(ctx, limit, offset)
}

func (s *Service) fail(ctx context.Context, upload Upload, stage string, err error) (Upload, error) {
	upload.Status = StatusFailed
	upload.FailStage = stage
	upload.FailReason = err.Error()
	s.record(ctx, upload)
	telemetry.Error("upload failed", map[string]any{
		"upload_id": upload.ID,
		"file_name": upload.FileName,
		"stage":     stage,
		"error":     err.Error(),
	})
	return upload, &PipelineError{Stage: stage, Err: err}
}

// record persists history best-effort; a history write failure must not turn
// a processed document into an error for the caller.
func (s *Service) record(ctx context.Context, upload Upload) {
	if s.Repo == nil {
		return
	}
	if err := s.Repo.Create(ctx, upload); err != nil {
		telemetry.Warn("upload history write failed", map[string]any{
			"upload_id": upload.ID,
			"error":     err.Error(),
		})
	}
}

func contentTypeFor(fileName string) string {
	if ct := mime.TypeByExtension(filepath.Ext(fileName)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
