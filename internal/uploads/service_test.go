package uploads

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"docgateway-backend/internal/shared/storage/object"
)

type fakeStore struct {
	objects map[string][]byte
	types   map[string]string

	ensureCalls int
	saveCalls   int
	openCalls   int

	saveErr   error
	openErr   error
	ensureErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		objects: make(map[string][]byte),
		types:   make(map[string]string),
	}
}

func (f *fakeStore) EnsureBucket(ctx context.Context, bucket string) error {
	f.ensureCalls++
	return f.ensureErr
}

func (f *fakeStore) Save(ctx context.Context, bucket, fileName, contentType string, r io.Reader) (string, int64, error) {
	f.saveCalls++
	if f.saveErr != nil {
		return "", 0, f.saveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", 0, err
	}
	key := "abc123_" + fileName
	f.objects[bucket+"/"+key] = data
	f.types[bucket+"/"+key] = contentType
	return key, int64(len(data)), nil
}

func (f *fakeStore) SaveWithKey(ctx context.Context, bucket, storageKey, contentType string, r io.Reader) (int64, error) {
	f.saveCalls++
	if f.saveErr != nil {
		return 0, f.saveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	f.objects[bucket+"/"+storageKey] = data
	f.types[bucket+"/"+storageKey] = contentType
	return int64(len(data)), nil
}

func (f *fakeStore) Open(ctx context.Context, bucket, storageKey string) (io.ReadCloser, string, error) {
	f.openCalls++
	if f.openErr != nil {
		return nil, "", f.openErr
	}
	data, ok := f.objects[bucket+"/"+storageKey]
	if !ok {
		return nil, "", object.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), f.types[bucket+"/"+storageKey], nil
}

type fakeAnalyzer struct {
	calls    int
	text     string
	err      error
	gotData  []byte
	gotCType string
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, data []byte, contentType string) (string, error) {
	f.calls++
	f.gotData = data
	f.gotCType = contentType
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func newTestService(store *fakeStore, analyzer *fakeAnalyzer, repo Repo) *Service {
	svc := NewService(store, analyzer, repo, "inbound", "outbound")
	svc.Now = func() time.Time {
		return time.Date(2024, 5, 10, 9, 30, 0, 0, time.UTC)
	}
	return svc
}

func TestProcessHappyPath(t *testing.T) {
	store := newFakeStore()
	analyzer := &fakeAnalyzer{text: "Invoice Total: $42"}
	repo := NewMemoryRepo()
	svc := newTestService(store, analyzer, repo)

	upload, err := svc.Process(context.Background(), "report.pdf", 8, strings.NewReader("%PDF-1.4"))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if upload.Status != StatusDone {
		t.Fatalf("expected status %q, got %q", StatusDone, upload.Status)
	}
	if upload.ID == "" {
		t.Fatal("expected a generated upload id")
	}
	if upload.InboundKey == "" {
		t.Fatal("expected an inbound key")
	}
	if upload.OutboundKey != "report_20240510093000.docx" {
		t.Fatalf("unexpected outbound key %q", upload.OutboundKey)
	}
	if !bytes.Equal(analyzer.gotData, []byte("%PDF-1.4")) {
		t.Fatalf("analyzer saw %q, want stored payload", analyzer.gotData)
	}

	result, ok := store.objects["outbound/"+upload.OutboundKey]
	if !ok {
		t.Fatal("result document not stored in outbound bucket")
	}
	if len(result) == 0 {
		t.Fatal("result document is empty")
	}
	if ct := store.types["outbound/"+upload.OutboundKey]; ct != object.DocxContentType {
		t.Fatalf("result content type %q", ct)
	}

	history, err := repo.List(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(history) != 1 || history[0].Status != StatusDone {
		t.Fatalf("unexpected history %+v", history)
	}
}

func TestProcessValidationShortCircuits(t *testing.T) {
	cases := []struct {
		name     string
		fileName string
		size     int64
	}{
		{"unsupported extension", "malware.exe", 100},
		{"no extension", "README", 100},
		{"empty file", "report.pdf", 0},
		{"over the size limit", "report.pdf", MaxUploadBytes + 1},
		{"blank name", "   ", 100},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newFakeStore()
			analyzer := &fakeAnalyzer{text: "ignored"}
			svc := newTestService(store, analyzer, NewMemoryRepo())

			_, err := svc.Process(context.Background(), tc.fileName, tc.size, strings.NewReader("x"))
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			if store.ensureCalls != 0 || store.saveCalls != 0 || analyzer.calls != 0 {
				t.Fatalf("rejected input must not reach the store or analyzer (ensure=%d save=%d analyze=%d)",
					store.ensureCalls, store.saveCalls, analyzer.calls)
			}
		})
	}
}

func TestProcessExtensionCaseInsensitive(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeAnalyzer{text: "ok"}, NewMemoryRepo())

	if _, err := svc.Process(context.Background(), "SCAN.PDF", 4, strings.NewReader("data")); err != nil {
		t.Fatalf("uppercase extension should be accepted: %v", err)
	}
}

func TestProcessStoreFailureRecordsStage(t *testing.T) {
	store := newFakeStore()
	store.saveErr = object.ErrAccessDenied
	repo := NewMemoryRepo()
	svc := newTestService(store, &fakeAnalyzer{text: "ok"}, repo)

	_, err := svc.Process(context.Background(), "report.pdf", 4, strings.NewReader("data"))
	if !errors.Is(err, object.ErrAccessDenied) {
		t.Fatalf("expected access denied to surface, got %v", err)
	}
	var pipeErr *PipelineError
	if !errors.As(err, &pipeErr) || pipeErr.Stage != StageStoreOriginal {
		t.Fatalf("expected store_original stage, got %v", err)
	}

	history, _ := repo.List(context.Background(), 10, 0)
	if len(history) != 1 || history[0].Status != StatusFailed || history[0].FailStage != StageStoreOriginal {
		t.Fatalf("unexpected failure record %+v", history)
	}
}

func TestProcessAnalyzerFailure(t *testing.T) {
	store := newFakeStore()
	analyzerErr := errors.New("connection reset")
	svc := newTestService(store, &fakeAnalyzer{err: analyzerErr}, NewMemoryRepo())

	_, err := svc.Process(context.Background(), "report.pdf", 4, strings.NewReader("data"))
	var pipeErr *PipelineError
	if !errors.As(err, &pipeErr) || pipeErr.Stage != StageAnalyze {
		t.Fatalf("expected analyze stage failure, got %v", err)
	}
	if !errors.Is(err, analyzerErr) {
		t.Fatalf("expected wrapped analyzer error, got %v", err)
	}
}

func TestProcessHistoryWriteFailureDoesNotFailUpload(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeAnalyzer{text: "ok"}, failingRepo{})

	upload, err := svc.Process(context.Background(), "report.pdf", 4, strings.NewReader("data"))
	if err != nil {
		t.Fatalf("history write failure must not fail the upload: %v", err)
	}
	if upload.Status != StatusDone {
		t.Fatalf("expected done, got %q", upload.Status)
	}
}

type failingRepo struct{}

func (failingRepo) Create(ctx context.Context, upload Upload) error {
	return errors.New("db down")
}

func (failingRepo) List(ctx context.Context, limit, offset int) ([]Upload, error) {
	return nil, errors.New("db down")
}

func TestMemoryRepoListNewestFirst(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		if err := repo.Create(ctx, Upload{ID: id}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	got, err := repo.List(ctx, 2, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || got[0].ID != "c" || got[1].ID != "b" {
		t.Fatalf("unexpected order %+v", got)
	}

	got, err = repo.List(ctx, 2, 2)
	if err != nil {
		t.Fatalf("List offset: %v", err)
	}
	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("unexpected offset page %+v", got)
	}
}
