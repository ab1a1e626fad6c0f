package local

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"docgateway-backend/internal/shared/storage/object"
	"docgateway-backend/internal/shared/util"
)

// Store implements object.Store using the local filesystem. Buckets map to
// directories under baseDir; the content type of each object is recorded in
// a sidecar file so Open can return it faithfully.
type Store struct {
	baseDir string
}

const contentTypeSuffix = ".ctype"

// New creates a new local object store rooted at baseDir.
func New(baseDir string) object.Store {
	return &Store{baseDir: baseDir}
}

// EnsureBucket creates the bucket directory if needed.
func (s *Store) EnsureBucket(ctx context.Context, bucket string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	clean, err := cleanKey(bucket)
	if err != nil {
		return err
	}
	return os.MkdirAll(filepath.Join(s.baseDir, clean), 0o755)
}

// Save writes the reader to disk under a random-prefixed key.
func (s *Store) Save(ctx context.Context, bucket string, fileName string, contentType string, r io.Reader) (string, int64, error) {
	sanitizedName, err := util.SanitizeFileName(fileName)
	if err != nil {
		return "", 0, fmt.Errorf("sanitize file name: %w", err)
	}

	storageKey := fmt.Sprintf("%s_%s", randomID(), sanitizedName)
	size, err := s.SaveWithKey(ctx, bucket, storageKey, contentType, r)
	if err != nil {
		return "", 0, err
	}
	return storageKey, size, nil
}

// SaveWithKey writes the reader to disk at a specific storage key.
func (s *Store) SaveWithKey(ctx context.Context, bucket string, storageKey string, contentType string, r io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	cleanBucket, err := cleanKey(bucket)
	if err != nil {
		return 0, err
	}
	clean, err := cleanKey(storageKey)
	if err != nil {
		return 0, err
	}

	fullPath := filepath.Join(s.baseDir, cleanBucket, clean)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return 0, fmt.Errorf("mkdir: %w", err)
	}
	f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	written, err := io.Copy(f, r)
	if err != nil {
		return 0, fmt.Errorf("write body: %w", err)
	}

	if contentType != "" {
		if err := os.WriteFile(fullPath+contentTypeSuffix, []byte(contentType), 0o644); err != nil {
			return 0, fmt.Errorf("write content type: %w", err)
		}
	}
	return written, nil
}

// Open opens a stored object for reading together with its content type.
func (s *Store) Open(ctx context.Context, bucket string, storageKey string) (io.ReadCloser, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	cleanBucket, err := cleanKey(bucket)
	if err != nil {
		return nil, "", err
	}
	clean, err := cleanKey(storageKey)
	if err != nil {
		return nil, "", err
	}

	fullPath := filepath.Join(s.baseDir, cleanBucket, clean)
	f, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", object.ErrNotFound
		}
		if os.IsPermission(err) {
			return nil, "", object.ErrAccessDenied
		}
		return nil, "", err
	}

	contentType := s.readContentType(fullPath, f)
	return f, contentType, nil
}

func (s *Store) readContentType(fullPath string, f *os.File) string {
	if data, err := os.ReadFile(fullPath + contentTypeSuffix); err == nil {
		if ct := strings.TrimSpace(string(data)); ct != "" {
			return ct
		}
	}

	var sniff [512]byte
	n, _ := f.ReadAt(sniff[:], 0)
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "application/octet-stream"
	}
	return http.DetectContentType(sniff[:n])
}

func cleanKey(key string) (string, error) {
	clean := filepath.Clean(key)
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid storage key")
	}
	return clean, nil
}

func randomID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}

var _ object.Store = (*Store)(nil)
