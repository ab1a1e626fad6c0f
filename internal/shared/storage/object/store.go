package object

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"docgateway-backend/internal/shared/util"
)

// Store defines the contract for saving and retrieving binary objects in
// named buckets.
type Store interface {
	// EnsureBucket creates the bucket if it does not exist. Idempotent.
	EnsureBucket(ctx context.Context, bucket string) error
	// Save writes the reader under a freshly generated, collision-free key
	// derived from fileName and returns that key.
	Save(ctx context.Context, bucket string, fileName string, contentType string, r io.Reader) (storageKey string, sizeBytes int64, err error)
	// SaveWithKey writes the reader under a caller-chosen key.
	SaveWithKey(ctx context.Context, bucket string, storageKey string, contentType string, r io.Reader) (int64, error)
	// Open returns the object bytes and the content type recorded at save time.
	Open(ctx context.Context, bucket string, storageKey string) (io.ReadCloser, string, error)
}

// ErrNotFound is returned by Open when no object exists under the key.
var ErrNotFound = errors.New("object not found")

// ErrAccessDenied is returned when the store rejects the caller's credentials.
var ErrAccessDenied = errors.New("object access denied")

// DocxContentType is the content type of rendered result documents.
const DocxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// ResultKey builds the storage key for a rendered result: the original base
// name plus a second-resolution timestamp, always with a .docx extension.
func ResultKey(originalFileName string, now time.Time) string {
	base := util.BaseNameWithoutExt(originalFileName)
	if sanitized, err := util.SanitizeFileName(base); err == nil {
		base = sanitized
	} else {
		base = "document"
	}
	return fmt.Sprintf("%s_%s.docx", base, now.UTC().Format("20060102150405"))
}
