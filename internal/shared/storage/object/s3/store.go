package s3

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"docgateway-backend/internal/shared/storage/object"
	"docgateway-backend/internal/shared/util"
)

// Store implements object.Store using Amazon S3. Each logical bucket maps to
// a real S3 bucket created on demand.
type Store struct {
	client *s3.Client
	region string

	mu      sync.Mutex
	ensured map[string]struct{}
}

// New creates a new S3-backed object store.
func New(ctx context.Context, region string) (object.Store, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &Store{
		client:  s3.NewFromConfig(cfg),
		region:  region,
		ensured: make(map[string]struct{}),
	}, nil
}

// EnsureBucket creates the bucket if it does not already exist.
func (s *Store) EnsureBucket(ctx context.Context, bucket string) error {
	if strings.TrimSpace(bucket) == "" {
		return fmt.Errorf("bucket is required")
	}

	s.mu.Lock()
	_, done := s.ensured[bucket]
	s.mu.Unlock()
	if done {
		return nil
	}

	input := &s3.CreateBucketInput{Bucket: aws.String(bucket)}
	if s.region != "" && s.region != "us-east-1" {
		input.CreateBucketConfiguration = &s3types.CreateBucketConfiguration{
			LocationConstraint: s3types.BucketLocationConstraint(s.region),
		}
	}

	if _, err := s.client.CreateBucket(ctx, input); err != nil {
		var owned *s3types.BucketAlreadyOwnedByYou
		var exists *s3types.BucketAlreadyExists
		if !errors.As(err, &owned) && !errors.As(err, &exists) {
			return mapError(fmt.Errorf("s3 create bucket %s: %w", bucket, err), err)
		}
	}

	s.mu.Lock()
	s.ensured[bucket] = struct{}{}
	s.mu.Unlock()
	return nil
}

// Save uploads the reader contents under a random-prefixed key.
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

// SaveWithKey uploads data to a specific storage key.
func (s *Store) SaveWithKey(ctx context.Context, bucket string, storageKey string, contentType string, r io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	if contentType == "" {
		var sniff [512]byte
		n, readErr := io.ReadFull(r, sniff[:])
		if readErr != nil && readErr != io.EOF && readErr != io.ErrUnexpectedEOF {
			return 0, fmt.Errorf("read sniff: %w", readErr)
		}
		contentType = http.DetectContentType(sniff[:n])
		r = io.MultiReader(bytes.NewReader(sniff[:n]), r)
	}

	counter := &countingReader{r: r}
	input := &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(storageKey),
		Body:        counter,
		ContentType: aws.String(contentType),
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return 0, mapError(fmt.Errorf("s3 put object bucket=%s key=%s: %w", bucket, storageKey, err), err)
	}
	return counter.n, nil
}

// Open downloads a stored object for reading along with its content type.
func (s *Store) Open(ctx context.Context, bucket string, storageKey string) (io.ReadCloser, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(storageKey),
	})
	if err != nil {
		return nil, "", mapError(fmt.Errorf("s3 get object bucket=%s key=%s: %w", bucket, storageKey, err), err)
	}

	contentType := aws.ToString(out.ContentType)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return out.Body, contentType, nil
}

// mapError normalizes S3 failures onto the store error taxonomy so callers
// can distinguish missing objects from authorization problems.
func mapError(wrapped error, cause error) error {
	var noKey *s3types.NoSuchKey
	var noBucket *s3types.NoSuchBucket
	if errors.As(cause, &noKey) || errors.As(cause, &noBucket) {
		return fmt.Errorf("%w: %s", object.ErrNotFound, wrapped)
	}

	var apiErr smithy.APIError
	if errors.As(cause, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "NoSuchBucket":
			return fmt.Errorf("%w: %s", object.ErrNotFound, wrapped)
		case "AccessDenied", "Forbidden":
			return fmt.Errorf("%w: %s", object.ErrAccessDenied, wrapped)
		}
	}
	return wrapped
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func randomID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}

var _ object.Store = (*Store)(nil)
