package s3

import (
	"errors"
	"fmt"
	"testing"

	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"docgateway-backend/internal/shared/storage/object"
)

type fakeAPIError struct {
	code string
}

func (e fakeAPIError) Error() string                  { return e.code }
func (e fakeAPIError) ErrorCode() string              { return e.code }
func (e fakeAPIError) ErrorMessage() string           { return e.code }
func (e fakeAPIError) ErrorFault() smithy.ErrorFault  { return smithy.FaultClient }

var _ smithy.APIError = fakeAPIError{}

func TestMapErrorNoSuchKey(t *testing.T) {
	t.Parallel()

	cause := &s3types.NoSuchKey{}
	err := mapError(fmt.Errorf("s3 get object: %w", cause), cause)
	if !errors.Is(err, object.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMapErrorAccessDenied(t *testing.T) {
	t.Parallel()

	cause := fakeAPIError{code: "AccessDenied"}
	err := mapError(fmt.Errorf("s3 get object: %w", cause), cause)
	if !errors.Is(err, object.ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
}

func TestMapErrorPassthrough(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection reset")
	err := mapError(fmt.Errorf("s3 get object: %w", cause), cause)
	if errors.Is(err, object.ErrNotFound) || errors.Is(err, object.ErrAccessDenied) {
		t.Fatalf("expected generic transport error, got %v", err)
	}
}
