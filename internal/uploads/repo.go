package uploads

import "context"

// Repo defines persistence operations for upload records.
type Repo interface {
	Create(ctx context.Context, upload Upload) error
	List(ctx context.Context, limit, offset int) ([]Upload, error)
}
