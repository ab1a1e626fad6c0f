package analysis

import "context"

// Analyzer extracts text from a document payload. Implementations are safe
// for concurrent use by multiple in-flight uploads.
type Analyzer interface {
	Analyze(ctx context.Context, data []byte, contentType string) (string, error)
}
