package uploads

import "time"

// Upload statuses.
const (
	StatusDone   = "done"
	StatusFailed = "failed"
)

// Upload records one pass of a document through the pipeline.
type Upload struct {
	ID          string
	FileName    string
	SizeBytes   int64
	InboundKey  string
	OutboundKey string
	Status      string
	FailStage   string
	FailReason  string
	CreatedAt   time.Time
}
