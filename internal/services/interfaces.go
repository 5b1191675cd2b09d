package services

import "context"

// Scanner turns a root path into a finished usage tree. Progress snapshots
// are sent without blocking and may be dropped; progress may be nil.
type Scanner interface {
	Scan(ctx context.Context, req ScanRequest, progress chan<- ScanProgress) (ScanResult, error)
}
