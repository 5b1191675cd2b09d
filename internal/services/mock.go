package services

import (
	"context"
	"time"

	"sweepdu/internal/domain"
)

// MockScanner replays a prepared result. With Block set it waits for the
// context to be cancelled instead of finishing.
type MockScanner struct {
	Tree     *domain.Tree
	Err      error
	Block    bool
	Delay    time.Duration
	Progress []ScanProgress
}

func NewMockScanner(tree *domain.Tree) *MockScanner {
	return &MockScanner{Tree: tree}
}

func (scanner *MockScanner) Scan(ctx context.Context, req ScanRequest, progress chan<- ScanProgress) (ScanResult, error) {
	start := time.Now()
	for _, update := range scanner.Progress {
		progressNonBlocking(progress, update)
	}
	if scanner.Block {
		<-ctx.Done()
		return ScanResult{}, ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ScanResult{}, ctx.Err()
	case <-time.After(scanner.Delay):
	}
	if scanner.Err != nil {
		return ScanResult{}, scanner.Err
	}
	AggregateTree(scanner.Tree)
	return ScanResult{
		RootPath: req.RootPath,
		Tree:     scanner.Tree,
		Stats:    StatsFromTree(scanner.Tree),
		Duration: time.Since(start),
	}, nil
}
