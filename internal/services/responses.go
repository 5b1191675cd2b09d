package services

import (
	"time"

	"sweepdu/internal/domain"
)

type ScanResult struct {
	RootPath string
	Tree     *domain.Tree
	Stats    domain.StatsSnapshot
	Duration time.Duration
}
