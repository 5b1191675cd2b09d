package ui

import "sweepdu/internal/services"

type scanDoneMsg struct {
	result services.ScanResult
	err    error
}

type scanProgressMsg struct {
	progress services.ScanProgress
}
