package services

import "time"

type ScanRequest struct {
	RootPath       string
	Threads        int
	FollowSymlinks bool
	Extended       bool
	Filter         FilterOptions
	// ProgressEvery is the progress tick; zero means the default.
	ProgressEvery time.Duration
}

const defaultProgressEvery = 100 * time.Millisecond
