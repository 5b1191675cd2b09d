package services

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"

	"sweepdu/internal/domain"
)

type ScanProgress struct {
	Path    string
	Current string
	Stats   domain.StatsSnapshot
}

func progressNonBlocking(ch chan<- ScanProgress, msg ScanProgress) {
	if ch == nil {
		return
	}
	select {
	case ch <- msg:
	default:
	}
}

const (
	cacheTagName      = "CACHEDIR.TAG"
	cacheTagSignature = "Signature: 8a477f597d28d172789f06886806bc55"
)

// hasCacheTag reports whether dir holds a CACHEDIR.TAG starting with the
// standard signature.
func hasCacheTag(dir string) bool {
	file, err := os.Open(filepath.Join(dir, cacheTagName))
	if err != nil {
		return false
	}
	defer file.Close()
	buf := make([]byte, len(cacheTagSignature))
	if _, err := io.ReadFull(file, buf); err != nil {
		return false
	}
	return bytes.Equal(buf, []byte(cacheTagSignature))
}

func cleanPath(path string) string {
	if path == "" {
		return path
	}
	clean := filepath.Clean(path)
	abs, err := filepath.Abs(clean)
	if err != nil {
		return clean
	}
	return abs
}

func isPermissionErr(err error) bool {
	return errors.Is(err, os.ErrPermission)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
