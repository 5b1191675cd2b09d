package services

import (
	"path/filepath"
	"strings"
)

type Decision uint8

const (
	Include Decision = iota
	ExcludePattern
	ExcludeCacheDir
	ExcludeKernelFS
	ExcludeOtherFS
	DecisionError
)

func (decision Decision) String() string {
	switch decision {
	case Include:
		return "include"
	case ExcludePattern:
		return "exclude-pattern"
	case ExcludeCacheDir:
		return "exclude-cachedir"
	case ExcludeKernelFS:
		return "exclude-kernfs"
	case ExcludeOtherFS:
		return "exclude-otherfs"
	default:
		return "error"
	}
}

// Metadata is everything Classify may look at. The traversal fills FSType
// and CacheTagged before classifying so that Classify itself does no I/O.
type Metadata struct {
	IsDir       bool
	Dev         uint64
	FSType      int64
	CacheTagged bool
	Err         error
}

type FilterOptions struct {
	Root          string
	OneFileSystem bool
	ExcludeKernFS bool
	ExcludeCaches bool
	ExcludeHidden bool
	Patterns      []string
}

func Classify(path string, meta Metadata, rootDev uint64, opts FilterOptions) Decision {
	if meta.Err != nil {
		return DecisionError
	}
	if opts.OneFileSystem && meta.Dev != rootDev {
		return ExcludeOtherFS
	}
	if opts.ExcludeKernFS && meta.IsDir && IsKernelFilesystem(meta.FSType) {
		return ExcludeKernelFS
	}
	if opts.ExcludeCaches && meta.IsDir && meta.CacheTagged {
		return ExcludeCacheDir
	}
	if matchesAny(path, opts) {
		return ExcludePattern
	}
	if opts.ExcludeHidden && strings.HasPrefix(filepath.Base(path), ".") {
		return ExcludePattern
	}
	return Include
}

// matchesAny tries each pattern against the full path, the path relative to
// the scan root and the base name.
func matchesAny(path string, opts FilterOptions) bool {
	if len(opts.Patterns) == 0 {
		return false
	}
	base := filepath.Base(path)
	rel := ""
	if opts.Root != "" {
		if candidate, err := filepath.Rel(opts.Root, path); err == nil && !strings.HasPrefix(candidate, "..") {
			rel = candidate
		}
	}
	for _, pattern := range opts.Patterns {
		pattern = strings.TrimSuffix(pattern, string(filepath.Separator))
		if pattern == "" {
			continue
		}
		if matched, _ := filepath.Match(pattern, path); matched {
			return true
		}
		if rel != "" {
			if matched, _ := filepath.Match(pattern, rel); matched {
				return true
			}
		}
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}

func IsKernelFilesystem(fsType int64) bool {
	_, ok := pseudoFilesystems[fsType]
	return ok
}

func KernelFilesystemName(fsType int64) string {
	return pseudoFilesystems[fsType]
}
