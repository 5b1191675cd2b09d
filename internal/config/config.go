package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"sweepdu/internal/domain"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Path           string   `json:"-"`
	Threads        int      `json:"threads"`
	OneFileSystem  bool     `json:"oneFileSystem"`
	FollowSymlinks bool     `json:"followSymlinks"`
	Excludes       []string `json:"excludes"`
	ExcludeFrom    string   `json:"excludeFrom"`
	ExcludeCaches  bool     `json:"excludeCaches"`
	ExcludeKernFS  bool     `json:"excludeKernfs"`
	ExcludeHidden  bool     `json:"excludeHidden"`
	Extended       bool     `json:"extended"`
	Sort           string   `json:"sort"`
	DirsFirst      bool     `json:"dirsFirst"`
	ShowHidden     bool     `json:"showHidden"`
	ApparentSize   bool     `json:"apparentSize"`
	DisableNatSort bool     `json:"disableNatsort"`
	SI             bool     `json:"si"`
	Theme          string   `json:"theme"`
	LogFile        string   `json:"logFile"`
	LogLevel       string   `json:"logLevel"`

	ImportFile   string `json:"-"`
	OutputJSON   string `json:"-"`
	OutputBinary string `json:"-"`
	Compress     bool   `json:"-"`
	NoUI         bool   `json:"-"`
	IgnoreConfig bool   `json:"-"`
}

type fileConfig struct {
	Threads        *int     `json:"threads"`
	OneFileSystem  *bool    `json:"oneFileSystem"`
	FollowSymlinks *bool    `json:"followSymlinks"`
	Excludes       []string `json:"excludes"`
	ExcludeFrom    *string  `json:"excludeFrom"`
	ExcludeCaches  *bool    `json:"excludeCaches"`
	ExcludeKernFS  *bool    `json:"excludeKernfs"`
	ExcludeHidden  *bool    `json:"excludeHidden"`
	Extended       *bool    `json:"extended"`
	Sort           *string  `json:"sort"`
	DirsFirst      *bool    `json:"dirsFirst"`
	ShowHidden     *bool    `json:"showHidden"`
	ApparentSize   *bool    `json:"apparentSize"`
	DisableNatSort *bool    `json:"disableNatsort"`
	SI             *bool    `json:"si"`
	Theme          *string  `json:"theme"`
	LogFile        *string  `json:"logFile"`
	LogLevel       *string  `json:"logLevel"`
}

// Validate checks everything a scan or the browser would otherwise trip
// over later.
func (config Config) Validate() error {
	if config.Threads < 0 {
		return fmt.Errorf("%w: threads must not be negative (got %d)", ErrInvalidConfig, config.Threads)
	}
	if _, err := domain.ParseSort(config.Sort); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	for _, pattern := range config.Excludes {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return fmt.Errorf("%w: exclude pattern %q: %v", ErrInvalidConfig, pattern, err)
		}
	}
	switch strings.ToLower(config.Theme) {
	case "dark", "light":
	default:
		return fmt.Errorf("%w: unknown theme %q", ErrInvalidConfig, config.Theme)
	}
	if config.LogLevel != "" {
		if _, err := logrus.ParseLevel(config.LogLevel); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	if config.OutputJSON != "" && config.OutputBinary != "" {
		return fmt.Errorf("%w: choose one of --output and --output-binary", ErrInvalidConfig)
	}
	return nil
}

func (config Config) SortSpec() domain.SortSpec {
	spec, err := domain.ParseSort(config.Sort)
	if err != nil {
		return domain.SortSpec{Column: domain.SortByDiskUsage, Order: domain.SortDesc}
	}
	return spec
}

// Exporting reports whether the run writes an export instead of browsing.
func (config Config) Exporting() bool {
	return config.OutputJSON != "" || config.OutputBinary != ""
}
