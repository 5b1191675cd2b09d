package config

import (
	"fmt"

	"github.com/spf13/pflag"
)

// Flags ties a parsed flag set to the Config it fills.
type Flags struct {
	set        *pflag.FlagSet
	config     *Config
	crossFS    bool
	hideHidden bool
}

func BindFlags(flags *pflag.FlagSet, config *Config) *Flags {
	bound := &Flags{set: flags, config: config}

	flags.StringVarP(&config.ImportFile, "file", "f", "", "Browse a previous export instead of scanning (`FILE`, '-' for stdin)")
	flags.StringVarP(&config.OutputJSON, "output", "o", "", "Write the scan as JSON to `FILE` ('-' for stdout)")
	flags.StringVarP(&config.OutputBinary, "output-binary", "O", "", "Write the scan in binary form to `FILE`")
	flags.BoolVarP(&config.Compress, "compress", "c", false, "Compress exports with gzip")

	flags.BoolVarP(&config.OneFileSystem, "one-file-system", "x", config.OneFileSystem, "Stay on the filesystem of the scan root")
	flags.BoolVar(&bound.crossFS, "cross-file-system", false, "Descend into other filesystems")
	flags.BoolVarP(&config.FollowSymlinks, "follow-symlinks", "L", config.FollowSymlinks, "Follow symbolic links, each directory at most once")
	flags.BoolVarP(&config.Extended, "extended", "e", config.Extended, "Collect modification time, owner and mode")
	flags.IntVarP(&config.Threads, "threads", "t", config.Threads, "Scanner threads (0 = one per CPU)")

	flags.StringArrayVar(&config.Excludes, "exclude", config.Excludes, "Skip paths matching `PATTERN` (repeatable)")
	flags.StringVarP(&config.ExcludeFrom, "exclude-from", "X", config.ExcludeFrom, "Read exclude patterns from `FILE`")
	flags.BoolVar(&config.ExcludeCaches, "exclude-caches", config.ExcludeCaches, "Skip directories holding a CACHEDIR.TAG")
	flags.BoolVar(&config.ExcludeKernFS, "exclude-kernfs", config.ExcludeKernFS, "Skip kernel pseudo filesystems such as /proc and /sys")
	flags.BoolVar(&config.ExcludeHidden, "exclude-hidden", config.ExcludeHidden, "Skip dot files while scanning")

	flags.StringVar(&config.Sort, "sort", config.Sort, "Initial sort: name, disk-usage, apparent-size, itemcount or mtime, optionally suffixed -asc or -desc")
	flags.BoolVar(&config.DirsFirst, "group-directories-first", config.DirsFirst, "List directories before files")
	flags.BoolVar(&config.ShowHidden, "show-hidden", config.ShowHidden, "Show dot files in the browser")
	flags.BoolVar(&bound.hideHidden, "hide-hidden", false, "Hide dot files in the browser")
	flags.BoolVar(&config.ApparentSize, "apparent-size", config.ApparentSize, "Show apparent sizes instead of disk usage")
	flags.BoolVar(&config.DisableNatSort, "disable-natsort", config.DisableNatSort, "Sort names byte by byte")
	flags.BoolVar(&config.SI, "si", config.SI, "Use powers of 1000 for sizes")
	flags.StringVar(&config.Theme, "theme", config.Theme, "Browser style: dark or light")

	flags.BoolVarP(&config.NoUI, "no-ui", "0", false, "Print a summary instead of starting the browser")
	flags.StringVar(&config.LogFile, "log-file", config.LogFile, "Write a log to `FILE`")
	flags.StringVar(&config.LogLevel, "log-level", config.LogLevel, "Log level: debug, info, warn or error")
	flags.BoolVar(&config.IgnoreConfig, "ignore-config", false, "Do not read the stored configuration")
	return bound
}

// Resolve finishes configuration after parsing. Stored settings fill in
// what the command line left unset, then the result is validated.
func (bound *Flags) Resolve(args []string) (Config, error) {
	config := *bound.config
	if len(args) > 0 {
		config.Path = args[0]
	}
	if !config.IgnoreConfig {
		if path, err := ConfigPath(); err == nil {
			loaded, err := LoadConfigFile(path, config, bound.set.Changed)
			if err != nil {
				return config, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
			}
			config = loaded
		}
	}
	if bound.crossFS {
		config.OneFileSystem = false
	}
	if bound.hideHidden {
		config.ShowHidden = false
	}
	if config.ExcludeFrom != "" {
		patterns, err := ReadExcludeFile(config.ExcludeFrom)
		if err != nil {
			return config, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		config.Excludes = append(config.Excludes, patterns...)
	}
	return config, config.Validate()
}
