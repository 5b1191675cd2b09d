package config

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	configDirName  = "sweepdu"
	configFileName = "config.json"
)

func DefaultConfig() Config {
	return Config{
		Path:     ".",
		Sort:     "disk-usage-desc",
		Theme:    "dark",
		LogLevel: "info",
	}
}

func ConfigPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, configDirName, configFileName), nil
}

func readFileConfig(path string) (fileConfig, error) {
	var stored fileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return stored, nil
		}
		return stored, err
	}
	if err := json.Unmarshal(data, &stored); err != nil {
		return stored, fmt.Errorf("%s: %w", path, err)
	}
	return stored, nil
}

// LoadConfigFile merges the stored file over base. Fields for which keep
// returns true stay as they are in base.
func LoadConfigFile(path string, base Config, keep func(name string) bool) (Config, error) {
	stored, err := readFileConfig(path)
	if err != nil {
		return base, err
	}
	return mergeConfig(base, stored, keep), nil
}

// SavePreferences stores the browsing preferences of config, leaving every
// other stored setting as it was.
func SavePreferences(config Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return savePreferencesTo(path, config)
}

func savePreferencesTo(path string, config Config) error {
	stored, err := readFileConfig(path)
	if err != nil {
		return err
	}
	stored.Sort = &config.Sort
	stored.DirsFirst = &config.DirsFirst
	stored.ShowHidden = &config.ShowHidden
	stored.ApparentSize = &config.ApparentSize
	stored.DisableNatSort = &config.DisableNatSort
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// ReadExcludeFile returns one pattern per non-blank line, skipping lines
// starting with '#'.
func ReadExcludeFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	var patterns []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return patterns, nil
}

func mergeConfig(base Config, stored fileConfig, keep func(name string) bool) Config {
	if keep == nil {
		keep = func(string) bool { return false }
	}
	merged := base
	if stored.Threads != nil && !keep("threads") {
		merged.Threads = *stored.Threads
	}
	if stored.OneFileSystem != nil && !keep("one-file-system") && !keep("cross-file-system") {
		merged.OneFileSystem = *stored.OneFileSystem
	}
	if stored.FollowSymlinks != nil && !keep("follow-symlinks") {
		merged.FollowSymlinks = *stored.FollowSymlinks
	}
	if stored.Excludes != nil {
		merged.Excludes = append(append([]string{}, stored.Excludes...), base.Excludes...)
	}
	if stored.ExcludeFrom != nil && !keep("exclude-from") {
		merged.ExcludeFrom = *stored.ExcludeFrom
	}
	if stored.ExcludeCaches != nil && !keep("exclude-caches") {
		merged.ExcludeCaches = *stored.ExcludeCaches
	}
	if stored.ExcludeKernFS != nil && !keep("exclude-kernfs") {
		merged.ExcludeKernFS = *stored.ExcludeKernFS
	}
	if stored.ExcludeHidden != nil && !keep("exclude-hidden") {
		merged.ExcludeHidden = *stored.ExcludeHidden
	}
	if stored.Extended != nil && !keep("extended") {
		merged.Extended = *stored.Extended
	}
	if stored.Sort != nil && !keep("sort") {
		merged.Sort = *stored.Sort
	}
	if stored.DirsFirst != nil && !keep("group-directories-first") {
		merged.DirsFirst = *stored.DirsFirst
	}
	if stored.ShowHidden != nil && !keep("show-hidden") && !keep("hide-hidden") {
		merged.ShowHidden = *stored.ShowHidden
	}
	if stored.ApparentSize != nil && !keep("apparent-size") {
		merged.ApparentSize = *stored.ApparentSize
	}
	if stored.DisableNatSort != nil && !keep("disable-natsort") {
		merged.DisableNatSort = *stored.DisableNatSort
	}
	if stored.SI != nil && !keep("si") {
		merged.SI = *stored.SI
	}
	if stored.Theme != nil && !keep("theme") {
		merged.Theme = *stored.Theme
	}
	if stored.LogFile != nil && !keep("log-file") {
		merged.LogFile = *stored.LogFile
	}
	if stored.LogLevel != nil && !keep("log-level") {
		merged.LogLevel = *stored.LogLevel
	}
	return merged
}
