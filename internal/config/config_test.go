package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolateConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	t.Setenv("AppData", dir)
	path, err := ConfigPath()
	require.NoError(t, err)
	return path
}

func parse(t *testing.T, args ...string) (Config, error) {
	t.Helper()
	flags := pflag.NewFlagSet("sweepdu", pflag.ContinueOnError)
	cfg := DefaultConfig()
	bound := BindFlags(flags, &cfg)
	require.NoError(t, flags.Parse(args))
	return bound.Resolve(flags.Args())
}

func TestMergeConfigKeepsChangedFlags(t *testing.T) {
	threads := 3
	sort := "name"
	hidden := true
	stored := fileConfig{Threads: &threads, Sort: &sort, ShowHidden: &hidden, Excludes: []string{"*.tmp"}}

	base := DefaultConfig()
	base.Sort = "mtime"
	base.Excludes = []string{"node_modules"}
	merged := mergeConfig(base, stored, func(name string) bool { return name == "sort" })

	assert.Equal(t, 3, merged.Threads)
	assert.Equal(t, "mtime", merged.Sort)
	assert.True(t, merged.ShowHidden)
	assert.Equal(t, []string{"*.tmp", "node_modules"}, merged.Excludes)
	assert.Equal(t, "dark", merged.Theme)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"negative threads", func(c *Config) { c.Threads = -1 }, false},
		{"bad sort", func(c *Config) { c.Sort = "size" }, false},
		{"sort with order", func(c *Config) { c.Sort = "itemcount-asc" }, true},
		{"bad pattern", func(c *Config) { c.Excludes = []string{"[a-"} }, false},
		{"bad theme", func(c *Config) { c.Theme = "neon" }, false},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, false},
		{"two outputs", func(c *Config) { c.OutputJSON, c.OutputBinary = "a", "b" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			}
		})
	}
}

func TestResolveFlagsOverStoredFile(t *testing.T) {
	path := isolateConfigDir(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(`{"threads": 6, "sort": "name", "oneFileSystem": true, "excludes": [".git"]}`), 0o600))

	excludeFile := filepath.Join(t.TempDir(), "excludes")
	require.NoError(t, os.WriteFile(excludeFile, []byte("# build output\n*.o\n\n  dist  \n"), 0o600))

	cfg, err := parse(t, "--sort", "mtime-desc", "--cross-file-system", "--exclude", "tmp", "-X", excludeFile, "/data")
	require.NoError(t, err)
	assert.Equal(t, "/data", cfg.Path)
	assert.Equal(t, 6, cfg.Threads)
	assert.Equal(t, "mtime-desc", cfg.Sort)
	assert.False(t, cfg.OneFileSystem)
	assert.Equal(t, []string{".git", "tmp", "*.o", "dist"}, cfg.Excludes)

	cfg, err = parse(t, "--ignore-config")
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Threads)
	assert.Equal(t, ".", cfg.Path)
	assert.Equal(t, "disk-usage-desc", cfg.Sort)
}

func TestResolveRejectsInvalid(t *testing.T) {
	isolateConfigDir(t)

	_, err := parse(t, "--threads", "-2")
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = parse(t, "--exclude-from", filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestResolveBrokenStoredFile(t *testing.T) {
	path := isolateConfigDir(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(`{"threads": `), 0o600))

	_, err := parse(t)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestSavePreferencesKeepsOtherSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sweepdu", "config.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(`{"threads": 2, "theme": "light"}`), 0o600))

	cfg := DefaultConfig()
	cfg.Sort = "apparent-size-asc"
	cfg.ShowHidden = true
	require.NoError(t, savePreferencesTo(path, cfg))

	loaded, err := LoadConfigFile(path, DefaultConfig(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Threads)
	assert.Equal(t, "light", loaded.Theme)
	assert.Equal(t, "apparent-size-asc", loaded.Sort)
	assert.True(t, loaded.ShowHidden)
}
