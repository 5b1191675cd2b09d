package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sweepdu/internal/config"
	"sweepdu/internal/services"
)

func makeTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), bytes.Repeat([]byte("a"), 1000), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "b.txt"), bytes.Repeat([]byte("b"), 3000), 0o644))
	return root
}

func headless(path string) config.Config {
	cfg := config.DefaultConfig()
	cfg.Path = path
	cfg.NoUI = true
	cfg.IgnoreConfig = true
	return cfg
}

func run(t *testing.T, cfg config.Config, stdin []byte) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := Run(context.Background(), cfg, Streams{In: bytes.NewReader(stdin), Out: &out, Err: &errOut})
	assert.Empty(t, errOut.String(), "progress is only drawn on terminals")
	return out.String(), err
}

func TestHeadlessSummary(t *testing.T) {
	root := makeTree(t)
	cfg := headless(root)
	cfg.LogFile = filepath.Join(t.TempDir(), "sweepdu.log")
	cfg.LogLevel = "debug"

	out, err := run(t, cfg, nil)
	require.NoError(t, err)
	assert.Contains(t, out, "Path:")
	assert.Contains(t, out, root)
	assert.Contains(t, out, "Apparent size:")
	assert.Regexp(t, `Items:\s+3`, out)
	assert.Contains(t, out, "Largest entries:")
	assert.Contains(t, out, "sub/")
	assert.Contains(t, out, "a.txt")
	assert.Regexp(t, `Errors:\s+0`, out)

	logged, err := os.ReadFile(cfg.LogFile)
	require.NoError(t, err)
	assert.Contains(t, string(logged), "scan finished")
}

func TestExportThenImport(t *testing.T) {
	root := makeTree(t)
	exported := filepath.Join(t.TempDir(), "scan.json.gz")

	cfg := headless(root)
	cfg.OutputJSON = exported
	cfg.Compress = true
	out, err := run(t, cfg, nil)
	require.NoError(t, err)
	assert.Empty(t, out)

	imported := headless(".")
	imported.ImportFile = exported
	out, err = run(t, imported, nil)
	require.NoError(t, err)
	assert.Contains(t, out, root)
	assert.Contains(t, out, "sub/")
	assert.Regexp(t, `Items:\s+3`, out)
}

func TestExportToStdoutAndImportFromStdin(t *testing.T) {
	root := makeTree(t)
	cfg := headless(root)
	cfg.OutputBinary = "-"
	data, err := run(t, cfg, nil)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(data, "SWDUGOB1"))

	imported := headless(".")
	imported.ImportFile = "-"
	out, err := run(t, imported, []byte(data))
	require.NoError(t, err)
	assert.Contains(t, out, "a.txt")
}

func TestRootErrors(t *testing.T) {
	_, err := run(t, headless(filepath.Join(t.TempDir(), "missing")), nil)
	assert.ErrorIs(t, err, services.ErrRootInaccessible)

	imported := headless(".")
	imported.ImportFile = "-"
	_, err = run(t, imported, []byte("not an export"))
	assert.ErrorIs(t, err, services.ErrUnknownFormat)
}

func TestScanRequestFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Path = "/srv"
	cfg.Threads = 4
	cfg.OneFileSystem = true
	cfg.ExcludeCaches = true
	cfg.Excludes = []string{"*.o"}

	request := ScanRequest(cfg)
	assert.Equal(t, "/srv", request.RootPath)
	assert.Equal(t, 4, request.Threads)
	assert.True(t, request.Filter.OneFileSystem)
	assert.True(t, request.Filter.ExcludeCaches)
	assert.False(t, request.Filter.ExcludeKernFS)
	assert.Equal(t, []string{"*.o"}, request.Filter.Patterns)
}

func TestLoadedStatus(t *testing.T) {
	result := services.ScanResult{}
	result.Stats.Entries = 12345
	assert.Equal(t, "Loaded 12,345 items from scan.json", loadedStatus("scan.json", result))
	assert.Equal(t, "Loaded 12,345 items from stdin", loadedStatus("-", result))
}
