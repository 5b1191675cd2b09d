package app

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"

	"sweepdu/internal/config"
	"sweepdu/internal/services"
	"sweepdu/internal/state"
	"sweepdu/internal/ui"
)

type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// Run executes one session: scan or import, then browse, export or print
// a summary.
func Run(ctx context.Context, cfg config.Config, streams Streams) error {
	log, closeLog, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	if !cfg.NoUI && !cfg.Exporting() && isTerminal(streams.Out) {
		return runBrowser(ctx, cfg, streams, log)
	}

	result, err := load(ctx, cfg, streams, log)
	if err != nil {
		return err
	}
	if cfg.Exporting() {
		return export(cfg, result, streams.Out)
	}
	return PrintSummary(streams.Out, result, cfg.SI)
}

// ScanRequest maps configuration onto a traversal request.
func ScanRequest(cfg config.Config) services.ScanRequest {
	return services.ScanRequest{
		RootPath:       cfg.Path,
		Threads:        cfg.Threads,
		FollowSymlinks: cfg.FollowSymlinks,
		Extended:       cfg.Extended,
		Filter: services.FilterOptions{
			OneFileSystem: cfg.OneFileSystem,
			ExcludeKernFS: cfg.ExcludeKernFS,
			ExcludeCaches: cfg.ExcludeCaches,
			ExcludeHidden: cfg.ExcludeHidden,
			Patterns:      cfg.Excludes,
		},
	}
}

func runBrowser(ctx context.Context, cfg config.Config, streams Streams, log logrus.FieldLogger) error {
	appState := state.NewState(cfg)
	var scanner services.Scanner
	var status string
	if cfg.ImportFile != "" {
		result, err := importResult(cfg.ImportFile, streams.In)
		if err != nil {
			return err
		}
		appState.Complete(result.Tree, result.Stats)
		status = loadedStatus(cfg.ImportFile, result)
	} else {
		scanner = services.NewFSScanner(log)
	}

	model := ui.NewModel(ctx, appState, scanner, ScanRequest(cfg), cfg).WithStatus(status)
	options := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
	if cfg.ImportFile == "-" {
		// stdin carries the export, keys come from the terminal.
		options = append(options, tea.WithInputTTY())
	}
	finalModel, err := tea.NewProgram(model, options...).Run()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("terminal: %w", err)
	}

	final, ok := finalModel.(ui.Model)
	if !ok {
		return nil
	}
	if !cfg.IgnoreConfig {
		if err := config.SavePreferences(final.ConfigSnapshot()); err != nil {
			log.WithError(err).Warn("saving preferences failed")
		}
	}
	return final.Err()
}

// load produces the tree for headless runs, printing progress to the
// error stream when it is a terminal.
func load(ctx context.Context, cfg config.Config, streams Streams, log logrus.FieldLogger) (services.ScanResult, error) {
	if cfg.ImportFile != "" {
		return importResult(cfg.ImportFile, streams.In)
	}

	var progress chan services.ScanProgress
	done := make(chan struct{})
	if isTerminal(streams.Err) {
		progress = make(chan services.ScanProgress, 64)
		fmt.Fprint(streams.Err, "\033[?25l")
		go func() {
			defer close(done)
			for update := range progress {
				fmt.Fprintf(streams.Err, "\r\033[2KScanning… %s items, %s  %s\r",
					humanize.Comma(update.Stats.Entries), humanize.IBytes(uint64(update.Stats.Size)), update.Current)
			}
			fmt.Fprint(streams.Err, "\r\033[2K\r\033[?25h")
		}()
	} else {
		close(done)
	}

	result, err := services.NewFSScanner(log).Scan(ctx, ScanRequest(cfg), progress)
	if progress != nil {
		close(progress)
	}
	<-done
	return result, err
}

func importResult(path string, stdin io.Reader) (services.ScanResult, error) {
	if path == "-" {
		return services.Import(stdin)
	}
	return services.ImportFile(path)
}

func loadedStatus(path string, result services.ScanResult) string {
	if path == "-" {
		path = "stdin"
	}
	return fmt.Sprintf("Loaded %s items from %s", humanize.Comma(result.Stats.Entries), path)
}

func export(cfg config.Config, result services.ScanResult, stdout io.Writer) error {
	opts := services.ExportOptions{Format: services.FormatJSON, Compress: cfg.Compress}
	path := cfg.OutputJSON
	if cfg.OutputBinary != "" {
		opts.Format = services.FormatBinary
		path = cfg.OutputBinary
	}
	if path == "-" {
		return services.Export(stdout, result, opts)
	}
	return services.ExportFile(path, result, opts)
}

func newLogger(cfg config.Config) (*logrus.Logger, func(), error) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	if cfg.LogLevel != "" {
		level, err := logrus.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, nil, err
		}
		log.SetLevel(level)
	}
	if cfg.LogFile == "" {
		return log, func() {}, nil
	}
	file, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("log file: %w", err)
	}
	log.SetOutput(file)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: true})
	return log, func() { file.Close() }, nil
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}
