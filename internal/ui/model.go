package ui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"sweepdu/internal/config"
	"sweepdu/internal/domain"
	"sweepdu/internal/services"
	"sweepdu/internal/state"
)

// progressBuffer bounds queued progress updates. Updates beyond it are
// dropped by the scanner, never the final result.
const progressBuffer = 64

type Model struct {
	state    *state.State
	scanner  services.Scanner
	request  services.ScanRequest
	config   config.Config
	keys     KeyMap
	spinner  spinner.Model
	scanCtx  context.Context
	cancel   context.CancelFunc
	progress chan services.ScanProgress
	status   string
	width    int
	height   int
	viewTop  int
}

type ConfigProvider interface {
	ConfigSnapshot() config.Config
}

// NewModel prepares the browser. When appState is still scanning, Init
// starts request on scanner; otherwise the model browses the tree already
// held by appState.
func NewModel(ctx context.Context, appState *state.State, scanner services.Scanner, request services.ScanRequest, cfg config.Config) Model {
	scanCtx, cancel := context.WithCancel(ctx)
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	return Model{
		state:    appState,
		scanner:  scanner,
		request:  request,
		config:   cfg,
		keys:     DefaultKeyMap(),
		spinner:  spin,
		scanCtx:  scanCtx,
		cancel:   cancel,
		progress: make(chan services.ScanProgress, progressBuffer),
		width:    100,
		height:   30,
	}
}

func (model Model) WithStatus(message string) Model {
	if message != "" {
		model.status = message
	}
	return model
}

// ConfigSnapshot returns the starting configuration with the browsing
// preferences as they are now.
func (model Model) ConfigSnapshot() config.Config {
	cfg := model.config
	prefs := model.state.Prefs
	cfg.Sort = prefs.Sort.String()
	cfg.DirsFirst = prefs.DirsFirst
	cfg.ShowHidden = prefs.ShowHidden
	cfg.ApparentSize = prefs.ApparentSize
	cfg.DisableNatSort = !prefs.NaturalSort
	return cfg
}

// Err is the fatal scan error that ended the session, if any.
func (model Model) Err() error {
	return model.state.Err
}

func (model Model) Init() tea.Cmd {
	if model.state.Mode != state.Scanning || model.scanner == nil {
		return nil
	}
	return tea.Batch(model.scanCmd(), model.waitCmd(), model.spinner.Tick)
}

func (model Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		return model.handleKey(typed)
	case tea.WindowSizeMsg:
		model.width = typed.Width
		model.height = typed.Height
		model.state.SetPageSize(model.listHeight())
		model.ensureCursorVisible()
		return model, nil
	case scanProgressMsg:
		model.state.ApplyProgress(state.Progress{Current: typed.progress.Current, Stats: typed.progress.Stats})
		return model, model.waitCmd()
	case scanDoneMsg:
		model.cancelScan()
		if typed.err != nil {
			if errors.Is(typed.err, context.Canceled) {
				model.state.Cancel()
				return model, tea.Quit
			}
			model.state.Fail(typed.err)
			return model, tea.Quit
		}
		if model.state.Complete(typed.result.Tree, typed.result.Stats) {
			model.status = fmt.Sprintf("%s items scanned in %s",
				humanize.Comma(typed.result.Stats.Entries), typed.result.Duration.Round(time.Millisecond))
			model.ensureCursorVisible()
		}
		return model, nil
	case spinner.TickMsg:
		if model.state.Mode != state.Scanning {
			return model, nil
		}
		var cmd tea.Cmd
		model.spinner, cmd = model.spinner.Update(typed)
		return model, cmd
	}
	return model, nil
}

func (model Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, model.keys.Quit) {
		if model.state.Mode == state.Scanning {
			model.state.Cancel()
		} else {
			model.state.Quit()
		}
		model.cancelScan()
		return model, tea.Quit
	}
	if model.state.Mode != state.Browsing {
		return model, nil
	}
	if model.state.ShowHelp {
		// Any key closes the overlay.
		model.state.ToggleHelp()
		return model, nil
	}

	appState := model.state
	switch {
	case key.Matches(msg, model.keys.Help):
		appState.ToggleHelp()
	case key.Matches(msg, model.keys.Up):
		appState.Move(-1)
	case key.Matches(msg, model.keys.Down):
		appState.Move(1)
	case key.Matches(msg, model.keys.PageUp):
		appState.PageUp()
	case key.Matches(msg, model.keys.PageDown):
		appState.PageDown()
	case key.Matches(msg, model.keys.Home):
		appState.Home()
	case key.Matches(msg, model.keys.End):
		appState.End()
	case key.Matches(msg, model.keys.Enter):
		if appState.Descend() {
			model.viewTop = 0
		}
	case key.Matches(msg, model.keys.Back):
		appState.Ascend()
	case key.Matches(msg, model.keys.SortName):
		model.status = "Sort: " + appState.SortBy(domain.SortByName).String()
	case key.Matches(msg, model.keys.SortSize):
		model.status = "Sort: " + appState.SortBy(domain.SortByDiskUsage).String()
	case key.Matches(msg, model.keys.SortApparent):
		model.status = "Sort: " + appState.SortBy(domain.SortByApparentSize).String()
	case key.Matches(msg, model.keys.SortItems):
		model.status = "Sort: " + appState.SortBy(domain.SortByItemCount).String()
	case key.Matches(msg, model.keys.SortMtime):
		model.status = "Sort: " + appState.SortBy(domain.SortByModTime).String()
	case key.Matches(msg, model.keys.DirsFirst):
		model.status = onOff("Directories first", appState.ToggleDirsFirst())
	case key.Matches(msg, model.keys.Apparent):
		if appState.ToggleApparent() {
			model.status = "Showing apparent size"
		} else {
			model.status = "Showing disk usage"
		}
	case key.Matches(msg, model.keys.Hidden):
		model.status = onOff("Hidden files", appState.ToggleHidden())
	case key.Matches(msg, model.keys.NaturalSort):
		model.status = onOff("Natural sort", appState.ToggleNaturalSort())
	}
	model.ensureCursorVisible()
	return model, nil
}

// scanCmd runs the scan. Its result is delivered as a command message, so
// it is never dropped the way progress updates may be.
func (model Model) scanCmd() tea.Cmd {
	ctx := model.scanCtx
	scanner := model.scanner
	request := model.request
	progress := model.progress
	return func() tea.Msg {
		defer close(progress)
		result, err := scanner.Scan(ctx, request, progress)
		return scanDoneMsg{result: result, err: err}
	}
}

// waitCmd delivers the next progress update. It stops re-arming once the
// scan has closed the channel.
func (model Model) waitCmd() tea.Cmd {
	progress := model.progress
	return func() tea.Msg {
		update, ok := <-progress
		if !ok {
			return nil
		}
		return scanProgressMsg{progress: update}
	}
}

func (model *Model) cancelScan() {
	if model.cancel != nil {
		model.cancel()
		model.cancel = nil
	}
}

func (model *Model) ensureCursorVisible() {
	count := len(model.state.Listing())
	if count == 0 {
		model.viewTop = 0
		return
	}
	listHeight := model.listHeight()
	if model.state.Cursor < model.viewTop {
		model.viewTop = model.state.Cursor
	}
	if model.state.Cursor >= model.viewTop+listHeight {
		model.viewTop = model.state.Cursor - listHeight + 1
	}
	model.viewTop = clamp(model.viewTop, 0, maxInt(count-listHeight, 0))
}

// listHeight is the number of rows left after the header and the two
// footer lines.
func (model Model) listHeight() int {
	return maxInt(model.height-3, 1)
}

func onOff(label string, on bool) string {
	if on {
		return label + ": on"
	}
	return label + ": off"
}
