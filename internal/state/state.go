package state

import (
	"sort"

	"sweepdu/internal/config"
	"sweepdu/internal/domain"
)

type Mode int

const (
	Scanning Mode = iota
	Browsing
	Quit
)

func (mode Mode) String() string {
	switch mode {
	case Scanning:
		return "scanning"
	case Browsing:
		return "browsing"
	default:
		return "quit"
	}
}

type Preferences struct {
	Sort         domain.SortSpec
	DirsFirst    bool
	ShowHidden   bool
	ApparentSize bool
	NaturalSort  bool
	Theme        string
}

type Progress struct {
	Current string
	Stats   domain.StatsSnapshot
}

type frame struct {
	dir      domain.Ref
	selected domain.Ref
	cursor   int
}

const defaultPageSize = 20

// State is the navigation controller. It never touches the terminal; the
// render adapter reads View and feeds key actions back in.
type State struct {
	Mode     Mode
	Path     string
	Tree     *domain.Tree
	Current  domain.Ref
	Cursor   int
	Prefs    Preferences
	Progress Progress
	Stats    domain.StatsSnapshot
	Err      error
	ShowHelp bool
	PageSize int

	stack   []frame
	listing []domain.Ref
	stale   bool
}

func NewState(cfg config.Config) *State {
	return &State{
		Mode:    Scanning,
		Path:    cfg.Path,
		Current: domain.NoRef,
		Prefs: Preferences{
			Sort:         cfg.SortSpec(),
			DirsFirst:    cfg.DirsFirst,
			ShowHidden:   cfg.ShowHidden,
			ApparentSize: cfg.ApparentSize,
			NaturalSort:  !cfg.DisableNatSort,
			Theme:        cfg.Theme,
		},
		PageSize: defaultPageSize,
		stale:    true,
	}
}

func (appState *State) ApplyProgress(progress Progress) bool {
	if appState.Mode != Scanning {
		return false
	}
	appState.Progress = progress
	appState.Stats = progress.Stats
	return true
}

// Complete moves a scanning state to browsing at the root of tree.
func (appState *State) Complete(tree *domain.Tree, stats domain.StatsSnapshot) bool {
	if appState.Mode != Scanning || tree == nil || tree.Root() == domain.NoRef {
		return false
	}
	appState.Mode = Browsing
	appState.Tree = tree
	appState.Stats = stats
	appState.Current = tree.Root()
	appState.Cursor = 0
	appState.stack = nil
	appState.stale = true
	return true
}

func (appState *State) Fail(err error) bool {
	if appState.Mode != Scanning {
		return false
	}
	appState.Mode = Quit
	appState.Err = err
	return true
}

// Cancel aborts a running scan. Nothing of the partial scan is kept.
func (appState *State) Cancel() bool {
	if appState.Mode != Scanning {
		return false
	}
	appState.Mode = Quit
	appState.Tree = nil
	return true
}

func (appState *State) Quit() {
	appState.Mode = Quit
}

func (appState *State) Move(delta int) bool {
	if appState.Mode != Browsing {
		return false
	}
	entries := appState.Listing()
	if len(entries) == 0 {
		return false
	}
	next := clamp(appState.Cursor+delta, 0, len(entries)-1)
	if next == appState.Cursor {
		return false
	}
	appState.Cursor = next
	return true
}

func (appState *State) PageUp() bool {
	return appState.Move(-appState.pageSize())
}

func (appState *State) PageDown() bool {
	return appState.Move(appState.pageSize())
}

func (appState *State) Home() bool {
	return appState.Move(-appState.Cursor)
}

func (appState *State) End() bool {
	return appState.Move(len(appState.Listing()) - 1 - appState.Cursor)
}

func (appState *State) SetPageSize(size int) {
	if size > 0 {
		appState.PageSize = size
	}
}

func (appState *State) pageSize() int {
	if appState.PageSize > 0 {
		return appState.PageSize
	}
	return defaultPageSize
}

// Descend enters the selected entry when it is a directory with children.
func (appState *State) Descend() bool {
	if appState.Mode != Browsing {
		return false
	}
	selected := appState.Selected()
	node := appState.Tree.Node(selected)
	if node == nil || !node.IsDir() || len(node.Children) == 0 {
		return false
	}
	appState.stack = append(appState.stack, frame{dir: appState.Current, selected: selected, cursor: appState.Cursor})
	appState.Current = selected
	appState.Cursor = 0
	appState.stale = true
	return true
}

// Ascend returns to the parent directory with its previous selection.
func (appState *State) Ascend() bool {
	if appState.Mode != Browsing || len(appState.stack) == 0 {
		return false
	}
	top := appState.stack[len(appState.stack)-1]
	appState.stack = appState.stack[:len(appState.stack)-1]
	appState.Current = top.dir
	appState.stale = true
	appState.Cursor = top.cursor
	appState.reselect(top.selected, top.cursor)
	return true
}

func (appState *State) Depth() int {
	return len(appState.stack)
}

func (appState *State) ToggleHelp() bool {
	appState.ShowHelp = !appState.ShowHelp
	return appState.ShowHelp
}

// SortBy selects a column. Choosing the active column again flips its order.
func (appState *State) SortBy(column domain.SortColumn) domain.SortSpec {
	if appState.Prefs.Sort.Column == column {
		return appState.ReverseSort()
	}
	return appState.setSort(domain.SortSpec{Column: column, Order: domain.DefaultOrder(column)})
}

func (appState *State) ReverseSort() domain.SortSpec {
	return appState.setSort(appState.Prefs.Sort.Reversed())
}

func (appState *State) setSort(spec domain.SortSpec) domain.SortSpec {
	appState.relist(func() { appState.Prefs.Sort = spec })
	return spec
}

func (appState *State) ToggleDirsFirst() bool {
	appState.relist(func() { appState.Prefs.DirsFirst = !appState.Prefs.DirsFirst })
	return appState.Prefs.DirsFirst
}

func (appState *State) ToggleHidden() bool {
	appState.relist(func() { appState.Prefs.ShowHidden = !appState.Prefs.ShowHidden })
	return appState.Prefs.ShowHidden
}

func (appState *State) ToggleApparent() bool {
	appState.relist(func() { appState.Prefs.ApparentSize = !appState.Prefs.ApparentSize })
	return appState.Prefs.ApparentSize
}

func (appState *State) ToggleNaturalSort() bool {
	appState.relist(func() { appState.Prefs.NaturalSort = !appState.Prefs.NaturalSort })
	return appState.Prefs.NaturalSort
}

// relist applies a view change and keeps the same node selected.
func (appState *State) relist(change func()) {
	selected := appState.Selected()
	change()
	appState.stale = true
	appState.reselect(selected, appState.Cursor)
}

func (appState *State) reselect(ref domain.Ref, fallback int) {
	entries := appState.Listing()
	for index, entry := range entries {
		if entry == ref {
			appState.Cursor = index
			return
		}
	}
	appState.Cursor = clamp(fallback, 0, maxInt(len(entries)-1, 0))
}

// Listing is the sorted, filtered view of the current directory. The
// stored child order is never changed.
func (appState *State) Listing() []domain.Ref {
	if appState.Tree == nil {
		return nil
	}
	if !appState.stale {
		return appState.listing
	}
	children := appState.Tree.Children(appState.Current)
	listing := make([]domain.Ref, 0, len(children))
	for _, ref := range children {
		if !appState.Prefs.ShowHidden && appState.Tree.Node(ref).Hidden() {
			continue
		}
		listing = append(listing, ref)
	}
	less := appState.lessFunc()
	sort.SliceStable(listing, func(i, j int) bool {
		return less(appState.Tree.Node(listing[i]), appState.Tree.Node(listing[j]))
	})
	appState.listing = listing
	appState.stale = false
	return listing
}

func (appState *State) Selected() domain.Ref {
	entries := appState.Listing()
	if appState.Cursor < 0 || appState.Cursor >= len(entries) {
		return domain.NoRef
	}
	return entries[appState.Cursor]
}

func (appState *State) SelectedNode() *domain.Node {
	return appState.Tree.Node(appState.Selected())
}

func (appState *State) CurrentNode() *domain.Node {
	return appState.Tree.Node(appState.Current)
}

func (appState *State) CurrentPath() string {
	if appState.Tree == nil {
		return appState.Path
	}
	return appState.Tree.Path(appState.Current)
}

// Breadcrumb lists the names from the root down to the current directory.
func (appState *State) Breadcrumb() []string {
	if appState.Tree == nil {
		return []string{appState.Path}
	}
	chain := appState.Tree.Ancestors(appState.Current)
	crumbs := make([]string, 0, len(chain))
	for index, ref := range chain {
		if index == 0 {
			crumbs = append(crumbs, appState.Tree.RootPath)
			continue
		}
		crumbs = append(crumbs, appState.Tree.Node(ref).DisplayName())
	}
	return crumbs
}

func (appState *State) lessFunc() func(a, b *domain.Node) bool {
	prefs := appState.Prefs
	names := func(a, b *domain.Node) int {
		if prefs.NaturalSort {
			return domain.NaturalCompare(a.Name, b.Name)
		}
		return compareStrings(a.Name, b.Name)
	}
	return func(a, b *domain.Node) bool {
		if prefs.DirsFirst && a.IsDir() != b.IsDir() {
			return a.IsDir()
		}
		var result int
		switch prefs.Sort.Column {
		case domain.SortByName:
			result = names(a, b)
		case domain.SortByApparentSize:
			result = compareInt64(a.Agg.TotalSize, b.Agg.TotalSize)
		case domain.SortByItemCount:
			result = compareInt64(a.Agg.TotalItems, b.Agg.TotalItems)
		case domain.SortByModTime:
			result = a.ModTime().Compare(b.ModTime())
		default:
			result = compareInt64(a.Usage(false), b.Usage(false))
		}
		if prefs.Sort.Order == domain.SortDesc {
			result = -result
		}
		if result == 0 {
			result = names(a, b)
		}
		return result < 0
	}
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func clamp(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
