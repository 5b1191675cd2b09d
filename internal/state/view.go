package state

import "sweepdu/internal/domain"

type Entry struct {
	Ref  domain.Ref
	Node *domain.Node
	// Usage is the displayed size under the current size mode.
	Usage int64
}

// View is the read-only snapshot handed to the render adapter.
type View struct {
	Mode       Mode
	Path       string
	Breadcrumb []string
	Entries    []Entry
	Selected   int
	DirUsage   int64
	DirItems   int64
	Stats      domain.StatsSnapshot
	Progress   Progress
	Prefs      Preferences
	ShowHelp   bool
	Err        error
}

func (appState *State) View() View {
	view := View{
		Mode:       appState.Mode,
		Path:       appState.CurrentPath(),
		Breadcrumb: appState.Breadcrumb(),
		Selected:   appState.Cursor,
		Stats:      appState.Stats,
		Progress:   appState.Progress,
		Prefs:      appState.Prefs,
		ShowHelp:   appState.ShowHelp,
		Err:        appState.Err,
	}
	if appState.Mode != Browsing {
		return view
	}
	if current := appState.CurrentNode(); current != nil {
		view.DirUsage = current.Usage(appState.Prefs.ApparentSize)
		view.DirItems = current.Agg.TotalItems
	}
	listing := appState.Listing()
	view.Entries = make([]Entry, 0, len(listing))
	for _, ref := range listing {
		node := appState.Tree.Node(ref)
		view.Entries = append(view.Entries, Entry{Ref: ref, Node: node, Usage: node.Usage(appState.Prefs.ApparentSize)})
	}
	return view
}
