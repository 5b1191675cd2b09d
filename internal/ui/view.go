package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"sweepdu/internal/domain"
	"sweepdu/internal/state"
)

const graphWidth = 10

type uiStyles struct {
	headerStyle lipgloss.Style
	mutedStyle  lipgloss.Style
	statusStyle lipgloss.Style
	warnStyle   lipgloss.Style
	cursorStyle lipgloss.Style
	panelBorder lipgloss.Style
}

func stylesFor(theme string) uiStyles {
	if strings.ToLower(theme) == "light" {
		return uiStyles{
			headerStyle: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("235")),
			mutedStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("242")),
			statusStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("25")).Bold(true),
			warnStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("124")).Bold(true),
			cursorStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("90")).Bold(true),
			panelBorder: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
		}
	}
	return uiStyles{
		headerStyle: lipgloss.NewStyle().Bold(true),
		mutedStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		statusStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("69")).Bold(true),
		warnStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("204")).Bold(true),
		cursorStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true),
		panelBorder: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
	}
}

func (model Model) View() string {
	view := model.state.View()
	styles := stylesFor(view.Prefs.Theme)
	switch {
	case view.Mode == state.Quit:
		return ""
	case view.Mode == state.Scanning:
		return renderScanning(model, styles, view)
	case view.ShowHelp:
		return renderHelpView(model, styles)
	}
	return strings.Join([]string{
		renderHeader(model, styles, view),
		renderList(model, styles, view),
		renderFooter(model, styles, view),
	}, "\n")
}

func renderHeader(model Model, styles uiStyles, view state.View) string {
	right := styles.statusStyle.Render(view.Prefs.Sort.String())
	room := maxInt(model.width-lipgloss.Width(right)-10, 10)
	left := styles.headerStyle.Render("sweepdu") + "  " + runewidth.Truncate(breadcrumbs(view.Breadcrumb), room, "…")
	return padLine(left, right, model.width)
}

func renderList(model Model, styles uiStyles, view state.View) string {
	height := model.listHeight()
	lines := make([]string, 0, height)
	if len(view.Entries) == 0 {
		lines = append(lines, styles.mutedStyle.Render("  (empty directory)"))
	}
	var largest int64
	for _, entry := range view.Entries {
		if entry.Usage > largest {
			largest = entry.Usage
		}
	}
	start := clamp(model.viewTop, 0, maxInt(len(view.Entries)-1, 0))
	end := minInt(start+height, len(view.Entries))
	for index := start; index < end; index++ {
		entry := view.Entries[index]
		line := renderRow(entry, largest, view.Prefs.ApparentSize, model.config.SI, model.width)
		switch {
		case index == view.Selected:
			line = styles.cursorStyle.Render(line)
		case entry.Node.Kind == domain.KindError:
			line = styles.warnStyle.Render(line)
		case entry.Node.Kind.Placeholder():
			line = styles.mutedStyle.Render(line)
		}
		lines = append(lines, line)
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func renderRow(entry state.Entry, largest int64, apparent, si bool, width int) string {
	node := entry.Node
	items := ""
	if node.IsDir() {
		items = humanize.Comma(node.Agg.TotalItems)
	}
	prefix := fmt.Sprintf("%s %10s [%s] %7s  ", indicator(node), formatSize(entry.Usage, si), graphBar(entry.Usage, largest, graphWidth), items)
	name := node.DisplayName()
	if node.IsDir() {
		name += "/"
	}
	if node.Err != "" {
		name += "  (" + node.Err + ")"
	}
	if node.Kind == domain.KindKernelFS && node.FSType != "" {
		name += "  (" + node.FSType + ")"
	}
	if node.Kind == domain.KindHardlink && !apparent {
		name += "  (shared)"
	}
	room := maxInt(width-runewidth.StringWidth(prefix), 4)
	return prefix + runewidth.Truncate(name, room, "…")
}

func renderFooter(model Model, styles uiStyles, view state.View) string {
	label := "Disk usage"
	if view.Prefs.ApparentSize {
		label = "Apparent size"
	}
	summary := fmt.Sprintf("%s: %s  Items: %s", label, formatSize(view.DirUsage, model.config.SI), humanize.Comma(view.DirItems))
	if view.Stats.Errors > 0 {
		summary += "  " + styles.warnStyle.Render(fmt.Sprintf("Errors: %d", view.Stats.Errors))
	}
	statusLine := padLine(summary, styles.mutedStyle.Render(model.status), model.width)
	keys := "↑/↓ move  → open  ← back  n/s/A/C/M sort  t dirs first  a size  e hidden  ? help  q quit"
	return strings.Join([]string{statusLine, styles.mutedStyle.Render(runewidth.Truncate(keys, maxInt(model.width, 10), "…"))}, "\n")
}

func renderScanning(model Model, styles uiStyles, view state.View) string {
	stats := view.Progress.Stats
	room := maxInt(model.width-14, 10)
	lines := []string{
		styles.headerStyle.Render("sweepdu") + "  " + runewidth.Truncate(view.Path, room, "…"),
		"",
		model.spinner.View() + " Scanning " + runewidth.Truncate(view.Progress.Current, room, "…"),
		fmt.Sprintf("Items: %s  Directories: %s  Files: %s",
			humanize.Comma(stats.Entries), humanize.Comma(stats.Directories), humanize.Comma(stats.Files)),
		fmt.Sprintf("Size: %s  Disk usage: %s", formatSize(stats.Size, model.config.SI), formatSize(stats.Blocks*domain.BlockSize, model.config.SI)),
	}
	if stats.Errors > 0 {
		lines = append(lines, styles.warnStyle.Render(fmt.Sprintf("Errors: %d", stats.Errors)))
	}
	lines = append(lines, "", styles.mutedStyle.Render("q to cancel"))
	return strings.Join(lines, "\n")
}

func renderHelpView(model Model, styles uiStyles) string {
	lines := []string{styles.headerStyle.Render("sweepdu help"), ""}
	lines = append(lines, styles.headerStyle.Render("Keys"))
	for _, binding := range model.keys.helpBindings() {
		help := binding.Help()
		lines = append(lines, fmt.Sprintf("%-12s %s", help.Key, help.Desc))
	}
	lines = append(lines, "", styles.headerStyle.Render("Indicators"))
	lines = append(lines,
		"/  directory",
		"@  symbolic link",
		">  hard link counted elsewhere",
		"=  special file",
		"!  error reading entry",
		"x  excluded by pattern or cache tag",
		"~  other filesystem",
		"#  kernel filesystem",
	)
	lines = append(lines, "", "Press any key to close help")
	width := model.width
	if width <= 0 {
		width = 80
	}
	return styles.panelBorder.Width(maxInt(width-2, 10)).Render(strings.Join(lines, "\n"))
}

func indicator(node *domain.Node) string {
	switch node.Kind {
	case domain.KindDirectory:
		return "/"
	case domain.KindSymlink:
		return "@"
	case domain.KindHardlink:
		return ">"
	case domain.KindSpecial:
		return "="
	case domain.KindError:
		return "!"
	case domain.KindExcluded:
		return "x"
	case domain.KindOtherFS:
		return "~"
	case domain.KindKernelFS:
		return "#"
	default:
		return " "
	}
}

func formatSize(size int64, si bool) string {
	if size < 0 {
		size = 0
	}
	if si {
		return humanize.Bytes(uint64(size))
	}
	return humanize.IBytes(uint64(size))
}

func graphBar(value, largest int64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := 0
	if largest > 0 {
		filled = int(float64(value)/float64(largest)*float64(width) + 0.5)
	}
	filled = clamp(filled, 0, width)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func breadcrumbs(crumbs []string) string {
	return strings.Join(crumbs, " › ")
}

func padLine(left, right string, width int) string {
	if width <= 0 {
		return left
	}
	space := width - lipgloss.Width(left) - lipgloss.Width(right)
	if space < 1 {
		return left + " " + right
	}
	return left + strings.Repeat(" ", space) + right
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

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
