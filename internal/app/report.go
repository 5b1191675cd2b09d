package app

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"sweepdu/internal/domain"
	"sweepdu/internal/services"
)

const (
	tabSpacing    = 2
	summaryTop    = 10
	summaryErrors = 10
)

// PrintSummary writes the totals of a finished scan, its largest entries
// and the first errors met.
func PrintSummary(w io.Writer, result services.ScanResult, si bool) error {
	tree := result.Tree
	root := tree.Node(tree.Root())
	if root == nil {
		return fmt.Errorf("summary: empty tree")
	}
	size := humanize.IBytes
	if si {
		size = humanize.Bytes
	}

	table := tabwriter.NewWriter(w, 0, 4, tabSpacing, ' ', 0)
	fmt.Fprintf(table, "Path:\t%s\n", tree.RootPath)
	fmt.Fprintf(table, "Disk usage:\t%s\n", size(uint64(root.Usage(false))))
	fmt.Fprintf(table, "Apparent size:\t%s\n", size(uint64(root.Usage(true))))
	fmt.Fprintf(table, "Items:\t%s\n", humanize.Comma(root.Agg.TotalItems))
	fmt.Fprintf(table, "Directories:\t%s\n", humanize.Comma(result.Stats.Directories))
	fmt.Fprintf(table, "Files:\t%s\n", humanize.Comma(result.Stats.Files))
	if result.Stats.SharedBlocks > 0 {
		fmt.Fprintf(table, "Hard links counted once:\t%s\n", size(uint64(result.Stats.SharedBlocks*domain.BlockSize)))
	}
	fmt.Fprintf(table, "Errors:\t%d\n", result.Stats.Errors)
	if result.Duration > 0 {
		fmt.Fprintf(table, "Time:\t%s\n", result.Duration.Round(time.Millisecond))
	}

	children := append([]domain.Ref(nil), root.Children...)
	sort.SliceStable(children, func(i, j int) bool {
		return tree.Node(children[i]).Usage(false) > tree.Node(children[j]).Usage(false)
	})
	if len(children) > summaryTop {
		children = children[:summaryTop]
	}
	if len(children) > 0 {
		fmt.Fprintln(table, "\nLargest entries:\t")
		for index, ref := range children {
			node := tree.Node(ref)
			name := node.DisplayName()
			if node.IsDir() {
				name += "/"
			}
			fmt.Fprintf(table, "  %d) %s\t%s\n", index+1, name, size(uint64(node.Usage(false))))
		}
	}

	var failures []string
	tree.Walk(func(ref domain.Ref, _ int) bool {
		if node := tree.Node(ref); node.Kind == domain.KindError && len(failures) < summaryErrors {
			failures = append(failures, fmt.Sprintf("  %s\t%s", tree.RelPath(ref), node.Err))
		}
		return len(failures) < summaryErrors
	})
	if len(failures) > 0 {
		fmt.Fprintln(table, "\nErrors:\t")
		for _, line := range failures {
			fmt.Fprintln(table, line)
		}
	}
	return table.Flush()
}
