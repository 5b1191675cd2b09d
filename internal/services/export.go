package services

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
	"unicode/utf8"

	"sweepdu/internal/domain"
)

type Format string

const (
	FormatJSON   Format = "json"
	FormatBinary Format = "binary"
)

const (
	exportFormat  = "sweepdu"
	exportVersion = 1
	binaryMagic   = "SWDUGOB1"
)

var gzipMagic = []byte{0x1f, 0x8b}

type ExportOptions struct {
	Format   Format
	Compress bool
}

type exportFile struct {
	Format   string               `json:"format"`
	Version  int                  `json:"version"`
	RootPath string               `json:"root_path"`
	Stats    domain.StatsSnapshot `json:"stats"`
	Root     exportNode           `json:"root"`
}

type exportNode struct {
	Kind     string          `json:"kind"`
	Name     string          `json:"name,omitempty"`
	RawName  []byte          `json:"raw_name,omitempty"`
	Size     int64           `json:"asize"`
	Blocks   int64           `json:"blocks"`
	Dev      uint64          `json:"dev,omitempty"`
	Ino      uint64          `json:"ino,omitempty"`
	Nlink    uint64          `json:"nlink,omitempty"`
	Extended *exportExtended `json:"extended,omitempty"`
	Err      string          `json:"error,omitempty"`
	FSType   string          `json:"fstype,omitempty"`
	Children []exportNode    `json:"children,omitempty"`
}

type exportExtended struct {
	ModTime int64  `json:"mtime"`
	UID     uint32 `json:"uid"`
	GID     uint32 `json:"gid"`
	Mode    uint32 `json:"mode"`
}

// Export writes a finished scan in the requested format.
func Export(w io.Writer, result ScanResult, opts ExportOptions) error {
	if result.Tree == nil || result.Tree.Root() == domain.NoRef {
		return fmt.Errorf("export: empty tree")
	}
	file := exportFile{
		Format:   exportFormat,
		Version:  exportVersion,
		RootPath: result.Tree.RootPath,
		Stats:    result.Stats,
		Root:     toExportNode(result.Tree, result.Tree.Root()),
	}

	out := w
	var zipped *gzip.Writer
	if opts.Compress {
		zipped = gzip.NewWriter(w)
		out = zipped
	}
	buffered := bufio.NewWriter(out)

	var err error
	switch opts.Format {
	case FormatBinary:
		if _, err = buffered.WriteString(binaryMagic); err == nil {
			err = gob.NewEncoder(buffered).Encode(&file)
		}
	case FormatJSON, "":
		encoder := json.NewEncoder(buffered)
		encoder.SetIndent("", " ")
		err = encoder.Encode(&file)
	default:
		return fmt.Errorf("export format %q: %w", opts.Format, ErrUnknownFormat)
	}
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := buffered.Flush(); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if zipped != nil {
		return zipped.Close()
	}
	return nil
}

func ExportFile(path string, result ScanResult, opts ExportOptions) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if err := Export(file, result, opts); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func toExportNode(tree *domain.Tree, ref domain.Ref) exportNode {
	node := tree.Node(ref)
	out := exportNode{
		Kind:   node.Kind.String(),
		Size:   node.Size,
		Blocks: node.Blocks,
		Dev:    node.Dev,
		Ino:    node.Ino,
		Nlink:  node.Nlink,
		Err:    node.Err,
		FSType: node.FSType,
	}
	if utf8.ValidString(node.Name) {
		out.Name = node.Name
	} else {
		out.RawName = []byte(node.Name)
	}
	if node.Extended != nil {
		out.Extended = &exportExtended{
			ModTime: node.Extended.ModTime.Unix(),
			UID:     node.Extended.UID,
			GID:     node.Extended.GID,
			Mode:    node.Extended.Mode,
		}
	}
	if len(node.Children) > 0 {
		out.Children = make([]exportNode, 0, len(node.Children))
		for _, child := range node.Children {
			out.Children = append(out.Children, toExportNode(tree, child))
		}
	}
	return out
}

// Import reads either export format, compressed or not, and rebuilds a tree
// with fresh node IDs and recomputed aggregates.
func Import(r io.Reader) (ScanResult, error) {
	start := time.Now()
	reader := bufio.NewReader(r)
	if head, _ := reader.Peek(len(gzipMagic)); bytes.Equal(head, gzipMagic) {
		unzipped, err := gzip.NewReader(reader)
		if err != nil {
			return ScanResult{}, fmt.Errorf("import: %w", err)
		}
		defer unzipped.Close()
		reader = bufio.NewReader(unzipped)
	}

	var file exportFile
	head, _ := reader.Peek(len(binaryMagic))
	switch {
	case string(head) == binaryMagic:
		if _, err := reader.Discard(len(binaryMagic)); err != nil {
			return ScanResult{}, fmt.Errorf("import: %w", err)
		}
		if err := gob.NewDecoder(reader).Decode(&file); err != nil {
			return ScanResult{}, fmt.Errorf("import: %w", err)
		}
	case len(bytes.TrimLeft(head, " \t\r\n")) > 0 && bytes.TrimLeft(head, " \t\r\n")[0] == '{':
		if err := json.NewDecoder(reader).Decode(&file); err != nil {
			return ScanResult{}, fmt.Errorf("import: %w", err)
		}
	default:
		return ScanResult{}, ErrUnknownFormat
	}
	if file.Format != exportFormat {
		return ScanResult{}, fmt.Errorf("import: format %q: %w", file.Format, ErrUnknownFormat)
	}
	if file.Version != exportVersion {
		return ScanResult{}, fmt.Errorf("import: unsupported version %d", file.Version)
	}

	tree := domain.NewTree(file.RootPath)
	if err := addImported(tree, domain.NoRef, &file.Root); err != nil {
		return ScanResult{}, err
	}
	AggregateTree(tree)
	return ScanResult{
		RootPath: file.RootPath,
		Tree:     tree,
		Stats:    StatsFromTree(tree),
		Duration: time.Since(start),
	}, nil
}

func ImportFile(path string) (ScanResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return ScanResult{}, err
	}
	defer file.Close()
	return Import(file)
}

func addImported(tree *domain.Tree, parent domain.Ref, in *exportNode) error {
	kind, ok := domain.ParseKind(in.Kind)
	if !ok {
		return fmt.Errorf("import: node kind %q: %w", in.Kind, ErrUnknownFormat)
	}
	if parent == domain.NoRef && kind != domain.KindDirectory {
		return fmt.Errorf("import: root is a %s: %w", kind, ErrNotDirectory)
	}
	node := domain.Node{
		Kind:   kind,
		Name:   in.Name,
		Size:   in.Size,
		Blocks: in.Blocks,
		Dev:    in.Dev,
		Ino:    in.Ino,
		Nlink:  in.Nlink,
		Err:    in.Err,
		FSType: in.FSType,
	}
	if len(in.RawName) > 0 {
		node.Name = string(in.RawName)
	}
	if in.Extended != nil {
		node.Extended = &domain.Extended{
			ModTime: time.Unix(in.Extended.ModTime, 0),
			UID:     in.Extended.UID,
			GID:     in.Extended.GID,
			Mode:    in.Extended.Mode,
		}
	}
	ref := tree.Add(parent, node)
	for index := range in.Children {
		if err := addImported(tree, ref, &in.Children[index]); err != nil {
			return err
		}
	}
	return nil
}
