// Package ingest imports a folder of markdown files as content nodes.
//
// Every directory becomes a folder node and every *.md file a node whose
// parent is the enclosing directory. Frontmatter keys become properties;
// wikilink values become references, resolved against the imported nodes.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/aidanlsb/corvid/internal/model"
	"github.com/aidanlsb/corvid/internal/slugs"
	"github.com/aidanlsb/corvid/internal/wikilink"
)

const (
	// FolderType is the type of directory nodes.
	FolderType = "folder"
	// PageType is the type of files whose frontmatter names none.
	PageType = "page"

	// TitleProperty holds a page's first heading.
	TitleProperty = "title"
	// LinksProperty holds the targets of wikilinks in a page body.
	LinksProperty = "links"
)

// Namespace seeds the name-based UUIDs of imported nodes.
var Namespace = uuid.MustParse("8f5d0c2e-6b1a-5e4f-9a3c-2d7e1b0f4a61")

var (
	// ErrNotDirectory indicates the import root is not a directory.
	ErrNotDirectory = errors.New("not a directory")
	// ErrDuplicateID indicates two imported nodes share an ID.
	ErrDuplicateID = errors.New("duplicate node id")
)

// Sink receives imported nodes. store.Store satisfies it.
type Sink interface {
	SaveNodes(ctx context.Context, nodes []*model.Node) error
}

// Report summarizes an import.
type Report struct {
	Nodes   int `json:"nodes"`
	Folders int `json:"folders"`
	Refs    int `json:"refs"`
	// Unresolved lists "path -> target" for references kept verbatim.
	Unresolved []string `json:"unresolved,omitempty"`
}

// Option configures Import.
type Option func(*importer)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(im *importer) { im.logger = l }
}

type importer struct {
	root   string
	logger *slog.Logger

	nodes  []*model.Node
	byPath map[string]*model.Node
	byID   map[string]*model.Node
	byName map[string][]*model.Node
	report Report
}

// Import reads dir and saves its nodes to sink in one batch, parents
// before children. Hidden files and directories are skipped.
func Import(ctx context.Context, dir string, sink Sink, opts ...Option) (*Report, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", dir, ErrNotDirectory)
	}

	im := &importer{
		root:   dir,
		logger: slog.Default(),
		byPath: make(map[string]*model.Node),
		byID:   make(map[string]*model.Node),
		byName: make(map[string][]*model.Node),
	}
	for _, opt := range opts {
		opt(im)
	}

	if err := im.walk(ctx); err != nil {
		return nil, err
	}
	im.resolve()

	if err := sink.SaveNodes(ctx, im.nodes); err != nil {
		return nil, fmt.Errorf("save imported nodes: %w", err)
	}
	im.logger.Info("import finished",
		"dir", dir,
		"nodes", im.report.Nodes,
		"folders", im.report.Folders,
		"refs", im.report.Refs,
		"unresolved", len(im.report.Unresolved),
	)
	return &im.report, nil
}

func (im *importer) walk(ctx context.Context) error {
	return filepath.WalkDir(im.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(im.root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		switch {
		case d.IsDir():
			return im.add(im.folder(rel))
		case strings.EqualFold(path.Ext(rel), ".md"):
			n, err := im.page(p, rel)
			if err != nil {
				return fmt.Errorf("%s: %w", rel, err)
			}
			return im.add(n)
		}
		return nil
	})
}

func (im *importer) add(n *model.Node) error {
	if prev, dup := im.byID[n.ID]; dup {
		return fmt.Errorf("%w: %s used by %s and %s", ErrDuplicateID, n.ID, prev.Path, n.Path)
	}
	im.nodes = append(im.nodes, n)
	im.byID[n.ID] = n
	im.byPath[n.Path] = n
	key := slugs.Name(n.Name)
	im.byName[key] = append(im.byName[key], n)
	if n.Type == FolderType {
		im.report.Folders++
	}
	im.report.Nodes++
	return nil
}

// parent returns the folder node of rel's directory, or nil at top level.
func (im *importer) parent(rel string) *model.Node {
	dir := path.Dir(rel)
	if dir == "." {
		return nil
	}
	return im.byPath[slugs.Path(dir)]
}

func (im *importer) place(n *model.Node, rel string) {
	component := slugs.Name(n.Name)
	if p := im.parent(rel); p != nil {
		n.ParentID = p.ID
		n.Path = p.Path + "/" + component
		return
	}
	n.Path = "/" + component
}

func (im *importer) folder(rel string) *model.Node {
	n := &model.Node{
		ID:   uuid.NewSHA1(Namespace, []byte(rel+"/")).String(),
		Name: slugs.Name(path.Base(rel)),
		Type: FolderType,
	}
	im.place(n, rel)
	return n
}

func (im *importer) page(file, rel string) (*model.Node, error) {
	content, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	text := strings.ReplaceAll(string(content), "\r\n", "\n")

	fm := &frontmatter{}
	raw, body, ok := splitFrontmatter(text)
	if ok {
		if fm, err = parseFrontmatter(raw); err != nil {
			return nil, err
		}
	}

	n := &model.Node{
		ID:         fm.id,
		Name:       fm.name,
		Type:       fm.typ,
		Properties: fm.props,
		Body:       strings.TrimSpace(body),
	}
	if n.ID == "" {
		n.ID = uuid.NewSHA1(Namespace, []byte(rel)).String()
	}
	if n.Name == "" {
		n.Name = slugs.Name(path.Base(rel))
	}
	if n.Type == "" {
		n.Type = PageType
	}
	im.place(n, rel)

	if _, has := n.Property(TitleProperty); !has {
		if title := firstHeading(n.Body); title != "" {
			n.SetProperty(model.Property{Name: TitleProperty, Type: model.PropertyString, Values: []string{title}})
		}
	}
	if _, has := n.Property(LinksProperty); !has {
		if targets := wikilink.Targets(n.Body); len(targets) > 0 {
			n.SetProperty(model.Property{Name: LinksProperty, Type: model.PropertyReference, Values: targets})
		}
	}
	return n, nil
}

// resolve rewrites reference targets to node IDs. A target matches a node
// path first, then a unique node name, then a node ID.
func (im *importer) resolve() {
	for _, n := range im.nodes {
		for i := range n.Properties {
			p := &n.Properties[i]
			if p.Type != model.PropertyReference {
				continue
			}
			for j, target := range p.Values {
				im.report.Refs++
				if id, ok := im.lookup(target); ok {
					p.Values[j] = id
					continue
				}
				im.report.Unresolved = append(im.report.Unresolved, n.Path+" -> "+target)
				im.logger.Debug("unresolved reference", "node", n.Path, "property", p.Name, "target", target)
			}
		}
	}
}

func (im *importer) lookup(target string) (string, bool) {
	if n, ok := im.byPath[slugs.Path(target)]; ok {
		return n.ID, true
	}
	if named := im.byName[slugs.Name(target)]; len(named) == 1 {
		return named[0].ID, true
	}
	if n, ok := im.byID[target]; ok {
		return n.ID, true
	}
	return "", false
}
