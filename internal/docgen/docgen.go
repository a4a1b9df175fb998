// Package docgen runs one document generation pass: load the property
// hierarchy, build the tree, render both views, canonicalize them and
// assemble the document.
package docgen

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/starford/propdoc/internal/apperr"
	"github.com/starford/propdoc/internal/checksum"
	"github.com/starford/propdoc/internal/document"
	"github.com/starford/propdoc/internal/markup"
	"github.com/starford/propdoc/internal/proptree"
	"github.com/starford/propdoc/internal/render"
	"github.com/starford/propdoc/internal/source"
	"github.com/starford/propdoc/internal/storage"
)

// Outline formats.
const (
	OutlineHTML     = "html"
	OutlineMarkdown = "markdown"
)

// Options configure a Generator.
type Options struct {
	Render        render.Config
	Layout        document.Layout
	OutlineFormat string
	StrictNames   bool
	Header        string
	Footer        string
	OutputPath    string
}

// Result is the outcome of one pass.
type Result struct {
	Document string
	Outline  string
	Table    string
	Tree     *proptree.Node
	Checksum string
}

// Generator coordinates a Source, the renderers and the Assembler.
type Generator struct {
	src       source.Source
	store     storage.Provider
	renderer  *render.Renderer
	formatter *markup.Formatter
	assembler *document.Assembler
	opts      Options
	logger    *slog.Logger
}

// New creates a Generator. store receives the written document.
func New(src source.Source, store storage.Provider, opts Options, logger *slog.Logger) *Generator {
	if opts.OutlineFormat == "" {
		opts.OutlineFormat = OutlineHTML
	}
	if logger == nil {
		logger = slog.Default()
	}
	r := render.New(opts.Render)
	return &Generator{
		src:       src,
		store:     store,
		renderer:  r,
		formatter: markup.NewFormatter(r.Config().IndentSize),
		assembler: document.NewAssembler(opts.Layout, store),
		opts:      opts,
		logger:    logger,
	}
}

// Tree loads the source and builds the node tree without rendering it.
func (g *Generator) Tree(ctx context.Context) (*proptree.Node, error) {
	root, err := g.src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load properties: %w", err)
	}
	tree := g.renderer.Tree(root)
	if dups := proptree.Duplicates(tree); len(dups) > 0 {
		if g.opts.StrictNames {
			return nil, fmt.Errorf("%w: %s", apperr.ErrDuplicateName, strings.Join(dups, ", "))
		}
		g.logger.Warn("duplicate property names; anchors will be ambiguous",
			slog.String("names", strings.Join(dups, ", ")))
	}
	return tree, nil
}

// HTML renders the document and converts it to XHTML.
func (g *Generator) HTML(ctx context.Context) (string, error) {
	res, err := g.Render(ctx)
	if err != nil {
		return "", err
	}
	return g.formatter.DocumentHTML(res.Document)
}

// Render produces the document in memory.
func (g *Generator) Render(ctx context.Context) (*Result, error) {
	tree, err := g.Tree(ctx)
	if err != nil {
		return nil, err
	}
	return g.RenderTree(tree)
}

// RenderTree renders an already built tree.
func (g *Generator) RenderTree(tree *proptree.Node) (*Result, error) {
	var outline string
	if g.opts.OutlineFormat == OutlineHTML {
		list, err := g.formatter.Canonicalize(g.renderer.OutlineList(tree))
		if err != nil {
			return nil, fmt.Errorf("format outline: %w", err)
		}
		outline = list
	} else {
		outline = g.renderer.Outline(tree)
	}

	table, err := g.formatter.Canonicalize(g.renderer.Table(tree.Flatten()))
	if err != nil {
		return nil, fmt.Errorf("format table: %w", err)
	}

	doc := g.assembler.Assemble(g.opts.Header, outline, table, g.opts.Footer)
	return &Result{
		Document: doc,
		Outline:  outline,
		Table:    table,
		Tree:     tree,
		Checksum: checksum.Document(doc),
	}, nil
}

// Generate renders the document and writes it to the output path.
func (g *Generator) Generate(ctx context.Context) (*Result, error) {
	res, err := g.Render(ctx)
	if err != nil {
		return nil, err
	}
	if err := g.assembler.Write(g.opts.OutputPath, res.Document); err != nil {
		return nil, err
	}
	g.logger.Info("document written",
		slog.String("path", g.opts.OutputPath),
		slog.Int("properties", res.Tree.Count()),
		slog.String("checksum", checksum.Short(res.Checksum)))
	return res, nil
}

// Check compares the document on disk with a fresh render and returns a
// unified diff, empty when they match. A missing output file diffs against
// empty content.
func (g *Generator) Check(ctx context.Context) (string, error) {
	res, err := g.Render(ctx)
	if err != nil {
		return "", err
	}
	current, err := g.store.Read(g.opts.OutputPath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("read current document: %w", err)
	}
	if checksum.Sum(current) == res.Checksum {
		return "", nil
	}
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(current)),
		B:        difflib.SplitLines(res.Document),
		FromFile: g.opts.OutputPath,
		ToFile:   "generated",
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "", fmt.Errorf("diff: %w", err)
	}
	return text, nil
}
