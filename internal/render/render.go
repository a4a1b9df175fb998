// Package render produces the two views of a property tree: a Markdown
// outline of anchor links and a flat HTML reference table whose rows carry
// the anchors.
package render

import (
	"maps"
	"strings"

	"golang.org/x/net/html"

	"github.com/starford/propdoc/internal/models"
	"github.com/starford/propdoc/internal/proptree"
)

// BlankCell replaces absent or empty cell values so downstream renderers do
// not collapse the cell.
const BlankCell = " "

// Config holds the formatting constants of both views.
type Config struct {
	IndentSize int
	IndentUnit string
	Columns    [4]string
	Labels     proptree.CardinalityLabels
}

// DefaultConfig returns the stock column names, labels and two-space indent.
func DefaultConfig() Config {
	return Config{
		IndentSize: 2,
		IndentUnit: " ",
		Columns:    [4]string{"Name", "Data Type", "Cardinality", "Notes"},
		Labels:     proptree.DefaultCardinalityLabels(),
	}
}

// Renderer renders outlines and tables with a fixed Config.
type Renderer struct {
	cfg Config
}

// New returns a Renderer owning a private copy of cfg.
func New(cfg Config) *Renderer {
	if cfg.IndentSize <= 0 {
		cfg.IndentSize = 2
	}
	if cfg.IndentUnit == "" {
		cfg.IndentUnit = " "
	}
	cfg.Labels = maps.Clone(cfg.Labels)
	if cfg.Labels == nil {
		cfg.Labels = proptree.DefaultCardinalityLabels()
	}
	return &Renderer{cfg: cfg}
}

// Config returns a copy of the renderer's configuration.
func (r *Renderer) Config() Config {
	cfg := r.cfg
	cfg.Labels = maps.Clone(r.cfg.Labels)
	return cfg
}

// Tree builds the node tree for root using the renderer's cardinality labels.
func (r *Renderer) Tree(root *models.Property) *proptree.Node {
	return proptree.Build(root, r.cfg.Labels)
}

// Indent returns the indentation for a node at depth.
func (r *Renderer) Indent(depth int) string {
	return strings.Repeat(r.cfg.IndentUnit, r.cfg.IndentSize*depth)
}

// Outline renders one Markdown list line per node below root, in pre-order.
// Link text is backslash-escaped; a name that cannot be a bare link
// destination is written as <#name>.
func (r *Renderer) Outline(root *proptree.Node) string {
	var sb strings.Builder
	_ = root.Walk(func(n *proptree.Node) error {
		sb.WriteString(r.Indent(n.Depth))
		sb.WriteString("* [")
		sb.WriteString(markdownText(n.Name))
		sb.WriteString("](")
		sb.WriteString(markdownDestination("#" + n.Name))
		sb.WriteString(")\n")
		return nil
	})
	return sb.String()
}

// OutlineList renders the outline as nested <ul> lists of anchor links, one
// <li> per node below root. Nesting follows the tree, not the indent
// settings, which only apply once the fragment is canonicalized.
func (r *Renderer) OutlineList(root *proptree.Node) string {
	if len(root.Children) == 0 {
		return ""
	}
	var sb strings.Builder
	writeList(&sb, root.Children)
	return sb.String()
}

func writeList(sb *strings.Builder, nodes []*proptree.Node) {
	sb.WriteString("<ul>")
	for _, n := range nodes {
		sb.WriteString(`<li><a href="#`)
		sb.WriteString(html.EscapeString(n.Name))
		sb.WriteString(`">`)
		sb.WriteString(cell(n.Name))
		sb.WriteString("</a>")
		if len(n.Children) > 0 {
			writeList(sb, n.Children)
		}
		sb.WriteString("</li>")
	}
	sb.WriteString("</ul>")
}

const markdownPunct = "\\`*_[]<>!&"

func markdownText(s string) string {
	if !strings.ContainsAny(s, markdownPunct) {
		return s
	}
	var sb strings.Builder
	for _, c := range s {
		if strings.ContainsRune(markdownPunct, c) {
			sb.WriteByte('\\')
		}
		sb.WriteRune(c)
	}
	return sb.String()
}

func markdownDestination(dest string) string {
	if !strings.ContainsAny(dest, " \t()<>\\") {
		return dest
	}
	var sb strings.Builder
	sb.WriteByte('<')
	for _, c := range dest {
		if c == '<' || c == '>' || c == '\\' {
			sb.WriteByte('\\')
		}
		sb.WriteRune(c)
	}
	sb.WriteByte('>')
	return sb.String()
}

// Table renders nodes, in the given order, as an HTML table. Callers pass
// root.Flatten() so that rows line up with the outline.
func (r *Renderer) Table(nodes []*proptree.Node) string {
	var sb strings.Builder
	sb.WriteString("<table><thead><tr>")
	for _, col := range r.cfg.Columns {
		sb.WriteString("<th>")
		sb.WriteString(cell(col))
		sb.WriteString("</th>")
	}
	sb.WriteString("</tr></thead><tbody>")
	for _, n := range nodes {
		writeRow(&sb, n)
		sb.WriteString("\n")
	}
	sb.WriteString("</tbody></table>")
	return sb.String()
}

func writeRow(sb *strings.Builder, n *proptree.Node) {
	sb.WriteString(`<tr><td><span id="`)
	sb.WriteString(html.EscapeString(n.Name))
	sb.WriteString(`">`)
	sb.WriteString(cell(n.Name))
	sb.WriteString("</span></td>")
	for _, v := range []string{n.Attrs.DataType, n.Attrs.Cardinality, n.Attrs.Notes} {
		sb.WriteString("<td>")
		sb.WriteString(cell(v))
		sb.WriteString("</td>")
	}
	sb.WriteString("</tr>")
}

func cell(v string) string {
	if v == "" {
		return BlankCell
	}
	return html.EscapeString(v)
}
