// Package document assembles the final document from its fragments and
// writes it out.
package document

import (
	"strings"

	"github.com/starford/propdoc/internal/apperr"
	"github.com/starford/propdoc/internal/storage"
)

const (
	DefaultSeparator    = "\n<hr/>\n\n"
	DefaultSectionTitle = "## All Properties\n\n"
)

// Layout is the fixed text placed around the table. Trailer goes between the
// table and the footer and is empty by default.
type Layout struct {
	Separator    string
	SectionTitle string
	Trailer      string
}

// DefaultLayout matches the stock generated document.
func DefaultLayout() Layout {
	return Layout{Separator: DefaultSeparator, SectionTitle: DefaultSectionTitle}
}

// Assembler joins fragments and writes documents through a storage.Provider.
type Assembler struct {
	layout Layout
	store  storage.Provider
}

// NewAssembler returns an Assembler. store may be nil when only Assemble is
// used.
func NewAssembler(layout Layout, store storage.Provider) *Assembler {
	return &Assembler{layout: layout, store: store}
}

// Assemble concatenates header, outline, separator, section title, table,
// trailer and footer, in that order.
func (a *Assembler) Assemble(header, outline, table, footer string) string {
	var sb strings.Builder
	sb.Grow(len(header) + len(outline) + len(table) + len(footer) + len(a.layout.Trailer) + 64)
	sb.WriteString(header)
	sb.WriteString(outline)
	sb.WriteString(a.layout.Separator)
	sb.WriteString(a.layout.SectionTitle)
	sb.WriteString(table)
	sb.WriteString(a.layout.Trailer)
	sb.WriteString(footer)
	return sb.String()
}

// Write stores doc at path in a single attempt. Any failure is returned as
// an *apperr.IOFailure carrying path.
func (a *Assembler) Write(path, doc string) error {
	if a.store == nil {
		return &apperr.IOFailure{Path: path, Err: apperr.ErrNotFound}
	}
	if err := a.store.Write(path, []byte(doc)); err != nil {
		return &apperr.IOFailure{Path: path, Err: err}
	}
	return nil
}
