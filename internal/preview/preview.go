// Package preview renders an assembled document for the terminal with glamour.
package preview

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-isatty"
)

// Styles understood by Renderer besides glamour style paths.
const (
	StyleAuto  = "auto"
	StyleNoTTY = "notty"
)

// Renderer turns Markdown (with embedded HTML) into styled terminal output.
type Renderer struct {
	Style string // "auto", "notty", "dark", "light" or a style file path
	Width int    // word wrap column; 0 keeps glamour's default
}

// New returns a Renderer with auto style detection.
func New(width int) *Renderer {
	return &Renderer{Style: StyleAuto, Width: width}
}

// StyleFor picks "notty" when w is not an interactive terminal.
func StyleFor(w io.Writer) string {
	f, ok := w.(*os.File)
	if !ok || (!isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd())) {
		return StyleNoTTY
	}
	return StyleAuto
}

// Render styles doc.
func (r *Renderer) Render(doc string) (string, error) {
	var options []glamour.TermRendererOption
	switch r.Style {
	case "", StyleAuto:
		options = append(options, glamour.WithAutoStyle())
	case StyleNoTTY, "dark", "light", "ascii", "dracula", "pink", "tokyo-night":
		options = append(options, glamour.WithStandardStyle(r.Style))
	default:
		options = append(options, glamour.WithStylePath(r.Style))
	}
	if r.Width > 0 {
		options = append(options, glamour.WithWordWrap(r.Width))
	}

	tr, err := glamour.NewTermRenderer(options...)
	if err != nil {
		return "", fmt.Errorf("preview: init renderer: %w", err)
	}
	out, err := tr.Render(doc)
	if err != nil {
		return "", fmt.Errorf("preview: render: %w", err)
	}
	return out, nil
}
