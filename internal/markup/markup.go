// Package markup canonicalizes generated HTML fragments.
//
// Fragments are parsed strictly as XML (no single-root requirement) and
// written back with a fixed indentation width, so formatting canonical output
// again yields identical bytes. A fragment that does not parse is reported as
// an *apperr.MalformedMarkupError.
package markup

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/starford/propdoc/internal/apperr"
)

// Formatter re-indents markup fragments.
type Formatter struct {
	indent int
	md     goldmark.Markdown
}

// NewFormatter returns a Formatter that indents nested elements by indent
// spaces per level. Values below 1 fall back to 2.
func NewFormatter(indent int) *Formatter {
	if indent < 1 {
		indent = 2
	}
	return &Formatter{
		indent: indent,
		md:     goldmark.New(goldmark.WithRendererOptions(html.WithXHTML(), html.WithUnsafe())),
	}
}

// Canonicalize parses raw as a markup fragment and serializes it with the
// formatter's indentation. Whitespace-only text in leaf elements is kept.
func (f *Formatter) Canonicalize(raw string) (string, error) {
	if err := wellFormed(raw); err != nil {
		return "", &apperr.MalformedMarkupError{Fragment: raw, Err: err}
	}

	doc := etree.NewDocument()
	doc.WriteSettings.CanonicalEndTags = true
	if err := doc.ReadFromString(raw); err != nil {
		return "", &apperr.MalformedMarkupError{Fragment: raw, Err: err}
	}

	settings := etree.NewIndentSettings()
	settings.Spaces = f.indent
	settings.PreserveLeafWhitespace = true
	doc.IndentWithSettings(settings)

	out, err := doc.WriteToString()
	if err != nil {
		return "", &apperr.MalformedMarkupError{Fragment: raw, Err: err}
	}
	out = strings.TrimRight(out, "\n")
	if out == "" {
		return "", nil
	}
	return out + "\n", nil
}

// DocumentHTML renders an assembled Markdown document as XHTML. The outline
// and table fragments are raw HTML blocks and pass through unchanged.
func (f *Formatter) DocumentHTML(doc string) (string, error) {
	var buf bytes.Buffer
	if err := f.md.Convert([]byte(doc), &buf); err != nil {
		return "", fmt.Errorf("markup: render document: %w", err)
	}
	return buf.String(), nil
}

// wellFormed checks tag nesting and termination. etree tolerates some
// unterminated input, so the strict decoder runs first.
func wellFormed(raw string) error {
	dec := xml.NewDecoder(strings.NewReader(raw))
	for {
		_, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
