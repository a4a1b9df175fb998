package api

import "github.com/starford/propdoc/internal/proptree"

// PropertyRow is one table row plus its position in the outline.
type PropertyRow struct {
	Name        string   `json:"name"`
	Depth       int      `json:"depth"`
	DataType    string   `json:"data_type"`
	Cardinality string   `json:"cardinality"`
	Notes       string   `json:"notes"`
	Children    []string `json:"children"`
}

// PropertyTreeResponse is the body of GET /properties.
type PropertyTreeResponse struct {
	Root       string           `json:"root"`
	Count      int              `json:"count"`
	Properties []*proptree.Node `json:"properties"`
}

func toRow(n *proptree.Node) PropertyRow {
	children := make([]string, 0, len(n.Children))
	for _, c := range n.Children {
		children = append(children, c.Name)
	}
	return PropertyRow{
		Name:        n.Name,
		Depth:       n.Depth,
		DataType:    n.Attrs.DataType,
		Cardinality: n.Attrs.Cardinality,
		Notes:       n.Attrs.Notes,
		Children:    children,
	}
}
