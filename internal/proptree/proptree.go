// Package proptree builds the ordered, depth-annotated node tree that the
// outline and table views are rendered from.
package proptree

import (
	"github.com/starford/propdoc/internal/models"
)

// CardinalityLabels maps a raw cardinality code to its display label.
type CardinalityLabels map[string]string

// DefaultCardinalityLabels returns the four recognized cardinality codes.
func DefaultCardinalityLabels() CardinalityLabels {
	return CardinalityLabels{
		"0..1": "Zero or One",
		"1":    "Exactly One",
		"0..n": "Zero or More",
		"1..n": "One or More",
	}
}

// Label returns the display label for raw, or "" when raw is not recognized.
func (l CardinalityLabels) Label(raw string) string {
	return l[raw]
}

// Attrs is the display bundle of a node.
type Attrs struct {
	DataType    string `json:"data_type"`
	Cardinality string `json:"cardinality"`
	Notes       string `json:"notes"`
}

// Node mirrors one Property. The root node returned by Build is synthetic.
type Node struct {
	Name     string  `json:"name"`
	Depth    int     `json:"depth"`
	Attrs    Attrs   `json:"attrs"`
	Children []*Node `json:"children"`
}

// Build converts the property hierarchy under root into a node tree. The
// returned node stands in for root itself: it is named after root, has depth
// 0 and is never rendered; its children are the nodes built from
// root.Children.
func Build(root *models.Property, labels CardinalityLabels) *Node {
	if root == nil {
		return &Node{Children: []*Node{}}
	}
	n := &Node{Name: root.Label, Children: make([]*Node, 0, len(root.Children))}
	attach(n, root.Children, labels)
	return n
}

func attach(parent *Node, props []*models.Property, labels CardinalityLabels) {
	for _, p := range props {
		if p == nil {
			continue
		}
		child := &Node{
			Name:  p.Label,
			Depth: parent.Depth + 1,
			Attrs: Attrs{
				DataType:    p.DataType.Label,
				Cardinality: labels.Label(p.Cardinality),
				Notes:       p.Notes,
			},
			Children: make([]*Node, 0, len(p.Children)),
		}
		parent.Children = append(parent.Children, child)
		attach(child, p.Children, labels)
	}
}

// Walk visits every node below n in pre-order, depth first, in the order
// children were attached. n itself is not visited. Walk stops at the first
// error returned by fn.
func (n *Node) Walk(fn func(*Node) error) error {
	stack := make([]*Node, 0, len(n.Children))
	for i := len(n.Children) - 1; i >= 0; i-- {
		stack = append(stack, n.Children[i])
	}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if err := fn(cur); err != nil {
			return err
		}
		for i := len(cur.Children) - 1; i >= 0; i-- {
			stack = append(stack, cur.Children[i])
		}
	}
	return nil
}

// Flatten returns the Walk order as a slice.
func (n *Node) Flatten() []*Node {
	var out []*Node
	_ = n.Walk(func(c *Node) error {
		out = append(out, c)
		return nil
	})
	return out
}

// Count returns the number of nodes below n.
func (n *Node) Count() int {
	total := 0
	_ = n.Walk(func(*Node) error {
		total++
		return nil
	})
	return total
}

// Find returns the first node below n named name, in Walk order.
func (n *Node) Find(name string) (*Node, bool) {
	for _, c := range n.Flatten() {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Duplicates lists the names that occur more than once below root, in the
// order they were first seen.
func Duplicates(root *Node) []string {
	seen := make(map[string]int)
	var dups []string
	_ = root.Walk(func(c *Node) error {
		seen[c.Name]++
		if seen[c.Name] == 2 {
			dups = append(dups, c.Name)
		}
		return nil
	})
	return dups
}
