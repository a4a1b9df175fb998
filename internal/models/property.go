// Package models defines the externally supplied property hierarchy.
package models

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Property is one node of the source schema hierarchy. The renderer only
// reads it.
type Property struct {
	Label       string      `yaml:"label" json:"label"`
	DataType    DataType    `yaml:"data_type" json:"data_type"`
	Cardinality string      `yaml:"cardinality" json:"cardinality"`
	Notes       string      `yaml:"notes" json:"notes,omitempty"`
	Children    []*Property `yaml:"children" json:"children,omitempty"`
}

// DataType is the display side of a property's type.
type DataType struct {
	Label string `yaml:"label" json:"label"`
}

// UnmarshalYAML accepts either a bare scalar (`data_type: string`) or a
// mapping (`data_type: {label: string}`).
func (d *DataType) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		d.Label = node.Value
		return nil
	case yaml.MappingNode:
		var raw struct {
			Label string `yaml:"label"`
		}
		if err := node.Decode(&raw); err != nil {
			return err
		}
		d.Label = raw.Label
		return nil
	default:
		return fmt.Errorf("models: data_type must be a scalar or mapping (line %d)", node.Line)
	}
}

// Count returns the number of properties below p, excluding p itself.
func (p *Property) Count() int {
	n := 0
	for _, c := range p.Children {
		if c != nil {
			n += 1 + c.Count()
		}
	}
	return n
}
