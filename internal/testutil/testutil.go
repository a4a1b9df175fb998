// Package testutil provides shared fixtures for property trees and sources.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/propdoc/internal/models"
	"github.com/starford/propdoc/internal/source"
)

// ExampleTree returns DMP > Title > Language.
func ExampleTree() *models.Property {
	return &models.Property{
		Label: "DMP",
		Children: []*models.Property{
			{
				Label:       "Title",
				DataType:    models.DataType{Label: "string"},
				Cardinality: "1",
				Notes:       "",
				Children: []*models.Property{
					{
						Label:       "Language",
						DataType:    models.DataType{Label: "string"},
						Cardinality: "0..1",
						Notes:       "ISO code",
					},
				},
			},
		},
	}
}

// ExampleYAML is ExampleTree in the YAML source format.
const ExampleYAML = `label: DMP
children:
  - label: Title
    data_type: string
    cardinality: "1"
    children:
      - label: Language
        data_type: string
        cardinality: "0..1"
        notes: ISO code
`

// ChainTree returns a root with a single chain of depth properties named
// level1..levelN.
func ChainTree(depth int) *models.Property {
	root := &models.Property{Label: "DMP"}
	cur := root
	for i := 1; i <= depth; i++ {
		next := &models.Property{
			Label:       fmt.Sprintf("level%d", i),
			DataType:    models.DataType{Label: "object"},
			Cardinality: "0..n",
		}
		cur.Children = append(cur.Children, next)
		cur = next
	}
	return root
}

// WideTree mixes deep branches, childless siblings and unknown cardinality.
func WideTree() *models.Property {
	leaf := func(label, card string) *models.Property {
		return &models.Property{Label: label, DataType: models.DataType{Label: "string"}, Cardinality: card}
	}
	return &models.Property{
		Label: "DMP",
		Children: []*models.Property{
			leaf("ID", "1"),
			{
				Label:       "Project",
				DataType:    models.DataType{Label: "object"},
				Cardinality: "1..n",
				Children: []*models.Property{
					{
						Label:       "Funding",
						DataType:    models.DataType{Label: "object"},
						Cardinality: "0..n",
						Children: []*models.Property{
							{
								Label:       "Grant",
								DataType:    models.DataType{Label: "object"},
								Cardinality: "0..1",
								Children:    []*models.Property{leaf("GrantNumber", "1")},
							},
						},
					},
					leaf("ProjectTitle", "1"),
				},
			},
			leaf("Ethics", "many"),
			{Label: "Contact"},
		},
	}
}

// WriteYAML writes content to a temp file and returns its path.
func WriteYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "properties.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestSQLite creates a temporary SQLite property store seeded with root.
func TestSQLite(t *testing.T, root *models.Property) *source.SQLite {
	t.Helper()
	dbFile, err := os.CreateTemp("", "propdoc-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := source.OpenSQLite(dbFile.Name(), root.Label)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Import(context.Background(), root); err != nil {
		t.Fatal(err)
	}
	return db
}
