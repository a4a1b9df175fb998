// Package source loads the property hierarchy from its backing store.
package source

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/starford/propdoc/internal/apperr"
	"github.com/starford/propdoc/internal/models"
)

// Source kinds.
const (
	KindYAML   = "yaml"
	KindSQLite = "sqlite"
)

// Source supplies the root property of the hierarchy.
type Source interface {
	Load(ctx context.Context) (*models.Property, error)
	// Path is the file backing the source; Watch observes it.
	Path() string
	Close() error
}

// Open returns the Source for kind. root names the root property for stores
// that hold more than one hierarchy.
func Open(kind, path, root string) (Source, error) {
	switch kind {
	case KindYAML:
		return NewYAMLFile(path), nil
	case KindSQLite:
		return OpenSQLite(path, root)
	default:
		return nil, fmt.Errorf("source: unknown kind %q", kind)
	}
}

// YAMLFile reads a property tree from a YAML document.
type YAMLFile struct {
	path string
}

// NewYAMLFile returns a YAMLFile source for path.
func NewYAMLFile(path string) *YAMLFile {
	return &YAMLFile{path: path}
}

func (y *YAMLFile) Path() string { return y.path }

func (y *YAMLFile) Close() error { return nil }

// Load reads and decodes the file on every call.
func (y *YAMLFile) Load(_ context.Context) (*models.Property, error) {
	data, err := os.ReadFile(y.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("source: %s: %w", y.path, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("source: read %s: %w", y.path, err)
	}
	var root models.Property
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("source: parse %s: %w", y.path, err)
	}
	if root.Label == "" && len(root.Children) == 0 {
		return nil, fmt.Errorf("source: %s: %w", y.path, apperr.ErrNoRootProperty)
	}
	return &root, nil
}
