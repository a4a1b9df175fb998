package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type sample struct {
	Name  string `yaml:"name"`
	Count int    `yaml:"count"`
}

func (s *sample) Validate() error {
	if s.Count < 0 {
		return errors.New("count must not be negative")
	}
	return nil
}

func TestDecode_KeepsDefaults(t *testing.T) {
	s := &sample{Name: "default", Count: 3}
	if err := Decode([]byte("count: 5\n"), s); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if s.Name != "default" || s.Count != 5 {
		t.Errorf("got %+v", s)
	}
}

func TestDecode_Validates(t *testing.T) {
	s := &sample{}
	if err := Decode([]byte("count: -1\n"), s); err == nil {
		t.Error("expected validation error")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	s := &sample{}
	if err := Load(filepath.Join(t.TempDir(), "nope.yaml"), s); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadOptional(t *testing.T) {
	s := &sample{Name: "default"}
	if err := LoadOptional(filepath.Join(t.TempDir(), "nope.yaml"), s); err != nil {
		t.Fatalf("missing optional file: %v", err)
	}
	if s.Name != "default" {
		t.Errorf("defaults changed: %+v", s)
	}

	path := filepath.Join(t.TempDir(), "c.yaml")
	_ = os.WriteFile(path, []byte("name: ${PROPDOC_SAMPLE_NAME}\n"), 0o644)
	t.Setenv("PROPDOC_SAMPLE_NAME", "from-env")
	if err := LoadOptional(path, s); err != nil {
		t.Fatalf("LoadOptional: %v", err)
	}
	if s.Name != "from-env" {
		t.Errorf("name = %q", s.Name)
	}
}
