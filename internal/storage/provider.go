// Package storage defines where generated documents are read from and
// written to.
package storage

// Provider is the interface for output file operations. Paths are relative
// to the provider root.
type Provider interface {
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write replaces the file at path with content in one step; on failure
	// the previous content is left untouched.
	Write(path string, content []byte) error
}
